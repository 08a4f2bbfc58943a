package flags

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ruteri/jit-activation-gateway/interfaces"
	"github.com/ruteri/jit-activation-gateway/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

var gatewayFlags = []cli.Flag{
	ListenAddrFlag,
	WebhookSecretFlag,
	WebhookSecretURIFlag,
	ServiceMapFlag,
	ServiceMapFileFlag,
	OrchestratorFlag,
	DockerBinaryFlag,
	ScaleTimeoutFlag,
	ReplicasFlag,
	TriggerEventsFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newContext parses args against gatewayFlags the way cli.App would.
func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range gatewayFlags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestDefaults(t *testing.T) {
	cCtx := newContext(t)

	act := ConfigureActivator(cCtx)
	assert.Equal(t, uint64(1), act.Replicas)
	assert.Equal(t, 30*time.Second, act.Timeout)

	secret, err := ConfigureWebhookSecret(context.Background(), cCtx, testLogger())
	require.NoError(t, err)
	assert.Empty(t, secret)

	gw := ConfigureGateway(cCtx, secret)
	assert.Equal(t, []string{"push", "pull_request", "release"}, gw.TriggerEvents)

	cfg := ConfigureServer(cCtx, nil, cCtx.String(ListenAddrFlag.Name))
	assert.Equal(t, "0.0.0.0:9999", cfg.ListenAddr)
	assert.Equal(t, act.Timeout+10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, act.Timeout+5*time.Second, cfg.GracefulShutdownDuration)
	assert.Equal(t, 60*time.Second, cfg.ReadTimeout)
}

func TestConfigureAliasTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services:\n  minio: storage_minio\n  wiki: wiki_app\n"), 0o644))

	cCtx := newContext(t, "--service-map-file", path, "--service-map", "wiki=wiki_wiki")

	table, err := ConfigureAliasTable(context.Background(), cCtx, testLogger())
	require.NoError(t, err)
	assert.Equal(t, interfaces.ServiceName("storage_minio"), table.Resolve("minio"))
	assert.Equal(t, interfaces.ServiceName("wiki_wiki"), table.Resolve("wiki"))
	assert.Equal(t, interfaces.ServiceName("forgejo_forgejo"), table.Resolve("forgejo"))
}

func TestConfigureAliasTable_Invalid(t *testing.T) {
	cCtx := newContext(t, "--service-map", "broken")
	_, err := ConfigureAliasTable(context.Background(), cCtx, testLogger())
	assert.Error(t, err)
}

func TestConfigureScaler(t *testing.T) {
	scaler, err := ConfigureScaler(newContext(t, "--orchestrator", "cli", "--docker-binary", "/usr/local/bin/docker"))
	require.NoError(t, err)
	require.IsType(t, &orchestrator.CLIScaler{}, scaler)
	assert.Equal(t, "/usr/local/bin/docker", scaler.(*orchestrator.CLIScaler).Binary)

	_, err = ConfigureScaler(newContext(t, "--orchestrator", "kubernetes"))
	assert.Error(t, err)
}

func TestConfigureGateway(t *testing.T) {
	cCtx := newContext(t, "--webhook-secret", "s3cret", "--trigger-events", "push, workflow_run,,")

	secret, err := ConfigureWebhookSecret(context.Background(), cCtx, testLogger())
	require.NoError(t, err)
	gw := ConfigureGateway(cCtx, secret)
	assert.Equal(t, []byte("s3cret"), gw.Secret)
	assert.Equal(t, []string{"push", "workflow_run"}, gw.TriggerEvents)
}

func TestConfigureWebhookSecret_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	secret, err := ConfigureWebhookSecret(context.Background(), newContext(t, "--webhook-secret-uri", path), testLogger())
	require.NoError(t, err)
	assert.Equal(t, []byte("from-file"), secret)
}

func TestConfigureWebhookSecret_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))

	tests := []struct {
		name string
		args []string
	}{
		{"both set", []string{"--webhook-secret", "a", "--webhook-secret-uri", empty}},
		{"empty document", []string{"--webhook-secret-uri", empty}},
		{"missing file", []string{"--webhook-secret-uri", filepath.Join(dir, "missing")}},
		{"bad scheme", []string{"--webhook-secret-uri", "ftp://host/secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConfigureWebhookSecret(context.Background(), newContext(t, tt.args...), testLogger())
			assert.Error(t, err)
		})
	}
}
