package flags

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/jit-activation-gateway/activator"
	"github.com/ruteri/jit-activation-gateway/api"
	"github.com/ruteri/jit-activation-gateway/api/gateway"
	"github.com/ruteri/jit-activation-gateway/common"
	"github.com/ruteri/jit-activation-gateway/interfaces"
	"github.com/ruteri/jit-activation-gateway/orchestrator"
	"github.com/ruteri/jit-activation-gateway/resolver"
	"github.com/ruteri/jit-activation-gateway/storage"
	"github.com/urfave/cli/v2"
)

const (
	OrchestratorAPI = "api"
	OrchestratorCLI = "cli"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second
	scaleTimeout := cCtx.Duration(ScaleTimeoutFlag.Name)

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: scaleTimeout + 5*time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             scaleTimeout + 10*time.Second,
	}
}

// ConfigureAliasTable builds the alias table from the built-in defaults, the
// optional service map document and the inline mapping flag, in that order of
// precedence.
func ConfigureAliasTable(ctx context.Context, cCtx *cli.Context, log *slog.Logger) (*resolver.AliasTable, error) {
	sources := []map[string]string{resolver.DefaultMappings()}

	if location := cCtx.String(ServiceMapFileFlag.Name); location != "" {
		src, err := storage.SourcesFor(location, log)
		if err != nil {
			return nil, err
		}
		m, err := resolver.LoadMappingsFrom(ctx, src)
		if err != nil {
			return nil, err
		}
		log.Info("Loaded service map", "location", src.LocationURI(), "entries", len(m))
		sources = append(sources, m)
	}

	if inline := cCtx.String(ServiceMapFlag.Name); inline != "" {
		m, err := resolver.ParseMappings(inline)
		if err != nil {
			return nil, err
		}
		sources = append(sources, m)
	}

	return resolver.Build(sources...)
}

// ConfigureWebhookSecret returns the shared secret given inline or fetched
// from --webhook-secret-uri. Setting both is an error.
func ConfigureWebhookSecret(ctx context.Context, cCtx *cli.Context, log *slog.Logger) ([]byte, error) {
	inline := cCtx.String(WebhookSecretFlag.Name)
	location := cCtx.String(WebhookSecretURIFlag.Name)

	switch {
	case location == "":
		return []byte(inline), nil
	case inline != "":
		return nil, errors.New("only one of --webhook-secret and --webhook-secret-uri may be set")
	}

	src, err := storage.SourcesFor(location, log)
	if err != nil {
		return nil, err
	}
	secret, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch webhook secret: %w", err)
	}
	secret = bytes.TrimSpace(secret)
	if len(secret) == 0 {
		return nil, fmt.Errorf("webhook secret at %s is empty", src.LocationURI())
	}
	log.Info("Loaded webhook secret", "location", src.LocationURI())
	return secret, nil
}

// ConfigureScaler picks the orchestrator back end.
func ConfigureScaler(cCtx *cli.Context) (interfaces.Scaler, error) {
	switch kind := cCtx.String(OrchestratorFlag.Name); kind {
	case OrchestratorAPI:
		dockerClient, err := orchestrator.NewDockerClient()
		if err != nil {
			return nil, err
		}
		return orchestrator.NewDockerScaler(dockerClient), nil
	case OrchestratorCLI:
		return orchestrator.NewCLIScaler(cCtx.String(DockerBinaryFlag.Name)), nil
	default:
		return nil, fmt.Errorf("unknown orchestrator %q, expected %q or %q", kind, OrchestratorAPI, OrchestratorCLI)
	}
}

func ConfigureActivator(cCtx *cli.Context) activator.Config {
	return activator.Config{
		Replicas: cCtx.Uint64(ReplicasFlag.Name),
		Timeout:  cCtx.Duration(ScaleTimeoutFlag.Name),
	}
}

func ConfigureGateway(cCtx *cli.Context, secret []byte) gateway.Config {
	var events []string
	for _, e := range strings.Split(cCtx.String(TriggerEventsFlag.Name), ",") {
		if e = strings.TrimSpace(e); e != "" {
			events = append(events, e)
		}
	}
	return gateway.Config{
		Secret:        secret,
		TriggerEvents: events,
	}
}

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "0.0.0.0:9999",
	Usage:   "address to listen on for API",
	EnvVars: []string{"LISTEN_ADDR"},
}

var WebhookSecretFlag = &cli.StringFlag{
	Name:    "webhook-secret",
	Usage:   "shared HMAC secret for authenticated routes. If empty, signatures are not checked",
	EnvVars: []string{"WEBHOOK_SECRET"},
}

var WebhookSecretURIFlag = &cli.StringFlag{
	Name:    "webhook-secret-uri",
	Usage:   "location of the webhook secret: file path, s3://bucket/key or vault://host/mount/path?field=name",
	EnvVars: []string{"WEBHOOK_SECRET_URI"},
}

var ServiceMapFlag = &cli.StringFlag{
	Name:    "service-map",
	Usage:   "extra alias mappings, e.g. 'grafana=grafana_grafana,wiki=wiki_app'",
	EnvVars: []string{"SERVICE_MAP"},
}

var ServiceMapFileFlag = &cli.StringFlag{
	Name:    "service-map-file",
	Usage:   "comma-separated locations (file path, s3://, vault://) of a YAML document with a 'services' map, first found wins",
	EnvVars: []string{"SERVICE_MAP_FILE"},
}

var OrchestratorFlag = &cli.StringFlag{
	Name:    "orchestrator",
	Value:   OrchestratorAPI,
	Usage:   "how to scale services: 'api' (Docker Engine API) or 'cli' (docker service scale)",
	EnvVars: []string{"ORCHESTRATOR"},
}

var DockerBinaryFlag = &cli.StringFlag{
	Name:    "docker-binary",
	Value:   "docker",
	Usage:   "docker executable used by the 'cli' orchestrator",
	EnvVars: []string{"DOCKER_BINARY"},
}

var ScaleTimeoutFlag = &cli.DurationFlag{
	Name:    "scale-timeout",
	Value:   activator.DefaultTimeout,
	Usage:   "maximum time to wait for a scale command",
	EnvVars: []string{"SCALE_TIMEOUT"},
}

var ReplicasFlag = &cli.Uint64Flag{
	Name:    "replicas",
	Value:   activator.DefaultReplicas,
	Usage:   "replica count to scale activated services to",
	EnvVars: []string{"REPLICAS"},
}

var TriggerEventsFlag = &cli.StringFlag{
	Name:    "trigger-events",
	Value:   strings.Join(gateway.DefaultTriggerEvents(), ","),
	Usage:   "comma-separated webhook event types that activate a service",
	EnvVars: []string{"TRIGGER_EVENTS"},
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 5,
	Usage: "seconds to stay not-ready before shutting down",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:    "metrics-addr",
	Value:   "127.0.0.1:8090",
	Usage:   "address to listen on for Prometheus metrics",
	EnvVars: []string{"METRICS_ADDR"},
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
