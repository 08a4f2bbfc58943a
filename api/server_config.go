package api

import (
	"log/slog"
	"time"
)

// HTTPServerConfig configures the gateway's HTTP front end. The timeouts are
// derived from the activator's scale timeout in cmd/flags.ConfigureServer.
type HTTPServerConfig struct {
	// ListenAddr is the address and port the HTTP server will listen on.
	ListenAddr string

	// MetricsAddr serves the activation counters, scale latency histogram
	// and swarm collector on /metrics. Empty disables the metrics listener.
	MetricsAddr string

	// EnablePprof mounts the chi profiler under /debug on the main router.
	EnablePprof bool

	// Log receives request logs and activation outcomes.
	Log *slog.Logger

	// DrainDuration is how long /readyz reports 503 before the listener
	// closes, letting the swarm ingress stop routing here.
	DrainDuration time.Duration

	// GracefulShutdownDuration bounds shutdown. It is the scale timeout
	// plus 5s so an in-flight activation can still report its outcome.
	GracefulShutdownDuration time.Duration

	// ReadTimeout must allow reading a webhook body of up to
	// gateway.MaxBodySize (25 MiB) from a slow sender.
	ReadTimeout time.Duration

	// WriteTimeout is the scale timeout plus 10s, so a timed-out scale
	// still gets its 500 written.
	WriteTimeout time.Duration
}
