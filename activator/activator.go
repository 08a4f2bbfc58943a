// Package activator turns a resolved activation request into a single,
// time-bounded scale command against the orchestrator.
package activator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/jit-activation-gateway/interfaces"
	"github.com/ruteri/jit-activation-gateway/metrics"
)

const (
	DefaultReplicas = 1
	DefaultTimeout  = 30 * time.Second
)

// ErrScaleTimeout is returned when the orchestrator does not answer within Config.Timeout.
var ErrScaleTimeout = errors.New("scale command timed out")

type Config struct {
	// Replicas is the target replica count. Defaults to DefaultReplicas.
	Replicas uint64
	// Timeout bounds each orchestrator call. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Activator implements interfaces.Activator.
// It holds no per-request state and is safe for concurrent use.
type Activator struct {
	resolver interfaces.ServiceResolver
	scaler   interfaces.Scaler
	cfg      Config
	metrics  *metrics.ActivationMetrics
	log      *slog.Logger
}

// New creates an Activator. m may be nil.
func New(resolver interfaces.ServiceResolver, scaler interfaces.Scaler, cfg Config, m *metrics.ActivationMetrics, log *slog.Logger) *Activator {
	if cfg.Replicas == 0 {
		cfg.Replicas = DefaultReplicas
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Activator{
		resolver: resolver,
		scaler:   scaler,
		cfg:      cfg,
		metrics:  m,
		log:      log,
	}
}

// Activate resolves alias and issues exactly one scale command for it.
//
// The scale command outlives ctx cancellation: once issued it runs to
// completion or until Config.Timeout, whichever comes first. Activate itself
// returns no later than Config.Timeout after the call.
func (a *Activator) Activate(ctx context.Context, tier interfaces.TrustTier, alias interfaces.ServiceAlias) interfaces.ActivationResult {
	service := a.resolver.Resolve(alias)
	log := a.log.With("activation_id", uuid.NewString(), "alias", alias, "service", service, "tier", tier)

	log.Info("Scaling service", "replicas", a.cfg.Replicas)

	start := time.Now()
	out, err := a.scale(ctx, service)
	elapsed := time.Since(start)
	a.metrics.ObserveScale(service.String(), elapsed)

	var result interfaces.ActivationResult
	if err != nil {
		log.Error("Scale failed", "err", err, "output", out, "elapsed", elapsed)
		result = interfaces.ActivationResult{
			Outcome: interfaces.OutcomeOrchestratorFailure,
			Service: service,
			Message: fmt.Sprintf("Scale failed: %v", err),
			Err:     err,
		}
	} else {
		log.Info("Service started", "output", out, "elapsed", elapsed)
		result = interfaces.ActivationResult{
			Outcome: interfaces.OutcomeActivated,
			Service: service,
			Message: "Service started",
		}
	}

	a.metrics.ObserveOutcome(service.String(), tier.String(), result.Outcome.String())
	return result
}

type scaleResult struct {
	out string
	err error
}

func (a *Activator) scale(ctx context.Context, service interfaces.ServiceName) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Timeout)
	defer cancel()

	done := make(chan scaleResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- scaleResult{err: fmt.Errorf("scale %s panicked: %v", service, p)}
			}
		}()
		out, err := a.scaler.Scale(ctx, service, a.cfg.Replicas)
		done <- scaleResult{out: out, err: err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		// A scaler that finished right at the deadline still wins.
		select {
		case r := <-done:
			return r.out, r.err
		default:
		}
		return "", fmt.Errorf("%w after %s", ErrScaleTimeout, a.cfg.Timeout)
	}
}
