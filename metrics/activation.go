package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ActivationMetrics records activation attempts. A nil *ActivationMetrics is a no-op.
type ActivationMetrics struct {
	activations   *prometheus.CounterVec
	scaleDuration *prometheus.HistogramVec
}

// NewActivationMetrics registers the activation instruments on reg.
func NewActivationMetrics(namespace string, reg prometheus.Registerer) (*ActivationMetrics, error) {
	m := &ActivationMetrics{
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Activation requests by service, trust tier and outcome.",
		}, []string{"service", "tier", "outcome"}),
		scaleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scale_duration_seconds",
			Help:      "Time spent in the orchestrator scale command.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"service"}),
	}

	for _, c := range []prometheus.Collector{m.activations, m.scaleDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveOutcome counts one finished request.
func (m *ActivationMetrics) ObserveOutcome(service, tier, outcome string) {
	if m == nil {
		return
	}
	m.activations.WithLabelValues(service, tier, outcome).Inc()
}

// ObserveScale records the duration of one scale command.
func (m *ActivationMetrics) ObserveScale(service string, d time.Duration) {
	if m == nil {
		return
	}
	m.scaleDuration.WithLabelValues(service).Observe(d.Seconds())
}
