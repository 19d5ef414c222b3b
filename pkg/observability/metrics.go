package observability

import (
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the simulation collectors. A nil *Metrics is a valid
// no-op receiver so callers never need to guard observation sites.
type Metrics struct {
	rounds       prometheus.Counter
	outcomes     *prometheus.CounterVec
	iterations   prometheus.Histogram
	activeAgents prometheus.Gauge
}

// NewMetrics registers the collectors with reg and returns the bundle.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		rounds: factory.NewCounter(prometheus.CounterOpts{
			Name: "loophound_rounds_total",
			Help: "Number of executed rounds.",
		}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loophound_outcomes_total",
			Help: "Round outcomes by signal.",
		}, []string{"outcome"}),
		iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loophound_iterations_per_round",
			Help:    "Scheduler iterations consumed per round.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		activeAgents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loophound_active_agents",
			Help: "Agents that have not reached a terminating node.",
		}),
	}
}

// ObserveRound records one executed round.
func (m *Metrics) ObserveRound(outcome domain.Outcome, iterations, activeAgents int) {
	if m == nil {
		return
	}
	m.rounds.Inc()
	m.outcomes.WithLabelValues(outcome.String()).Inc()
	m.iterations.Observe(float64(iterations))
	m.activeAgents.Set(float64(activeAgents))
}

// ObserveReset records a run reset.
func (m *Metrics) ObserveReset(agents int) {
	if m == nil {
		return
	}
	m.activeAgents.Set(float64(agents))
}
