// Package observability exposes Prometheus instrumentation for the ledger.
// Balance mutations are the money-critical path, so every mutation is counted
// and timed rather than logged ad hoc.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the instruments wired around ledger mutations.
type Metrics struct {
	mutations *prometheus.CounterVec
	failures  *prometheus.CounterVec
	retries   prometheus.Counter
	duration  *prometheus.HistogramVec
}

// NewMetrics registers the ledger instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_mutations_total",
			Help: "Number of balance mutations applied, by entry kind.",
		}, []string{"kind"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_mutation_failures_total",
			Help: "Number of balance mutations that failed, by entry kind.",
		}, []string{"kind"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_mutation_retries_total",
			Help: "Number of retries after a store conflict.",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_mutation_duration_seconds",
			Help:    "Time spent applying a balance mutation, by entry kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
}

// ObserveMutation records one applied mutation. Safe on a nil receiver so
// the ledger can run uninstrumented in tests.
func (m *Metrics) ObserveMutation(kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(kind).Inc()
	m.duration.WithLabelValues(kind).Observe(took.Seconds())
}

// ObserveFailure records one failed mutation.
func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

// ObserveRetry records one conflict retry.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}
