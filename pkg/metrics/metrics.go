// Package metrics holds the Prometheus collectors for the companion service.
// All recording methods are safe on a nil *Metrics so components can run
// without instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "companion"

// Metrics is the set of service collectors registered on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	MessagesProcessed *prometheus.CounterVec
	Overflows         *prometheus.CounterVec
	FactsExtracted    *prometheus.CounterVec
	ProcessingLatency prometheus.Histogram
	ActiveSessions    prometheus.Gauge
	SessionEvictions  *prometheus.CounterVec
	WorkerJobs        *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		MessagesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Messages processed by detected intent",
		}, []string{"intent"}),

		Overflows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_overflows_total",
			Help:      "Conversations refused because memory exceeded a bound",
		}, []string{"reason"}),

		FactsExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facts_extracted_total",
			Help:      "Candidate facts extracted by key",
		}, []string{"key"}),

		ProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_processing_seconds",
			Help:      "Time spent analyzing a message and building its reply",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Conversation sessions held in memory",
		}),

		SessionEvictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_evictions_total",
			Help:      "Sessions dropped from the store by cause",
		}, []string{"cause"}), // expired, capacity, idle, deleted

		WorkerJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_jobs_total",
			Help:      "Persistence jobs by kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: ok, error, dropped
	}
}

// ObserveMessage records one processed message.
func (m *Metrics) ObserveMessage(intent string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.MessagesProcessed.WithLabelValues(intent).Inc()
	m.ProcessingLatency.Observe(elapsed.Seconds())
}

// ObserveOverflow records a refused message.
func (m *Metrics) ObserveOverflow(reason string) {
	if m == nil {
		return
	}
	m.Overflows.WithLabelValues(reason).Inc()
}

// ObserveFact records an extracted candidate fact.
func (m *Metrics) ObserveFact(key string) {
	if m == nil {
		return
	}
	m.FactsExtracted.WithLabelValues(key).Inc()
}

// SetSessions sets the active session gauge.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// ObserveEviction records a session leaving the store.
func (m *Metrics) ObserveEviction(cause string) {
	if m == nil {
		return
	}
	m.SessionEvictions.WithLabelValues(cause).Inc()
}

// ObserveJob records a worker job outcome.
func (m *Metrics) ObserveJob(kind, outcome string) {
	if m == nil {
		return
	}
	m.WorkerJobs.WithLabelValues(kind, outcome).Inc()
}
