package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	paudit "foundry/pkg/platform/audit"
)

// Metrics holds Prometheus metrics for the audit pipeline.
type Metrics struct {
	Emitted         *prometheus.CounterVec
	Dropped         prometheus.Counter
	PersistFailures prometheus.Counter
	PublishFailures prometheus.Counter
}

// NewMetrics creates a Metrics instance with the pipeline metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "foundry_audit_events_emitted_total",
			Help: "Total number of audit events accepted by the publisher",
		}, []string{"event"}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_audit_events_dropped_total",
			Help: "Total number of audit events dropped because the buffer was full",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_audit_persist_failures_total",
			Help: "Total number of audit store append failures",
		}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_audit_publish_failures_total",
			Help: "Total number of audit stream publish failures",
		}),
	}
}

// IncEmitted increments the emitted counter for the event name.
func (m *Metrics) IncEmitted(name paudit.EventName) {
	m.Emitted.WithLabelValues(string(name)).Inc()
}

// IncDropped increments the dropped counter.
func (m *Metrics) IncDropped() {
	m.Dropped.Inc()
}

// IncPersistFailures increments the persist failures counter.
func (m *Metrics) IncPersistFailures() {
	m.PersistFailures.Inc()
}

// IncPublishFailures increments the publish failures counter.
func (m *Metrics) IncPublishFailures() {
	m.PublishFailures.Inc()
}
