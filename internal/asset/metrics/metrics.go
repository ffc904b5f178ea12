// Package metrics provides observability for the asset ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ledger activity. Applies sit on the deploy and claim
// critical paths, so their latency gets a histogram.
type Metrics struct {
	MintsTotal             prometheus.Counter
	TransfersTotal         prometheus.Counter
	InsufficientFundsTotal prometheus.Counter
	ApplyDuration          prometheus.Histogram
}

// New creates a Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		MintsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_ledger_mints_total",
			Help: "Total number of successful mint operations",
		}),
		TransfersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_ledger_transfers_total",
			Help: "Total number of successful transfer movements",
		}),
		InsufficientFundsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_ledger_insufficient_funds_total",
			Help: "Total number of applies rejected for insufficient balance",
		}),
		ApplyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "foundry_ledger_apply_duration_seconds",
			Help:    "Duration of ledger apply operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveApply records the duration of one apply. Call with time.Now() taken
// at the start of the operation.
func (m *Metrics) ObserveApply(start time.Time) {
	m.ApplyDuration.Observe(time.Since(start).Seconds())
}
