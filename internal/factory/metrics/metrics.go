// Package metrics provides observability for the deploy engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks deployments and the compensation paths that undo them.
type Metrics struct {
	DeploymentsTotal   prometheus.Counter
	FailuresTotal      *prometheus.CounterVec
	FeesCollectedTotal prometheus.Counter
	RefundsTotal       prometheus.Counter
	CompensationsTotal prometheus.Counter
	DeployDuration     prometheus.Histogram
}

// New creates a Metrics instance with all factory metrics registered.
func New() *Metrics {
	return &Metrics{
		DeploymentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_deployments_total",
			Help: "Total number of successful deployments",
		}),
		FailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "foundry_deployment_failures_total",
			Help: "Total number of failed deployments by stage",
		}, []string{"stage"}),
		FeesCollectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_deployment_fees_collected_total",
			Help: "Total fee amount forwarded to the platform admin",
		}),
		RefundsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_deployment_refunds_total",
			Help: "Total excess amount refunded to deployers",
		}),
		CompensationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_deployment_compensations_total",
			Help: "Total number of ledger compensations after a failed deploy step",
		}),
		DeployDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "foundry_deploy_duration_seconds",
			Help:    "Wall time of the full deploy operation",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveDeploy records one deploy duration from its start time.
func (m *Metrics) ObserveDeploy(start time.Time) {
	m.DeployDuration.Observe(time.Since(start).Seconds())
}
