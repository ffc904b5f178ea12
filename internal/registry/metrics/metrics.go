// Package metrics provides observability for the blueprint catalog.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks catalog mutations and cache effectiveness.
type Metrics struct {
	RegisteredTotal    prometheus.Counter
	FeeUpdatesTotal    prometheus.Counter
	StatusChangesTotal prometheus.Counter
	LookupsTotal       prometheus.Counter
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
}

// New creates a Metrics instance with all catalog metrics registered.
func New() *Metrics {
	return &Metrics{
		RegisteredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_blueprints_registered_total",
			Help: "Total number of blueprint registrations, including overwrites",
		}),
		FeeUpdatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_blueprint_fee_updates_total",
			Help: "Total number of blueprint fee updates",
		}),
		StatusChangesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_blueprint_status_changes_total",
			Help: "Total number of blueprint activations and deactivations",
		}),
		LookupsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_blueprint_lookups_total",
			Help: "Total number of blueprint lookups",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_blueprint_cache_hits_total",
			Help: "Total number of blueprint lookups served from Redis",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_blueprint_cache_misses_total",
			Help: "Total number of blueprint lookups that fell through to the primary store",
		}),
	}
}
