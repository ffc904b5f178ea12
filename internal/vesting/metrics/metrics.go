// Package metrics provides observability for the vesting lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks vesting lifecycle transitions and claim activity.
type Metrics struct {
	InitializedTotal      prometheus.Counter
	StartedTotal          prometheus.Counter
	BeneficiariesSeeded   prometheus.Counter
	ClaimsTotal           prometheus.Counter
	ClaimedAmountTotal    prometheus.Counter
	ClaimRollbacksTotal   prometheus.Counter
	ParameterUpdatesTotal prometheus.Counter
}

// New creates a Metrics instance with all vesting metrics registered.
func New() *Metrics {
	return &Metrics{
		InitializedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_vesting_initialized_total",
			Help: "Total number of vesting instances initialized",
		}),
		StartedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_vesting_started_total",
			Help: "Total number of vesting instances whose schedules were seeded",
		}),
		BeneficiariesSeeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_vesting_beneficiaries_seeded_total",
			Help: "Total number of beneficiary schedules written at start",
		}),
		ClaimsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_vesting_claims_total",
			Help: "Total number of successful claims",
		}),
		ClaimedAmountTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_vesting_claimed_amount_total",
			Help: "Total token amount paid out by claims",
		}),
		ClaimRollbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_vesting_claim_rollbacks_total",
			Help: "Total number of claims rolled back after a failed transfer",
		}),
		ParameterUpdatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "foundry_vesting_parameter_updates_total",
			Help: "Total number of claim parameter retunes",
		}),
	}
}
