// Package models defines the deployed-instance record and the per-deployer
// deployment ledger entry.
package models

import (
	"time"

	"foundry/internal/blueprint"
	id "foundry/pkg/domain"
)

// Instance is one deployed, initialized instance of a blueprint. The row is
// written only after the instance's initialize succeeded and the fee
// settled, so its existence is the proof a deployment fully committed.
//
// Seq is the position in the deployer's record: 1 for their first successful
// deployment, counting up in append order. Rows are never mutated or
// removed.
type Instance struct {
	ID          id.InstanceID
	BlueprintID id.BlueprintID
	Kind        blueprint.Kind
	Deployer    id.AccountID
	FeePaid     int64
	Seq         int64
	CreatedAt   time.Time
}
