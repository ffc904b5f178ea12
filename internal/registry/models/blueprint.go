// Package models defines the blueprint catalog entry.
package models

import (
	"time"

	"foundry/internal/blueprint"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
)

// ErrNotRegistered is returned by mutating catalog operations when the
// target id was never registered.
var ErrNotRegistered = dErrors.New(dErrors.CodeNotFound, "blueprint is not registered")

// Entry is one row of the blueprint catalog. A zero RegisteredAt marks an
// id that was never registered; entries are never deleted, only deactivated,
// so the catalog doubles as a history of everything ever approved.
type Entry struct {
	ID           id.BlueprintID `json:"id"`
	Kind         blueprint.Kind `json:"kind"`
	Fee          int64          `json:"fee"`
	Active       bool           `json:"active"`
	RegisteredAt time.Time      `json:"registered_at"`
}

// Registered reports whether this entry was ever written. Lookups for
// unknown ids return a zero-valued entry, so this is the check callers make
// before trusting any other field.
func (e *Entry) Registered() bool {
	return !e.RegisteredAt.IsZero()
}

// CanUpdate gates the mutating admin operations: fee changes and status
// flips require a registered entry.
func (e *Entry) CanUpdate() error {
	if !e.Registered() {
		return ErrNotRegistered
	}
	return nil
}

// ApplyFee sets a new deployment fee.
func (e *Entry) ApplyFee(fee int64) {
	e.Fee = fee
}

// ApplyStatus flips the active flag. Deactivation does not unregister: the
// entry keeps its fee and timestamp and can be reactivated later.
func (e *Entry) ApplyStatus(active bool) {
	e.Active = active
}
