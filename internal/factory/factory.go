// Package factory implements the clone-deploy engine: validate the catalog
// entry, escrow the attached payment, stamp out an isolated instance, run
// its untrusted initialize, settle the fee, and record the deployment. The
// whole operation is all-or-nothing; every failing step compensates the
// ledger back to its pre-deploy state.
package factory

import (
	dErrors "foundry/pkg/domain-errors"
)

// Deploy failure kinds, in the order the preconditions are checked. An
// unknown blueprint id reads as an inactive entry first: the zero-valued
// catalog entry is inactive, so the active check fires before the
// registration check ever runs. The explicit not-registered error stays as
// the final invariant check regardless.
var (
	ErrBlueprintInactive      = dErrors.New(dErrors.CodeConflict, "blueprint is not active")
	ErrNotEnoughFunds         = dErrors.New(dErrors.CodeConflict, "paid amount does not cover the deployment fee")
	ErrBlueprintNotRegistered = dErrors.New(dErrors.CodeNotFound, "blueprint is not registered")
	ErrInitializationFailed   = dErrors.New(dErrors.CodeInvalidInput, "instance initialization failed")
	ErrTransferFailed         = dErrors.New(dErrors.CodeConflict, "deployment settlement failed")
	ErrInstanceNotFound       = dErrors.New(dErrors.CodeNotFound, "instance not found")
)
