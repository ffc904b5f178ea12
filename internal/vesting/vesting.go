// Package vesting implements the time-release blueprint family: per
// beneficiary linear token release with a cliff, gated by a claim cooldown
// and a minimum claim size. Funds are pre-deposited to the instance's ledger
// account; starting the schedule only seeds accounting.
package vesting

import (
	"encoding/json"
	"time"

	"foundry/internal/blueprint"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
)

// Lifecycle and claim errors. Conflict codes mark operations that arrived in
// the wrong state or too early; not-found codes mark identities the instance
// does not know.
var (
	ErrAlreadyInitialized    = dErrors.New(dErrors.CodeConflict, "vesting instance is already initialized")
	ErrNotInitialized        = dErrors.New(dErrors.CodeNotFound, "vesting instance is not initialized")
	ErrNotOwner              = dErrors.New(dErrors.CodeForbidden, "caller does not own this vesting instance")
	ErrVestingAlreadyStarted = dErrors.New(dErrors.CodeConflict, "vesting has already started")
	ErrVestingNotStarted     = dErrors.New(dErrors.CodeConflict, "vesting has not started")
	ErrNotBeneficiary        = dErrors.New(dErrors.CodeNotFound, "caller is not a beneficiary of this instance")
	ErrCliffNotReached       = dErrors.New(dErrors.CodeConflict, "cliff period has not passed")
	ErrCooldownNotPassed     = dErrors.New(dErrors.CodeConflict, "claim cooldown has not elapsed")
	ErrBelowMinClaim         = dErrors.New(dErrors.CodeConflict, "claimable amount is below the minimum claim")
	ErrNothingToClaim        = dErrors.New(dErrors.CodeConflict, "nothing to claim")
	ErrInsufficientDeposit   = dErrors.New(dErrors.CodeConflict, "pre-deposited balance does not cover the schedule totals")
	ErrInsufficientBalance   = dErrors.New(dErrors.CodeConflict, "instance balance cannot cover the claim")
	ErrTransferFailed        = dErrors.New(dErrors.CodeConflict, "token transfer failed")
	ErrLengthMismatch        = dErrors.New(dErrors.CodeValidation, "schedule arrays must have equal lengths")
	ErrEmptyBatch            = dErrors.New(dErrors.CodeValidation, "schedule batch must not be empty")
)

// InitData carries the parameters an instance is initialized with. The token
// is fixed for the instance's lifetime; cooldown and minimum claim can be
// retuned later by the owner.
type InitData struct {
	Token    id.TokenID
	Cooldown time.Duration
	MinClaim int64
}

// initDataWire is the JSON form carried inside a deploy payload. Durations
// travel as whole seconds, matching the schedule math.
type initDataWire struct {
	Token           string `json:"token"`
	CooldownSeconds int64  `json:"cooldown_seconds"`
	MinClaimAmount  int64  `json:"min_claim_amount"`
}

// EncodeInitData builds the deploy payload for a vesting instance. It is a
// pure constructor: validation happens at initialize time.
func EncodeInitData(token id.TokenID, cooldown time.Duration, minClaim int64) blueprint.Payload {
	spec, _ := json.Marshal(initDataWire{
		Token:           token.String(),
		CooldownSeconds: int64(cooldown / time.Second),
		MinClaimAmount:  minClaim,
	})
	return blueprint.Payload{Kind: blueprint.KindVesting, Spec: spec}
}

// DecodeInitData parses and validates a deploy payload.
func DecodeInitData(payload blueprint.Payload) (InitData, error) {
	if payload.Kind != blueprint.KindVesting {
		return InitData{}, dErrors.New(dErrors.CodeValidation, "payload kind is not vesting")
	}
	var wire initDataWire
	if err := json.Unmarshal(payload.Spec, &wire); err != nil {
		return InitData{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "vesting init payload is not valid JSON")
	}
	token, err := id.ParseTokenID(wire.Token)
	if err != nil {
		return InitData{}, dErrors.Wrap(err, dErrors.CodeValidation, "vesting init payload needs a valid token")
	}
	if wire.CooldownSeconds < 0 {
		return InitData{}, dErrors.New(dErrors.CodeValidation, "claim cooldown must not be negative")
	}
	if wire.MinClaimAmount < 0 {
		return InitData{}, dErrors.New(dErrors.CodeValidation, "minimum claim amount must not be negative")
	}
	return InitData{
		Token:    token,
		Cooldown: time.Duration(wire.CooldownSeconds) * time.Second,
		MinClaim: wire.MinClaimAmount,
	}, nil
}

// VestingData carries the one-time schedule seeding batch as five parallel
// slices, one entry per beneficiary.
type VestingData struct {
	Beneficiaries []id.AccountID
	TotalAmounts  []int64
	StartTimes    []time.Time
	Cliffs        []time.Duration
	Durations     []time.Duration
}

// EncodeVestingData builds a seeding batch. It is a pure constructor:
// validation happens at start-vesting time.
func EncodeVestingData(beneficiaries []id.AccountID, totals []int64, starts []time.Time, cliffs, durations []time.Duration) VestingData {
	return VestingData{
		Beneficiaries: beneficiaries,
		TotalAmounts:  totals,
		StartTimes:    starts,
		Cliffs:        cliffs,
		Durations:     durations,
	}
}

// ValidateShape checks the batch is non-empty with aligned slices. Per-entry
// checks happen against the request time when the batch is seeded.
func (d VestingData) ValidateShape() error {
	n := len(d.Beneficiaries)
	if n == 0 {
		return ErrEmptyBatch
	}
	if len(d.TotalAmounts) != n || len(d.StartTimes) != n || len(d.Cliffs) != n || len(d.Durations) != n {
		return ErrLengthMismatch
	}
	return nil
}
