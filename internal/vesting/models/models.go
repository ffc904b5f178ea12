// Package models defines the vesting instance configuration and the per
// beneficiary release schedules, including the proportional-release math.
package models

import (
	"math/bits"
	"time"

	"foundry/internal/vesting"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
)

// State is the one-way lifecycle of a vesting instance. There is no
// transition back: once started, a schedule set is fixed forever.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateVestingStarted
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateVestingStarted:
		return "vesting_started"
	default:
		return "uninitialized"
	}
}

// Config is the per-instance vesting configuration. The token reference is
// fixed at initialization; cooldown and minimum claim are retunable by the
// owner at any time and take effect on the next claim.
type Config struct {
	InstanceID    id.InstanceID
	Owner         id.AccountID
	Token         id.TokenID
	ClaimCooldown time.Duration
	MinClaim      int64
	State         State
	InitializedAt time.Time
	StartedAt     time.Time
}

// IsOwner reports whether account may run the owner-only operations.
func (c *Config) IsOwner(account id.AccountID) bool {
	return c.Owner == account
}

// CanStartVesting gates the one-time seeding. Retrying after a successful
// start is a distinct failure from never having initialized.
func (c *Config) CanStartVesting() error {
	switch c.State {
	case StateVestingStarted:
		return vesting.ErrVestingAlreadyStarted
	case StateInitialized:
		return nil
	default:
		return vesting.ErrNotInitialized
	}
}

// ApplyStart flips the latch.
func (c *Config) ApplyStart(now time.Time) {
	c.State = StateVestingStarted
	c.StartedAt = now
}

// ApplyClaimParameters retunes the claim policy.
func (c *Config) ApplyClaimParameters(cooldown time.Duration, minClaim int64) {
	c.ClaimCooldown = cooldown
	c.MinClaim = minClaim
}

// Schedule is one beneficiary's fixed release plan plus its claim progress.
// A zero LastClaim means the beneficiary has never claimed.
type Schedule struct {
	InstanceID  id.InstanceID
	Beneficiary id.AccountID
	Total       int64
	Start       time.Time
	Cliff       time.Duration
	Duration    time.Duration
	Claimed     int64
	LastClaim   time.Time
}

// IsBeneficiary reports whether this schedule grants anything. A zero total
// is indistinguishable from not being a beneficiary at all.
func (s *Schedule) IsBeneficiary() bool {
	return s.Total > 0
}

// CliffPassed reports whether now is strictly past the cliff point. At the
// boundary nothing is claimable yet.
func (s *Schedule) CliffPassed(now time.Time) bool {
	return now.After(s.Start.Add(s.Cliff))
}

// VestedAmount returns how much of the total has been released by now.
// Release is linear over Duration starting at Start+Cliff, computed in whole
// seconds. The multiplication runs through a 128-bit intermediate so
// total × elapsed cannot overflow; truncated remainders accrue and become
// claimable on a later call, they are never lost.
func (s *Schedule) VestedAmount(now time.Time) int64 {
	cliffEnd := s.Start.Add(s.Cliff)
	if !now.After(cliffEnd) {
		return 0
	}
	elapsed := int64(now.Sub(cliffEnd) / time.Second)
	span := int64(s.Duration / time.Second)
	if elapsed >= span {
		return s.Total
	}
	hi, lo := bits.Mul64(uint64(s.Total), uint64(elapsed))
	vested, _ := bits.Div64(hi, lo, uint64(span))
	return int64(vested)
}

// ClaimableAmount returns what the beneficiary could claim right now.
func (s *Schedule) ClaimableAmount(now time.Time) int64 {
	return s.VestedAmount(now) - s.Claimed
}

// ValidateSeed checks a schedule as it enters the one-time seeding batch.
// Start may equal now but not precede it; the duration must cover at least
// one whole second because release is computed in seconds.
func (s *Schedule) ValidateSeed(now time.Time) error {
	if s.Beneficiary.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "beneficiary account is required")
	}
	if s.Total <= 0 {
		return dErrors.New(dErrors.CodeValidation, "total amount must be positive")
	}
	if s.Duration < time.Second {
		return dErrors.New(dErrors.CodeValidation, "duration must be at least one second")
	}
	if s.Start.Before(now) {
		return dErrors.New(dErrors.CodeValidation, "start time must not be in the past")
	}
	if s.Cliff < 0 {
		return dErrors.New(dErrors.CodeValidation, "cliff must not be negative")
	}
	if s.Cliff > s.Duration {
		return dErrors.New(dErrors.CodeValidation, "cliff must not exceed the duration")
	}
	return nil
}

// ApplyClaim records a successful claim.
func (s *Schedule) ApplyClaim(amount int64, now time.Time) {
	s.Claimed += amount
	s.LastClaim = now
}

// RevertClaim undoes ApplyClaim after a failed transfer.
func (s *Schedule) RevertClaim(amount int64, previousLastClaim time.Time) {
	s.Claimed -= amount
	s.LastClaim = previousLastClaim
}
