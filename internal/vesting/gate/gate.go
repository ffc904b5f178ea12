// Package gate isolates the claim-policy checks that sit between the cliff
// check and the payout: the cooldown between claims and the minimum claim
// size. Keeping them apart from the schedule math lets the policy be tested
// and reasoned about on its own.
package gate

import (
	"time"

	"foundry/internal/vesting"
)

// Check enforces the claim policy. A zero lastClaim means the beneficiary
// has never claimed, so no cooldown applies. The cooldown boundary is
// inclusive: a claim exactly cooldown after the previous one passes.
func Check(now, lastClaim time.Time, cooldown time.Duration, claimable, minClaim int64) error {
	if !lastClaim.IsZero() && now.Sub(lastClaim) < cooldown {
		return vesting.ErrCooldownNotPassed
	}
	if claimable < minClaim {
		return vesting.ErrBelowMinClaim
	}
	return nil
}
