// Package asset implements the fungible token ledger every fund-moving
// component works through. Balances are plain int64 amounts scoped by
// (token, account); the ledger knows nothing about blueprints, instances,
// or vesting. It only guarantees that committed balances never go negative
// and that a multi-movement apply lands atomically.
package asset

//go:generate mockgen -source=asset.go -destination=mocks/mocks.go -package=mocks Ledger

import (
	"context"

	"foundry/internal/asset/models"
	id "foundry/pkg/domain"
)

// Ledger is the boundary the factory and vesting components move funds
// through. Movements within one Apply commit together or not at all, and
// they apply in order: a debit that would take a balance negative fails the
// whole batch with a conflict error.
type Ledger interface {
	// Mint creates new supply of token on the destination account.
	Mint(ctx context.Context, token id.TokenID, to id.AccountID, amount int64) error

	// Transfer moves amount of token between two accounts.
	Transfer(ctx context.Context, token id.TokenID, from, to id.AccountID, amount int64) error

	// Apply commits a batch of movements atomically.
	Apply(ctx context.Context, movements ...models.Movement) error

	// Balance reports the committed balance. Accounts that never held the
	// token read as zero.
	Balance(ctx context.Context, token id.TokenID, account id.AccountID) (int64, error)
}
