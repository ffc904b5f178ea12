// Package models defines the ledger's wire-free value types.
package models

import (
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
)

// Movement is one leg of a ledger apply: amount of token moves from one
// account to another. A zero From marks issuance; minting is the only path
// that may create supply, so stores skip the debit check for it. A zero To
// is never valid: the ledger has no burn operation.
type Movement struct {
	Token  id.TokenID
	From   id.AccountID
	To     id.AccountID
	Amount int64
}

// Issuance reports whether this movement creates supply instead of moving it.
func (m Movement) Issuance() bool {
	return m.From.IsZero()
}

// Validate enforces the structural rules every movement must satisfy before
// a store will even look at balances.
func (m Movement) Validate() error {
	if m.Token.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "movement token is required")
	}
	if m.To.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "movement destination account is required")
	}
	if m.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "movement amount must be positive")
	}
	if m.From == m.To {
		return dErrors.New(dErrors.CodeValidation, "movement source and destination must differ")
	}
	return nil
}
