package handler

import (
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
)

// MintRequest is the HTTP request body for POST /v1/admin/assets/{token}/mint.
type MintRequest struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`

	parsedAccount id.AccountID
}

// Validate parses the destination account and checks the amount.
func (r *MintRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	account, err := id.ParseAccountID(r.Account)
	if err != nil {
		return err
	}
	r.parsedAccount = account

	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}

// ParsedAccount returns the validated destination account.
func (r *MintRequest) ParsedAccount() id.AccountID {
	return r.parsedAccount
}

// BalanceResponse is the HTTP response body for GET /v1/assets/{token}/balance.
type BalanceResponse struct {
	Token   string `json:"token"`
	Account string `json:"account"`
	Balance int64  `json:"balance"`
}
