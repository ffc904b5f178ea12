package handler

import (
	"time"

	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
)

// IssueRequest is the HTTP request body for POST /v1/admin/tokens. A zero
// ttl_seconds uses the service default.
type IssueRequest struct {
	Account    string `json:"account"`
	TTLSeconds int64  `json:"ttl_seconds"`

	parsedAccount id.AccountID
}

// Validate parses the subject account and checks the ttl.
func (r *IssueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	account, err := id.ParseAccountID(r.Account)
	if err != nil {
		return err
	}
	r.parsedAccount = account

	if r.TTLSeconds < 0 {
		return dErrors.New(dErrors.CodeValidation, "ttl_seconds must not be negative")
	}
	return nil
}

// ParsedAccount returns the validated subject account.
func (r *IssueRequest) ParsedAccount() id.AccountID {
	return r.parsedAccount
}

// TTL returns the requested token lifetime.
func (r *IssueRequest) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// IssueResponse is the HTTP response body for POST /v1/admin/tokens.
type IssueResponse struct {
	Account   string `json:"account"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
