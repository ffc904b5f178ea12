package token

import (
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
	authmw "foundry/pkg/platform/middleware/auth"
)

// ValidatorAdapter exposes the token service through the auth middleware's
// TokenValidator interface.
type ValidatorAdapter struct {
	service *Service
}

// NewValidatorAdapter wraps a token service for the middleware.
func NewValidatorAdapter(service *Service) *ValidatorAdapter {
	return &ValidatorAdapter{service: service}
}

// ValidateToken validates the token and converts its claims into the
// middleware's typed form.
func (a *ValidatorAdapter) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	account, err := id.ParseAccountID(claims.AccountID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	version, err := id.ParseAPIVersion(claims.APIVersion)
	if err != nil {
		version = id.DefaultVersion()
	}

	return &authmw.Claims{
		Account:    account,
		APIVersion: version,
		JTI:        claims.ID,
	}, nil
}
