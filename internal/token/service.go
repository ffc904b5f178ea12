package token

import (
	"context"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"foundry/internal/audit"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
	paudit "foundry/pkg/platform/audit"
	"foundry/pkg/requestcontext"
)

// Service issues access tokens for accounts. Issuance is an admin operation;
// validation runs on every authenticated request via the middleware adapter.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	defaultTTL time.Duration

	logger    *slog.Logger
	publisher audit.Emitter
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditPublisher sets the audit publisher for issuance events.
func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// NewService creates a token service.
func NewService(signingKey, issuer, audience string, defaultTTL time.Duration, opts ...Option) (*Service, error) {
	if signingKey == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "token service requires a signing key")
	}
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	s := &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		defaultTTL: defaultTTL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssuedToken is the result of minting an access token.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// Issue mints an access token for the account. A non-positive ttl uses the
// service default.
func (s *Service) Issue(ctx context.Context, account id.AccountID, ttl time.Duration) (*IssuedToken, error) {
	if account.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "account is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := requestcontext.Now(ctx)
	expiresAt := now.Add(ttl)

	signed, err := s.sign(Claims{
		AccountID:  account.String(),
		APIVersion: id.DefaultVersion().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	if err != nil {
		return nil, err
	}

	audit.LogAudit(ctx, s.logger, s.publisher, paudit.EventTokenIssued,
		"actor", "admin",
		"account", account.String(),
		"expires_at", expiresAt.Format(time.RFC3339),
	)

	return &IssuedToken{Token: signed, ExpiresAt: expiresAt}, nil
}
