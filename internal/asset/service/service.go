// Package service implements the ledger operations on top of a Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"foundry/internal/asset"
	"foundry/internal/asset/metrics"
	"foundry/internal/asset/models"
	"foundry/internal/audit"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
	paudit "foundry/pkg/platform/audit"
	"foundry/pkg/platform/sentinel"
)

var _ asset.Ledger = (*Service)(nil)

// Store is the persistence boundary for balances. Both implementations make
// Apply atomic: the memory store under one mutex, Postgres under one
// transaction with row locks.
type Store interface {
	Apply(ctx context.Context, movements ...models.Movement) error
	Balance(ctx context.Context, token id.TokenID, account id.AccountID) (int64, error)
}

// Service validates movements, translates store errors into domain errors,
// and emits audit events for supply changes. It is the asset.Ledger
// implementation the rest of the system wires against.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher audit.Emitter
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs the ledger service.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mint creates new supply of token on the destination account. The handler
// gates this behind the admin token; the service only cares that the
// movement is well-formed.
func (s *Service) Mint(ctx context.Context, token id.TokenID, to id.AccountID, amount int64) error {
	movement := models.Movement{Token: token, To: to, Amount: amount}
	if err := movement.Validate(); err != nil {
		return err
	}
	if err := s.store.Apply(ctx, movement); err != nil {
		return wrapLedgerErr(err, s.metrics)
	}

	audit.LogAudit(ctx, s.logger, s.auditPublisher, paudit.EventAssetMinted,
		"actor", "admin",
		"token", token.String(),
		"account", to.String(),
		"amount", amount,
	)
	if s.metrics != nil {
		s.metrics.MintsTotal.Inc()
	}
	return nil
}

// Transfer moves amount of token between two accounts.
func (s *Service) Transfer(ctx context.Context, token id.TokenID, from, to id.AccountID, amount int64) error {
	movement := models.Movement{Token: token, From: from, To: to, Amount: amount}
	if err := movement.Validate(); err != nil {
		return err
	}
	if movement.Issuance() {
		return dErrors.New(dErrors.CodeValidation, "transfer source account is required")
	}
	return s.Apply(ctx, movement)
}

// Apply commits a batch of movements atomically.
func (s *Service) Apply(ctx context.Context, movements ...models.Movement) error {
	for _, m := range movements {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	start := time.Now()
	if err := s.store.Apply(ctx, movements...); err != nil {
		return wrapLedgerErr(err, s.metrics)
	}
	if s.metrics != nil {
		s.metrics.TransfersTotal.Add(float64(len(movements)))
		s.metrics.ObserveApply(start)
	}
	return nil
}

// Balance reports the committed balance for an account.
func (s *Service) Balance(ctx context.Context, token id.TokenID, account id.AccountID) (int64, error) {
	if token.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "token is required")
	}
	if account.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "account is required")
	}
	balance, err := s.store.Balance(ctx, token, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return balance, nil
}

// wrapLedgerErr translates store sentinels into coded domain errors.
// Validation errors from Movement.Validate pass through untouched.
func wrapLedgerErr(err error, m *metrics.Metrics) error {
	switch {
	case dErrors.HasCode(err, dErrors.CodeValidation):
		return err
	case errors.Is(err, sentinel.ErrInsufficientFunds):
		if m != nil {
			m.InsufficientFundsTotal.Inc()
		}
		return dErrors.Wrap(err, dErrors.CodeConflict, "insufficient funds")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "balance overflow")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger apply failed")
	}
}
