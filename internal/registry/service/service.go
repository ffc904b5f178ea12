// Package service implements the blueprint catalog operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"foundry/internal/audit"
	"foundry/internal/blueprint"
	"foundry/internal/registry/metrics"
	"foundry/internal/registry/models"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
	paudit "foundry/pkg/platform/audit"
	"foundry/pkg/platform/sentinel"
	"foundry/pkg/requestcontext"
)

// Store is the persistence boundary for catalog entries. Execute runs a
// validate-then-apply mutation atomically: under the store mutex in memory,
// under a row lock in Postgres.
type Store interface {
	Put(ctx context.Context, entry *models.Entry) error
	Find(ctx context.Context, blueprintID id.BlueprintID) (*models.Entry, error)
	Execute(ctx context.Context, blueprintID id.BlueprintID, validate func(*models.Entry) error, apply func(*models.Entry)) (*models.Entry, error)
}

// KindHost answers whether a blueprint kind has executable logic behind it.
type KindHost interface {
	Known(kind blueprint.Kind) bool
}

// Service orchestrates the admin-only catalog mutations and the public
// lookup. Admin access is enforced at the transport layer; the service
// assumes its mutating callers already passed the gate.
type Service struct {
	store          Store
	kinds          KindHost
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

// New constructs the catalog service.
func New(store Store, kinds KindHost, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if kinds == nil {
		return nil, fmt.Errorf("kind host is required")
	}
	s := &Service{store: store, kinds: kinds}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register writes a catalog entry. Registering an id again overwrites the
// previous entry and restamps RegisteredAt; nothing is ever deleted.
func (s *Service) Register(ctx context.Context, blueprintID id.BlueprintID, kind blueprint.Kind, fee int64, active bool) (*models.Entry, error) {
	if blueprintID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "blueprint id is required")
	}
	if !s.kinds.Known(kind) {
		return nil, blueprint.ErrUnknownKind
	}
	if fee < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "fee must not be negative")
	}

	entry := &models.Entry{
		ID:           blueprintID,
		Kind:         kind,
		Fee:          fee,
		Active:       active,
		RegisteredAt: requestcontext.Now(ctx),
	}
	if err := s.store.Put(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register blueprint")
	}

	audit.LogAudit(ctx, s.logger, s.auditPublisher, paudit.EventBlueprintRegistered,
		"actor", "admin",
		"blueprint_id", blueprintID.String(),
		"kind", kind.String(),
		"fee", fee,
		"active", active,
	)
	if s.metrics != nil {
		s.metrics.RegisteredTotal.Inc()
	}
	return entry, nil
}

// UpdateFee changes the deployment fee on a registered entry.
func (s *Service) UpdateFee(ctx context.Context, blueprintID id.BlueprintID, newFee int64) (*models.Entry, error) {
	if newFee < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "fee must not be negative")
	}

	var previousFee int64
	entry, err := s.store.Execute(ctx, blueprintID,
		func(e *models.Entry) error {
			if err := e.CanUpdate(); err != nil {
				return err
			}
			previousFee = e.Fee
			return nil
		},
		func(e *models.Entry) {
			e.ApplyFee(newFee)
		},
	)
	if err != nil {
		return nil, wrapCatalogErr(err)
	}

	audit.LogAudit(ctx, s.logger, s.auditPublisher, paudit.EventBlueprintFeeUpdated,
		"actor", "admin",
		"blueprint_id", blueprintID.String(),
		"previous_fee", previousFee,
		"new_fee", newFee,
	)
	if s.metrics != nil {
		s.metrics.FeeUpdatesTotal.Inc()
	}
	return entry, nil
}

// SetActive flips the availability of a registered entry. Deactivation
// blocks new deployments; existing instances are untouched.
func (s *Service) SetActive(ctx context.Context, blueprintID id.BlueprintID, active bool) (*models.Entry, error) {
	entry, err := s.store.Execute(ctx, blueprintID,
		func(e *models.Entry) error {
			return e.CanUpdate()
		},
		func(e *models.Entry) {
			e.ApplyStatus(active)
		},
	)
	if err != nil {
		return nil, wrapCatalogErr(err)
	}

	audit.LogAudit(ctx, s.logger, s.auditPublisher, paudit.EventBlueprintStatusChanged,
		"actor", "admin",
		"blueprint_id", blueprintID.String(),
		"active", active,
	)
	if s.metrics != nil {
		s.metrics.StatusChangesTotal.Inc()
	}
	return entry, nil
}

// Lookup reads an entry. Unknown ids return a zero-valued entry rather than
// an error; callers check Registered before trusting the fields.
func (s *Service) Lookup(ctx context.Context, blueprintID id.BlueprintID) (*models.Entry, error) {
	entry, err := s.store.Find(ctx, blueprintID)
	if errors.Is(err, sentinel.ErrNotFound) {
		entry = &models.Entry{ID: blueprintID}
	} else if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up blueprint")
	}

	if s.metrics != nil {
		s.metrics.LookupsTotal.Inc()
	}
	return entry, nil
}

// wrapCatalogErr translates store sentinels into domain errors. Errors that
// already carry a code, including the ones validate closures return, pass
// through untouched.
func wrapCatalogErr(err error) error {
	var coded *dErrors.Error
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return models.ErrNotRegistered
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "blueprint catalog operation failed")
	}
}
