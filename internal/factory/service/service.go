// Package service implements the deploy orchestration: precondition checks
// against the catalog, payment escrow, the untrusted initialize call, fee
// settlement, and the deployment record.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"foundry/internal/asset"
	assetmodels "foundry/internal/asset/models"
	"foundry/internal/audit"
	"foundry/internal/blueprint"
	"foundry/internal/factory"
	"foundry/internal/factory/metrics"
	"foundry/internal/factory/models"
	regmodels "foundry/internal/registry/models"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
	paudit "foundry/pkg/platform/audit"
	"foundry/pkg/platform/sentinel"
	"foundry/pkg/requestcontext"
)

// Store is the persistence boundary for deployments. CreateDeployment
// writes the instance row and the record append as one unit and assigns the
// per-deployer sequence number.
type Store interface {
	CreateDeployment(ctx context.Context, instance *models.Instance) (*models.Instance, error)
	FindInstance(ctx context.Context, instanceID id.InstanceID) (*models.Instance, error)
	ListByDeployer(ctx context.Context, deployer id.AccountID) ([]models.Instance, error)
}

// Catalog is the slice of the blueprint registry the deploy path reads.
// Unknown ids come back as zero-valued entries, never errors.
type Catalog interface {
	Lookup(ctx context.Context, blueprintID id.BlueprintID) (*regmodels.Entry, error)
}

// Host stamps out fresh, isolated instances of a blueprint kind.
type Host interface {
	New(kind blueprint.Kind) (blueprint.Instance, error)
}

// Accounts names the well-known ledger parties of every deployment. The
// fee token is the platform currency attached payments are denominated in;
// escrow holds a payment while the untrusted initialize runs; admin
// receives settled fees.
type Accounts struct {
	FeeToken id.TokenID
	Escrow   id.AccountID
	Admin    id.AccountID
}

func (a Accounts) validate() error {
	if a.FeeToken.IsZero() {
		return fmt.Errorf("factory fee token is required")
	}
	if a.Escrow.IsZero() {
		return fmt.Errorf("factory escrow account is required")
	}
	if a.Admin.IsZero() {
		return fmt.Errorf("factory admin account is required")
	}
	if a.Escrow == a.Admin {
		return fmt.Errorf("factory escrow and admin accounts must differ")
	}
	return nil
}

// Service orchestrates deployments. Every ledger commit happens before the
// untrusted initialize call, and every failure after a commit compensates
// the ledger back, so no partial deployment is ever observable.
type Service struct {
	store          Store
	catalog        Catalog
	host           Host
	ledger         asset.Ledger
	accounts       Accounts
	tracer         trace.Tracer
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

// New constructs the deploy service.
func New(store Store, catalog Catalog, host Host, ledger asset.Ledger, accounts Accounts, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("factory store is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("blueprint catalog is required")
	}
	if host == nil {
		return nil, fmt.Errorf("blueprint host is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("asset ledger is required")
	}
	if err := accounts.validate(); err != nil {
		return nil, err
	}
	s := &Service{
		store:    store,
		catalog:  catalog,
		host:     host,
		ledger:   ledger,
		accounts: accounts,
		tracer:   otel.Tracer("foundry/internal/factory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Deploy creates one instance of a registered blueprint on behalf of the
// deployer. paidAmount is the attached value: the fee is taken from it,
// the excess returned, all within this one operation.
//
// The order of checks and steps is fixed. Preconditions report the first
// failure: active, then paid covers fee, then registered. The payment is
// escrowed before the untrusted initialize runs so a reentrant call
// observes the deployer already charged; any later failure compensates the
// escrow and reverses settled movements before surfacing.
func (s *Service) Deploy(ctx context.Context, deployer id.AccountID, blueprintID id.BlueprintID, payload blueprint.Payload, paidAmount int64) (*models.Instance, error) {
	ctx, span := s.tracer.Start(ctx, "factory.Deploy", trace.WithAttributes(
		attribute.String("blueprint_id", blueprintID.String()),
		attribute.Int64("paid_amount", paidAmount),
	))
	defer span.End()
	start := time.Now()

	if deployer.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "deployer account is required")
	}
	if blueprintID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "blueprint id is required")
	}
	if paidAmount < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "paid amount must not be negative")
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	entry, err := s.catalog.Lookup(ctx, blueprintID)
	if err != nil {
		return nil, s.fail(span, "lookup", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up blueprint"))
	}
	if !entry.Active {
		return nil, s.fail(span, "precondition", factory.ErrBlueprintInactive)
	}
	if paidAmount < entry.Fee {
		return nil, s.fail(span, "precondition", factory.ErrNotEnoughFunds)
	}
	if !entry.Registered() {
		return nil, s.fail(span, "precondition", factory.ErrBlueprintNotRegistered)
	}
	if payload.Kind != entry.Kind {
		return nil, s.fail(span, "precondition",
			dErrors.New(dErrors.CodeValidation, "init payload kind does not match the blueprint"))
	}

	clone, err := s.host.New(entry.Kind)
	if err != nil {
		return nil, s.fail(span, "clone", err)
	}

	// Escrow commits before the untrusted call. A reentrant deploy from
	// inside initialize starts from the post-charge balance.
	if paidAmount > 0 {
		if err := s.ledger.Transfer(ctx, s.accounts.FeeToken, deployer, s.accounts.Escrow, paidAmount); err != nil {
			return nil, s.fail(span, "escrow", err)
		}
	}

	instanceID := id.NewInstanceID()
	if err := clone.Initialize(ctx, instanceID, deployer, payload); err != nil {
		s.compensate(ctx, deployer, paidAmount)
		return nil, s.fail(span, "initialize", fmt.Errorf("%w: %w", factory.ErrInitializationFailed, err))
	}

	// Settle: refund the excess and forward the fee in one atomic apply.
	// The refund is not best-effort; if either leg fails the whole deploy
	// fails and the full payment goes back.
	excess := paidAmount - entry.Fee
	movements := make([]assetmodels.Movement, 0, 2)
	if excess > 0 {
		movements = append(movements, assetmodels.Movement{
			Token: s.accounts.FeeToken, From: s.accounts.Escrow, To: deployer, Amount: excess,
		})
	}
	if entry.Fee > 0 {
		movements = append(movements, assetmodels.Movement{
			Token: s.accounts.FeeToken, From: s.accounts.Escrow, To: s.accounts.Admin, Amount: entry.Fee,
		})
	}
	if len(movements) > 0 {
		if err := s.ledger.Apply(ctx, movements...); err != nil {
			s.compensate(ctx, deployer, paidAmount)
			return nil, s.fail(span, "settle", fmt.Errorf("%w: %w", factory.ErrTransferFailed, err))
		}
	}

	instance := &models.Instance{
		ID:          instanceID,
		BlueprintID: blueprintID,
		Kind:        entry.Kind,
		Deployer:    deployer,
		FeePaid:     entry.Fee,
		CreatedAt:   requestcontext.Now(ctx),
	}
	created, err := s.store.CreateDeployment(ctx, instance)
	if err != nil {
		s.reverseSettle(ctx, deployer, entry.Fee)
		return nil, s.fail(span, "record", dErrors.Wrap(err, dErrors.CodeInternal, "failed to record deployment"))
	}

	audit.LogAudit(ctx, s.logger, s.auditPublisher, paudit.EventInstanceDeployed,
		"actor", deployer.String(),
		"instance_id", instanceID.String(),
		"blueprint_id", blueprintID.String(),
		"kind", entry.Kind.String(),
		"fee", entry.Fee,
		"paid_amount", paidAmount,
		"refunded", excess,
	)
	if s.metrics != nil {
		s.metrics.DeploymentsTotal.Inc()
		s.metrics.FeesCollectedTotal.Add(float64(entry.Fee))
		if excess > 0 {
			s.metrics.RefundsTotal.Add(float64(excess))
		}
		s.metrics.ObserveDeploy(start)
	}
	span.SetAttributes(attribute.String("instance_id", instanceID.String()))
	return created, nil
}

// GetInstance returns one instance row.
func (s *Service) GetInstance(ctx context.Context, instanceID id.InstanceID) (*models.Instance, error) {
	instance, err := s.store.FindInstance(ctx, instanceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, factory.ErrInstanceNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read instance")
	}
	return instance, nil
}

// ListDeployments returns the deployer's record in append order.
func (s *Service) ListDeployments(ctx context.Context, deployer id.AccountID) ([]models.Instance, error) {
	if deployer.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "deployer account is required")
	}
	instances, err := s.store.ListByDeployer(ctx, deployer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list deployments")
	}
	return instances, nil
}

// compensate returns the escrowed payment to the deployer after a failed
// step. A compensation that itself fails leaves funds parked in escrow, not
// lost; it is logged loudly for operator action.
func (s *Service) compensate(ctx context.Context, deployer id.AccountID, paidAmount int64) {
	if paidAmount == 0 {
		return
	}
	if err := s.ledger.Transfer(ctx, s.accounts.FeeToken, s.accounts.Escrow, deployer, paidAmount); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to compensate escrowed deployment payment",
				"deployer", deployer.String(),
				"amount", paidAmount,
				"error", err,
			)
		}
	}
	if s.metrics != nil {
		s.metrics.CompensationsTotal.Inc()
	}
}

// reverseSettle undoes the fee forwarding after the record write failed.
// The excess leg needs no reversal: it already went back to the deployer,
// which is where a fully-undone deploy leaves it anyway.
func (s *Service) reverseSettle(ctx context.Context, deployer id.AccountID, fee int64) {
	if fee == 0 {
		return
	}
	if err := s.ledger.Transfer(ctx, s.accounts.FeeToken, s.accounts.Admin, deployer, fee); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to reverse deployment fee after record failure",
				"deployer", deployer.String(),
				"fee", fee,
				"error", err,
			)
		}
	}
	if s.metrics != nil {
		s.metrics.CompensationsTotal.Inc()
	}
}

// fail records the failing stage on the span and the failure metric.
func (s *Service) fail(span trace.Span, stage string, err error) error {
	span.RecordError(err)
	if s.metrics != nil {
		s.metrics.FailuresTotal.WithLabelValues(stage).Inc()
	}
	return err
}
