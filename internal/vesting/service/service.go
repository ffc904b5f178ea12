// Package service implements the vesting instance lifecycle: initialize,
// one-time schedule seeding, claimable reads, and gated claims.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"foundry/internal/asset"
	"foundry/internal/audit"
	"foundry/internal/vesting"
	"foundry/internal/vesting/gate"
	"foundry/internal/vesting/metrics"
	"foundry/internal/vesting/models"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
	paudit "foundry/pkg/platform/audit"
	"foundry/pkg/platform/sentinel"
	"foundry/pkg/requestcontext"
)

// Store is the persistence boundary for vesting state. The Execute methods
// run validate-then-apply mutations atomically; Seed additionally writes the
// whole schedule batch in the same unit as the latch flip.
type Store interface {
	CreateConfig(ctx context.Context, config *models.Config) error
	FindConfig(ctx context.Context, instanceID id.InstanceID) (*models.Config, error)
	ExecuteConfig(ctx context.Context, instanceID id.InstanceID, validate func(*models.Config) error, apply func(*models.Config)) (*models.Config, error)
	Seed(ctx context.Context, instanceID id.InstanceID, validate func(*models.Config) error, apply func(*models.Config), schedules []models.Schedule) (*models.Config, error)
	FindSchedule(ctx context.Context, instanceID id.InstanceID, beneficiary id.AccountID) (*models.Schedule, error)
	ExecuteSchedule(ctx context.Context, instanceID id.InstanceID, beneficiary id.AccountID, validate func(*models.Schedule) error, apply func(*models.Schedule)) (*models.Schedule, error)
}

// Service orchestrates vesting operations against the store and the ledger.
// Funds are never pulled: the instance account must be funded before
// StartVesting, and claims only ever push from it.
type Service struct {
	store          Store
	ledger         asset.Ledger
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

// New constructs the vesting service.
func New(store Store, ledger asset.Ledger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("vesting store is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("asset ledger is required")
	}
	s := &Service{store: store, ledger: ledger, tracer: otel.Tracer("foundry/internal/vesting")}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize records the instance configuration and hands ownership to the
// deployer. It runs exactly once per instance; the factory calls it through
// the blueprint adapter during deploy.
func (s *Service) Initialize(ctx context.Context, instanceID id.InstanceID, owner id.AccountID, data vesting.InitData) error {
	if instanceID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "instance id is required")
	}
	if owner.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "owner account is required")
	}
	if data.Token.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	if data.Cooldown < 0 {
		return dErrors.New(dErrors.CodeValidation, "claim cooldown must not be negative")
	}
	if data.MinClaim < 0 {
		return dErrors.New(dErrors.CodeValidation, "minimum claim amount must not be negative")
	}

	config := &models.Config{
		InstanceID:    instanceID,
		Owner:         owner,
		Token:         data.Token,
		ClaimCooldown: data.Cooldown,
		MinClaim:      data.MinClaim,
		State:         models.StateInitialized,
		InitializedAt: requestcontext.Now(ctx),
	}
	if err := s.store.CreateConfig(ctx, config); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return vesting.ErrAlreadyInitialized
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize vesting instance")
	}

	audit.LogAudit(ctx, s.logger, s.auditPublisher, paudit.EventVestingInitialized,
		"actor", owner.String(),
		"instance_id", instanceID.String(),
		"owner", owner.String(),
		"token", data.Token.String(),
		"cooldown_seconds", int64(data.Cooldown/time.Second),
		"min_claim_amount", data.MinClaim,
	)
	if s.metrics != nil {
		s.metrics.InitializedTotal.Inc()
	}
	return nil
}

// StartVesting seeds every beneficiary schedule in one atomic batch and flips
// the started latch. The instance account must already hold at least the sum
// of the totals; this call only seeds accounting, it moves no funds.
func (s *Service) StartVesting(ctx context.Context, instanceID id.InstanceID, caller id.AccountID, data vesting.VestingData) (*models.Config, error) {
	config, err := s.store.FindConfig(ctx, instanceID)
	if err != nil {
		return nil, translateConfigErr(err)
	}
	if !config.IsOwner(caller) {
		return nil, vesting.ErrNotOwner
	}
	if err := config.CanStartVesting(); err != nil {
		return nil, err
	}
	if err := data.ValidateShape(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	schedules := make([]models.Schedule, len(data.Beneficiaries))
	seen := make(map[id.AccountID]struct{}, len(data.Beneficiaries))
	var sum int64
	for i := range data.Beneficiaries {
		schedules[i] = models.Schedule{
			InstanceID:  instanceID,
			Beneficiary: data.Beneficiaries[i],
			Total:       data.TotalAmounts[i],
			Start:       data.StartTimes[i],
			Cliff:       data.Cliffs[i],
			Duration:    data.Durations[i],
		}
		if err := schedules[i].ValidateSeed(now); err != nil {
			return nil, fmt.Errorf("schedule %d: %w", i, err)
		}
		if _, dup := seen[data.Beneficiaries[i]]; dup {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("schedule %d: duplicate beneficiary", i))
		}
		seen[data.Beneficiaries[i]] = struct{}{}
		if sum > math.MaxInt64-schedules[i].Total {
			return nil, dErrors.New(dErrors.CodeValidation, "schedule totals overflow")
		}
		sum += schedules[i].Total
	}

	balance, err := s.ledger.Balance(ctx, config.Token, instanceID.Account())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read instance balance")
	}
	if balance < sum {
		return nil, vesting.ErrInsufficientDeposit
	}

	// The latch is re-checked inside the seeding unit so a concurrent start
	// cannot slip between the read above and the writes.
	updated, err := s.store.Seed(ctx, instanceID,
		func(c *models.Config) error {
			if !c.IsOwner(caller) {
				return vesting.ErrNotOwner
			}
			return c.CanStartVesting()
		},
		func(c *models.Config) { c.ApplyStart(now) },
		schedules)
	if err != nil {
		return nil, translateConfigErr(err)
	}

	audit.LogAudit(ctx, s.logger, s.auditPublisher, paudit.EventVestingStarted,
		"actor", caller.String(),
		"instance_id", instanceID.String(),
		"token", config.Token.String(),
		"beneficiary_count", len(schedules),
		"total_amount", sum,
	)
	for i := range schedules {
		audit.LogAudit(ctx, s.logger, s.auditPublisher, paudit.EventVestingBeneficiaryAdded,
			"actor", caller.String(),
			"instance_id", instanceID.String(),
			"beneficiary", schedules[i].Beneficiary.String(),
			"total_amount", schedules[i].Total,
			"start_time", schedules[i].Start.Unix(),
			"cliff_seconds", int64(schedules[i].Cliff/time.Second),
			"duration_seconds", int64(schedules[i].Duration/time.Second),
		)
	}
	if s.metrics != nil {
		s.metrics.StartedTotal.Inc()
		s.metrics.BeneficiariesSeeded.Add(float64(len(schedules)))
	}
	return updated, nil
}

// ClaimableAmount reports what the beneficiary could claim at the request
// time. Unknown instances and unknown beneficiaries read as zero; only
// infrastructure failures surface as errors.
func (s *Service) ClaimableAmount(ctx context.Context, instanceID id.InstanceID, beneficiary id.AccountID) (int64, error) {
	schedule, err := s.store.FindSchedule(ctx, instanceID, beneficiary)
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read vesting schedule")
	}
	if !schedule.IsBeneficiary() {
		return 0, nil
	}
	return schedule.ClaimableAmount(requestcontext.Now(ctx)), nil
}

// Claim pays out everything currently claimable to the calling beneficiary.
// Claim progress is committed before the transfer so a reentrant call sees
// post-claim state; a failed transfer rolls the progress back and surfaces
// as ErrTransferFailed.
func (s *Service) Claim(ctx context.Context, instanceID id.InstanceID, caller id.AccountID) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "vesting.Claim", trace.WithAttributes(
		attribute.String("instance_id", instanceID.String()),
	))
	defer span.End()

	config, err := s.store.FindConfig(ctx, instanceID)
	if err != nil {
		return 0, translateConfigErr(err)
	}

	balance, err := s.ledger.Balance(ctx, config.Token, instanceID.Account())
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read instance balance")
	}

	now := requestcontext.Now(ctx)
	var claimAmount int64
	var previousLastClaim time.Time
	_, err = s.store.ExecuteSchedule(ctx, instanceID, caller,
		func(schedule *models.Schedule) error {
			if !schedule.IsBeneficiary() {
				return vesting.ErrNotBeneficiary
			}
			if config.State != models.StateVestingStarted {
				return vesting.ErrVestingNotStarted
			}
			if !schedule.CliffPassed(now) {
				return vesting.ErrCliffNotReached
			}
			claimable := schedule.ClaimableAmount(now)
			if err := gate.Check(now, schedule.LastClaim, config.ClaimCooldown, claimable, config.MinClaim); err != nil {
				return err
			}
			if claimable == 0 {
				return vesting.ErrNothingToClaim
			}
			if balance < claimable {
				return vesting.ErrInsufficientBalance
			}
			claimAmount = claimable
			previousLastClaim = schedule.LastClaim
			return nil
		},
		func(schedule *models.Schedule) { schedule.ApplyClaim(claimAmount, now) })
	if err != nil {
		return 0, translateScheduleErr(err)
	}

	if err := s.ledger.Transfer(ctx, config.Token, instanceID.Account(), caller, claimAmount); err != nil {
		s.rollbackClaim(ctx, instanceID, caller, claimAmount, previousLastClaim)
		return 0, fmt.Errorf("%w: %w", vesting.ErrTransferFailed, err)
	}

	audit.LogAudit(ctx, s.logger, s.auditPublisher, paudit.EventVestingClaimed,
		"actor", caller.String(),
		"instance_id", instanceID.String(),
		"beneficiary", caller.String(),
		"token", config.Token.String(),
		"amount", claimAmount,
	)
	if s.metrics != nil {
		s.metrics.ClaimsTotal.Inc()
		s.metrics.ClaimedAmountTotal.Add(float64(claimAmount))
	}
	return claimAmount, nil
}

// rollbackClaim undoes the committed claim progress after a failed transfer.
func (s *Service) rollbackClaim(ctx context.Context, instanceID id.InstanceID, beneficiary id.AccountID, amount int64, previousLastClaim time.Time) {
	_, err := s.store.ExecuteSchedule(ctx, instanceID, beneficiary,
		func(schedule *models.Schedule) error { return nil },
		func(schedule *models.Schedule) { schedule.RevertClaim(amount, previousLastClaim) })
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to roll back claim after transfer failure",
			"instance_id", instanceID.String(),
			"beneficiary", beneficiary.String(),
			"amount", amount,
			"error", err,
		)
	}
	if s.metrics != nil {
		s.metrics.ClaimRollbacksTotal.Inc()
	}
}

// SetClaimParameters retunes the cooldown and minimum claim. Owner-only,
// valid in any state, effective for the next claim.
func (s *Service) SetClaimParameters(ctx context.Context, instanceID id.InstanceID, caller id.AccountID, cooldown time.Duration, minClaim int64) (*models.Config, error) {
	if cooldown < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "claim cooldown must not be negative")
	}
	if minClaim < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "minimum claim amount must not be negative")
	}

	var previousCooldown time.Duration
	var previousMinClaim int64
	updated, err := s.store.ExecuteConfig(ctx, instanceID,
		func(config *models.Config) error {
			if !config.IsOwner(caller) {
				return vesting.ErrNotOwner
			}
			previousCooldown = config.ClaimCooldown
			previousMinClaim = config.MinClaim
			return nil
		},
		func(config *models.Config) { config.ApplyClaimParameters(cooldown, minClaim) })
	if err != nil {
		return nil, translateConfigErr(err)
	}

	audit.LogAudit(ctx, s.logger, s.auditPublisher, paudit.EventVestingParametersUpdated,
		"actor", caller.String(),
		"instance_id", instanceID.String(),
		"previous_cooldown_seconds", int64(previousCooldown/time.Second),
		"new_cooldown_seconds", int64(cooldown/time.Second),
		"previous_min_claim", previousMinClaim,
		"new_min_claim", minClaim,
	)
	if s.metrics != nil {
		s.metrics.ParameterUpdatesTotal.Inc()
	}
	return updated, nil
}

// translateConfigErr maps store failures on the config path. Coded errors
// pass through so validate closures keep their specific kinds.
func translateConfigErr(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return vesting.ErrNotInitialized
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "vesting store operation failed")
}

// translateScheduleErr maps store failures on the schedule path. A missing
// schedule row and a zero total are the same condition: not a beneficiary.
func translateScheduleErr(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return vesting.ErrNotBeneficiary
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "vesting store operation failed")
}
