package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"foundry/internal/vesting/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/sentinel"
	"foundry/pkg/platform/tx"
)

// PostgresStore persists vesting configs and schedules in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed vesting store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the vesting tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS vesting_configs (
    instance_id            UUID PRIMARY KEY,
    owner_account          UUID        NOT NULL,
    token                  UUID        NOT NULL,
    claim_cooldown_seconds BIGINT      NOT NULL CHECK (claim_cooldown_seconds >= 0),
    min_claim_amount       BIGINT      NOT NULL CHECK (min_claim_amount >= 0),
    state                  INT         NOT NULL,
    initialized_at         TIMESTAMPTZ NOT NULL,
    started_at             TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS vesting_schedules (
    instance_id      UUID   NOT NULL,
    beneficiary      UUID   NOT NULL,
    total_amount     BIGINT NOT NULL CHECK (total_amount > 0),
    start_time       TIMESTAMPTZ NOT NULL,
    cliff_seconds    BIGINT NOT NULL CHECK (cliff_seconds >= 0),
    duration_seconds BIGINT NOT NULL CHECK (duration_seconds > 0),
    claimed          BIGINT NOT NULL DEFAULT 0 CHECK (claimed >= 0 AND claimed <= total_amount),
    last_claim_time  TIMESTAMPTZ,
    PRIMARY KEY (instance_id, beneficiary)
)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure vesting schema: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so reads can join an
// ambient transaction when one is in the context.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if dbTx, ok := tx.From(ctx); ok {
		return dbTx
	}
	return s.db
}

// nullableTime maps zero times to NULL.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// CreateConfig inserts a new config row; a duplicate instance id returns
// sentinel.ErrConflict, which is how initialize-once is enforced.
func (s *PostgresStore) CreateConfig(ctx context.Context, config *models.Config) error {
	_, err := s.q(ctx).ExecContext(ctx, `
INSERT INTO vesting_configs
    (instance_id, owner_account, token, claim_cooldown_seconds, min_claim_amount, state, initialized_at, started_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		config.InstanceID.String(), config.Owner.String(), config.Token.String(),
		int64(config.ClaimCooldown/time.Second), config.MinClaim, int(config.State),
		config.InitializedAt, nullableTime(config.StartedAt))
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create vesting config: %w", err)
	}
	return nil
}

// FindConfig returns the instance's config or sentinel.ErrNotFound.
func (s *PostgresStore) FindConfig(ctx context.Context, instanceID id.InstanceID) (*models.Config, error) {
	return s.findConfig(ctx, s.q(ctx), instanceID, false)
}

func (s *PostgresStore) findConfig(ctx context.Context, q querier, instanceID id.InstanceID, forUpdate bool) (*models.Config, error) {
	query := `
SELECT owner_account, token, claim_cooldown_seconds, min_claim_amount, state, initialized_at, started_at
FROM vesting_configs WHERE instance_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		owner, token    string
		cooldownSeconds int64
		state           int
		startedAt       sql.NullTime
	)
	config := models.Config{InstanceID: instanceID}
	err := q.QueryRowContext(ctx, query, instanceID.String()).
		Scan(&owner, &token, &cooldownSeconds, &config.MinClaim, &state, &config.InitializedAt, &startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find vesting config: %w", err)
	}

	if config.Owner, err = id.ParseAccountID(owner); err != nil {
		return nil, fmt.Errorf("parse vesting config owner: %w", err)
	}
	if config.Token, err = id.ParseTokenID(token); err != nil {
		return nil, fmt.Errorf("parse vesting config token: %w", err)
	}
	config.ClaimCooldown = time.Duration(cooldownSeconds) * time.Second
	config.State = models.State(state)
	if startedAt.Valid {
		config.StartedAt = startedAt.Time
	}
	return &config, nil
}

func (s *PostgresStore) updateConfig(ctx context.Context, q querier, config *models.Config) error {
	_, err := q.ExecContext(ctx, `
UPDATE vesting_configs
SET claim_cooldown_seconds = $2, min_claim_amount = $3, state = $4, started_at = $5
WHERE instance_id = $1`,
		config.InstanceID.String(), int64(config.ClaimCooldown/time.Second),
		config.MinClaim, int(config.State), nullableTime(config.StartedAt))
	if err != nil {
		return fmt.Errorf("update vesting config: %w", err)
	}
	return nil
}

// ExecuteConfig runs a validate-then-apply mutation with the config row
// locked FOR UPDATE.
func (s *PostgresStore) ExecuteConfig(ctx context.Context, instanceID id.InstanceID, validate func(*models.Config) error, apply func(*models.Config)) (*models.Config, error) {
	var config *models.Config
	err := s.inTx(ctx, func(dbTx *sql.Tx) error {
		var err error
		config, err = s.findConfig(ctx, dbTx, instanceID, true)
		if err != nil {
			return err
		}
		if err := validate(config); err != nil {
			return err
		}
		apply(config)
		return s.updateConfig(ctx, dbTx, config)
	})
	if err != nil {
		return nil, err
	}
	return config, nil
}

// Seed atomically re-validates the config under a row lock, inserts the
// whole schedule batch, and applies the latch flip. Any failure rolls the
// whole batch back.
func (s *PostgresStore) Seed(ctx context.Context, instanceID id.InstanceID, validate func(*models.Config) error, apply func(*models.Config), schedules []models.Schedule) (*models.Config, error) {
	var config *models.Config
	err := s.inTx(ctx, func(dbTx *sql.Tx) error {
		var err error
		config, err = s.findConfig(ctx, dbTx, instanceID, true)
		if err != nil {
			return err
		}
		if err := validate(config); err != nil {
			return err
		}
		for i := range schedules {
			if err := s.insertSchedule(ctx, dbTx, &schedules[i]); err != nil {
				return err
			}
		}
		apply(config)
		return s.updateConfig(ctx, dbTx, config)
	})
	if err != nil {
		return nil, err
	}
	return config, nil
}

func (s *PostgresStore) insertSchedule(ctx context.Context, q querier, schedule *models.Schedule) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO vesting_schedules
    (instance_id, beneficiary, total_amount, start_time, cliff_seconds, duration_seconds, claimed, last_claim_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		schedule.InstanceID.String(), schedule.Beneficiary.String(), schedule.Total,
		schedule.Start, int64(schedule.Cliff/time.Second), int64(schedule.Duration/time.Second),
		schedule.Claimed, nullableTime(schedule.LastClaim))
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert vesting schedule: %w", err)
	}
	return nil
}

// FindSchedule returns one beneficiary's schedule or sentinel.ErrNotFound.
func (s *PostgresStore) FindSchedule(ctx context.Context, instanceID id.InstanceID, beneficiary id.AccountID) (*models.Schedule, error) {
	return s.findSchedule(ctx, s.q(ctx), instanceID, beneficiary, false)
}

func (s *PostgresStore) findSchedule(ctx context.Context, q querier, instanceID id.InstanceID, beneficiary id.AccountID, forUpdate bool) (*models.Schedule, error) {
	query := `
SELECT total_amount, start_time, cliff_seconds, duration_seconds, claimed, last_claim_time
FROM vesting_schedules WHERE instance_id = $1 AND beneficiary = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		cliffSeconds, durationSeconds int64
		lastClaim                     sql.NullTime
	)
	schedule := models.Schedule{InstanceID: instanceID, Beneficiary: beneficiary}
	err := q.QueryRowContext(ctx, query, instanceID.String(), beneficiary.String()).
		Scan(&schedule.Total, &schedule.Start, &cliffSeconds, &durationSeconds, &schedule.Claimed, &lastClaim)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find vesting schedule: %w", err)
	}

	schedule.Cliff = time.Duration(cliffSeconds) * time.Second
	schedule.Duration = time.Duration(durationSeconds) * time.Second
	if lastClaim.Valid {
		schedule.LastClaim = lastClaim.Time
	}
	return &schedule, nil
}

// ExecuteSchedule runs a validate-then-apply mutation with the schedule row
// locked FOR UPDATE, so concurrent claims by one beneficiary serialize.
func (s *PostgresStore) ExecuteSchedule(ctx context.Context, instanceID id.InstanceID, beneficiary id.AccountID, validate func(*models.Schedule) error, apply func(*models.Schedule)) (*models.Schedule, error) {
	var schedule *models.Schedule
	err := s.inTx(ctx, func(dbTx *sql.Tx) error {
		var err error
		schedule, err = s.findSchedule(ctx, dbTx, instanceID, beneficiary, true)
		if err != nil {
			return err
		}
		if err := validate(schedule); err != nil {
			return err
		}
		apply(schedule)

		_, err = dbTx.ExecContext(ctx, `
UPDATE vesting_schedules
SET claimed = $3, last_claim_time = $4
WHERE instance_id = $1 AND beneficiary = $2`,
			instanceID.String(), beneficiary.String(), schedule.Claimed, nullableTime(schedule.LastClaim))
		if err != nil {
			return fmt.Errorf("update vesting schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// inTx runs fn inside the ambient transaction when the context carries one,
// otherwise inside a transaction of its own.
func (s *PostgresStore) inTx(ctx context.Context, fn func(dbTx *sql.Tx) error) error {
	if dbTx, ok := tx.From(ctx); ok {
		return fn(dbTx)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vesting update: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	if err := fn(dbTx); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit vesting update: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a primary-key or unique-index
// conflict.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
