package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"foundry/internal/blueprint"
	"foundry/internal/factory/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/sentinel"
	"foundry/pkg/platform/tx"
)

// PostgresStore persists instances and deployment records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed factory store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the factory tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS factory_instances (
    instance_id  UUID PRIMARY KEY,
    blueprint_id UUID        NOT NULL,
    kind         TEXT        NOT NULL,
    deployer     UUID        NOT NULL,
    fee_paid     BIGINT      NOT NULL CHECK (fee_paid >= 0),
    seq          BIGINT      NOT NULL CHECK (seq > 0),
    created_at   TIMESTAMPTZ NOT NULL,
    UNIQUE (deployer, seq)
);
CREATE INDEX IF NOT EXISTS factory_instances_deployer_idx
    ON factory_instances (deployer, seq)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure factory schema: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so reads can join an
// ambient transaction when one is in the context.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if dbTx, ok := tx.From(ctx); ok {
		return dbTx
	}
	return s.db
}

// CreateDeployment inserts the instance row with the next per-deployer
// sequence number. An advisory lock on the deployer serializes concurrent
// deploys so the MAX(seq)+1 read cannot race; the UNIQUE constraint backs
// it up.
func (s *PostgresStore) CreateDeployment(ctx context.Context, instance *models.Instance) (*models.Instance, error) {
	var created *models.Instance
	err := s.inTx(ctx, func(dbTx *sql.Tx) error {
		if _, err := dbTx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1))`, instance.Deployer.String()); err != nil {
			return fmt.Errorf("lock deployment record: %w", err)
		}

		row := *instance
		err := dbTx.QueryRowContext(ctx, `
INSERT INTO factory_instances (instance_id, blueprint_id, kind, deployer, fee_paid, seq, created_at)
SELECT $1, $2, $3, $4, $5, COALESCE(MAX(seq), 0) + 1, $6
FROM factory_instances WHERE deployer = $4
RETURNING seq`,
			row.ID.String(), row.BlueprintID.String(), row.Kind.String(),
			row.Deployer.String(), row.FeePaid, row.CreatedAt).
			Scan(&row.Seq)
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("insert deployment: %w", err)
		}
		created = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindInstance returns the instance row or sentinel.ErrNotFound.
func (s *PostgresStore) FindInstance(ctx context.Context, instanceID id.InstanceID) (*models.Instance, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
SELECT blueprint_id, kind, deployer, fee_paid, seq, created_at
FROM factory_instances WHERE instance_id = $1`, instanceID.String())

	instance := models.Instance{ID: instanceID}
	var blueprintID, kind, deployer string
	err := row.Scan(&blueprintID, &kind, &deployer, &instance.FeePaid, &instance.Seq, &instance.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find instance: %w", err)
	}
	if instance.BlueprintID, err = id.ParseBlueprintID(blueprintID); err != nil {
		return nil, fmt.Errorf("parse instance blueprint id: %w", err)
	}
	if instance.Deployer, err = id.ParseAccountID(deployer); err != nil {
		return nil, fmt.Errorf("parse instance deployer: %w", err)
	}
	instance.Kind = blueprint.Kind(kind)
	return &instance, nil
}

// ListByDeployer returns the deployer's record in append order.
func (s *PostgresStore) ListByDeployer(ctx context.Context, deployer id.AccountID) ([]models.Instance, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT instance_id, blueprint_id, kind, fee_paid, seq, created_at
FROM factory_instances WHERE deployer = $1
ORDER BY seq`, deployer.String())
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Instance, 0)
	for rows.Next() {
		instance := models.Instance{Deployer: deployer}
		var instanceID, blueprintID, kind string
		if err := rows.Scan(&instanceID, &blueprintID, &kind, &instance.FeePaid, &instance.Seq, &instance.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deployment: %w", err)
		}
		if instance.ID, err = id.ParseInstanceID(instanceID); err != nil {
			return nil, fmt.Errorf("parse instance id: %w", err)
		}
		if instance.BlueprintID, err = id.ParseBlueprintID(blueprintID); err != nil {
			return nil, fmt.Errorf("parse instance blueprint id: %w", err)
		}
		instance.Kind = blueprint.Kind(kind)
		out = append(out, instance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	return out, nil
}

// inTx runs fn inside the ambient transaction when the context carries one,
// otherwise inside a transaction of its own.
func (s *PostgresStore) inTx(ctx context.Context, fn func(dbTx *sql.Tx) error) error {
	if dbTx, ok := tx.From(ctx); ok {
		return fn(dbTx)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin deployment insert: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	if err := fn(dbTx); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit deployment insert: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a primary-key or unique-index
// conflict.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
