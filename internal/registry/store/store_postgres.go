package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foundry/internal/blueprint"
	"foundry/internal/registry/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/sentinel"
	"foundry/pkg/platform/tx"
)

// PostgresStore persists catalog entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed catalog store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the catalog table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS blueprint_entries (
    id            UUID PRIMARY KEY,
    kind          TEXT        NOT NULL,
    fee           BIGINT      NOT NULL CHECK (fee >= 0),
    active        BOOLEAN     NOT NULL,
    registered_at TIMESTAMPTZ NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure blueprint schema: %w", err)
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

// Put writes the entry, overwriting any previous registration.
func (s *PostgresStore) Put(ctx context.Context, entry *models.Entry) error {
	_, err := s.q(ctx).ExecContext(ctx, `
INSERT INTO blueprint_entries (id, kind, fee, active, registered_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET kind = EXCLUDED.kind,
    fee = EXCLUDED.fee,
    active = EXCLUDED.active,
    registered_at = EXCLUDED.registered_at`,
		entry.ID.String(), string(entry.Kind), entry.Fee, entry.Active, entry.RegisteredAt)
	if err != nil {
		return fmt.Errorf("put blueprint entry: %w", err)
	}
	return nil
}

// Find returns the entry or sentinel.ErrNotFound.
func (s *PostgresStore) Find(ctx context.Context, blueprintID id.BlueprintID) (*models.Entry, error) {
	return s.find(ctx, s.q(ctx), blueprintID, false)
}

func (s *PostgresStore) find(ctx context.Context, q querier, blueprintID id.BlueprintID, forUpdate bool) (*models.Entry, error) {
	query := `SELECT kind, fee, active, registered_at FROM blueprint_entries WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	entry := models.Entry{ID: blueprintID}
	var kind string
	err := q.QueryRowContext(ctx, query, blueprintID.String()).
		Scan(&kind, &entry.Fee, &entry.Active, &entry.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find blueprint entry: %w", err)
	}
	entry.Kind = blueprint.Kind(kind)
	return &entry, nil
}

// Execute runs a validate-then-apply mutation with the row locked FOR
// UPDATE. It joins an ambient transaction when the context carries one,
// otherwise it owns its own.
func (s *PostgresStore) Execute(ctx context.Context, blueprintID id.BlueprintID, validate func(*models.Entry) error, apply func(*models.Entry)) (*models.Entry, error) {
	if dbTx, ok := tx.From(ctx); ok {
		return s.executeIn(ctx, dbTx, blueprintID, validate, apply)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin blueprint update: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	entry, err := s.executeIn(ctx, dbTx, blueprintID, validate, apply)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit blueprint update: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) executeIn(ctx context.Context, dbTx *sql.Tx, blueprintID id.BlueprintID, validate func(*models.Entry) error, apply func(*models.Entry)) (*models.Entry, error) {
	entry, err := s.find(ctx, dbTx, blueprintID, true)
	if err != nil {
		return nil, err
	}
	if err := validate(entry); err != nil {
		return nil, err
	}
	apply(entry)

	_, err = dbTx.ExecContext(ctx, `
UPDATE blueprint_entries
SET kind = $2, fee = $3, active = $4, registered_at = $5
WHERE id = $1`,
		entry.ID.String(), string(entry.Kind), entry.Fee, entry.Active, entry.RegisteredAt)
	if err != nil {
		return nil, fmt.Errorf("update blueprint entry: %w", err)
	}
	return entry, nil
}
