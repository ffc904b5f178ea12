// Package postgres persists the audit trail.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	paudit "foundry/pkg/platform/audit"
)

// Store writes audit events to the audit_events table.
type Store struct {
	db *sql.DB
}

// New creates a Postgres audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the audit_events table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS audit_events (
			id         UUID PRIMARY KEY,
			name       TEXT NOT NULL,
			category   TEXT NOT NULL,
			actor      TEXT NOT NULL DEFAULT '',
			subject    TEXT NOT NULL DEFAULT '',
			request_id TEXT NOT NULL DEFAULT '',
			metadata   JSONB,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS audit_events_subject_idx ON audit_events (subject, created_at DESC);
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Append inserts one event. Idempotent on the event ID so a replayed event
// does not duplicate the trail.
func (s *Store) Append(ctx context.Context, event paudit.Event) error {
	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	const query = `
		INSERT INTO audit_events (id, name, category, actor, subject, request_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Name),
		string(event.Category),
		event.Actor,
		event.Subject,
		event.RequestID,
		metadata,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events, most recent first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]paudit.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, name, category, actor, subject, request_id, metadata, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListBySubject returns every event for the subject, most recent first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]paudit.Event, error) {
	const query = `
		SELECT id, name, category, actor, subject, request_id, metadata, created_at
		FROM audit_events
		WHERE subject = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]paudit.Event, error) {
	var events []paudit.Event

	for rows.Next() {
		var (
			event    paudit.Event
			eventID  uuid.UUID
			name     string
			category string
			metadata []byte
		)
		if err := rows.Scan(
			&eventID,
			&name,
			&category,
			&event.Actor,
			&event.Subject,
			&event.RequestID,
			&metadata,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.ID = eventID
		event.Name = paudit.EventName(name)
		event.Category = paudit.EventCategory(category)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
