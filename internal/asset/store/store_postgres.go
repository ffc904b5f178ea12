package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"foundry/internal/asset/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/sentinel"
)

// PostgresLedgerStore persists balances in PostgreSQL. Apply runs in one
// transaction with explicit row locks so concurrent batches against the same
// accounts serialize instead of clobbering each other.
type PostgresLedgerStore struct {
	pool *pgxpool.Pool
}

// NewPostgresLedgerStore constructs a PostgreSQL-backed ledger store.
func NewPostgresLedgerStore(pool *pgxpool.Pool) *PostgresLedgerStore {
	return &PostgresLedgerStore{pool: pool}
}

// EnsureSchema creates the ledger table if it does not exist. Called once at
// startup; safe to call repeatedly.
func (s *PostgresLedgerStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ledger_balances (
    token      UUID        NOT NULL,
    account    UUID        NOT NULL,
    balance    BIGINT      NOT NULL DEFAULT 0 CHECK (balance >= 0),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (token, account)
)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

// Apply commits the movements atomically, in order. Every touched account
// row is locked FOR UPDATE in a deterministic order before any balance is
// read, so two overlapping applies cannot deadlock and cannot interleave.
func (s *PostgresLedgerStore) Apply(ctx context.Context, movements ...models.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	for _, m := range movements {
		if err := m.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger apply: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	keys := touchedAccounts(movements)

	// Missing rows cannot be locked, so materialize them first. Every key in
	// the batch is written below; a zero row for a failed batch never commits.
	for _, k := range keys {
		_, err := tx.Exec(ctx,
			`INSERT INTO ledger_balances (token, account) VALUES ($1, $2) ON CONFLICT (token, account) DO NOTHING`,
			k.token.String(), k.account.String())
		if err != nil {
			return fmt.Errorf("materialize ledger row: %w", err)
		}
	}

	balances := make(map[accountKey]int64, len(keys))
	for _, k := range keys {
		var balance int64
		err := tx.QueryRow(ctx,
			`SELECT balance FROM ledger_balances WHERE token = $1 AND account = $2 FOR UPDATE`,
			k.token.String(), k.account.String()).Scan(&balance)
		if err != nil {
			return fmt.Errorf("lock ledger row: %w", err)
		}
		balances[k] = balance
	}

	for _, m := range movements {
		if !m.Issuance() {
			from := accountKey{token: m.Token, account: m.From}
			if balances[from] < m.Amount {
				return fmt.Errorf("debit %d of token %s from account %s (balance %d): %w",
					m.Amount, m.Token, m.From, balances[from], sentinel.ErrInsufficientFunds)
			}
			balances[from] -= m.Amount
		}
		balances[accountKey{token: m.Token, account: m.To}] += m.Amount
	}

	for _, k := range keys {
		_, err := tx.Exec(ctx,
			`UPDATE ledger_balances SET balance = $3, updated_at = now() WHERE token = $1 AND account = $2`,
			k.token.String(), k.account.String(), balances[k])
		if err != nil {
			return fmt.Errorf("write ledger row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger apply: %w", err)
	}
	return nil
}

// Balance reports the committed balance; accounts never touched read zero.
func (s *PostgresLedgerStore) Balance(ctx context.Context, token id.TokenID, account id.AccountID) (int64, error) {
	var balance int64
	err := s.pool.QueryRow(ctx,
		`SELECT balance FROM ledger_balances WHERE token = $1 AND account = $2`,
		token.String(), account.String()).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read ledger balance: %w", err)
	}
	return balance, nil
}

// touchedAccounts returns the distinct account rows the batch reads or
// writes, sorted by (token, account) to fix the lock order.
func touchedAccounts(movements []models.Movement) []accountKey {
	seen := make(map[accountKey]struct{}, len(movements)*2)
	for _, m := range movements {
		if !m.Issuance() {
			seen[accountKey{token: m.Token, account: m.From}] = struct{}{}
		}
		seen[accountKey{token: m.Token, account: m.To}] = struct{}{}
	}
	keys := make([]accountKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].token != keys[j].token {
			return keys[i].token.String() < keys[j].token.String()
		}
		return keys[i].account.String() < keys[j].account.String()
	})
	return keys
}
