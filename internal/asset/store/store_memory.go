package store

import (
	"context"
	"fmt"
	"math"
	"sync"

	"foundry/internal/asset/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/sentinel"
)

// accountKey scopes a balance to one token.
type accountKey struct {
	token   id.TokenID
	account id.AccountID
}

// InMemoryLedgerStore keeps balances in a mutex-guarded map. Suitable for
// tests and single-process deployments; Postgres is the durable option.
type InMemoryLedgerStore struct {
	mu       sync.RWMutex
	balances map[accountKey]int64
}

// NewInMemoryLedgerStore creates an empty in-memory ledger store.
func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{
		balances: make(map[accountKey]int64),
	}
}

// Apply commits the movements atomically, in order. The batch is first
// replayed against a scratch copy of the touched balances; only when every
// movement clears does the scratch state replace the committed one, so a
// failing batch leaves no trace.
func (s *InMemoryLedgerStore) Apply(ctx context.Context, movements ...models.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	for _, m := range movements {
		if err := m.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scratch := make(map[accountKey]int64, len(movements)*2)
	read := func(key accountKey) int64 {
		if v, ok := scratch[key]; ok {
			return v
		}
		return s.balances[key]
	}

	for _, m := range movements {
		if !m.Issuance() {
			from := accountKey{token: m.Token, account: m.From}
			balance := read(from)
			if balance < m.Amount {
				return fmt.Errorf("debit %d of token %s from account %s (balance %d): %w",
					m.Amount, m.Token, m.From, balance, sentinel.ErrInsufficientFunds)
			}
			scratch[from] = balance - m.Amount
		}
		to := accountKey{token: m.Token, account: m.To}
		balance := read(to)
		if balance > math.MaxInt64-m.Amount {
			return fmt.Errorf("credit %d of token %s to account %s (balance %d) overflows: %w",
				m.Amount, m.Token, m.To, balance, sentinel.ErrConflict)
		}
		scratch[to] = balance + m.Amount
	}

	for key, balance := range scratch {
		s.balances[key] = balance
	}
	return nil
}

// Balance reports the committed balance; accounts never touched read zero.
func (s *InMemoryLedgerStore) Balance(ctx context.Context, token id.TokenID, account id.AccountID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[accountKey{token: token, account: account}], nil
}
