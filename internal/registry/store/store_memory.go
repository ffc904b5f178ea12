package store

import (
	"context"
	"sync"

	"foundry/internal/registry/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/sentinel"
)

// InMemoryStore keeps catalog entries in a mutex-guarded map.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.BlueprintID]models.Entry
}

// NewInMemoryStore creates an empty in-memory catalog store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.BlueprintID]models.Entry)}
}

// Put writes the entry, overwriting any previous registration under the
// same id.
func (s *InMemoryStore) Put(ctx context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	return nil
}

// Find returns a copy of the entry or sentinel.ErrNotFound.
func (s *InMemoryStore) Find(ctx context.Context, blueprintID id.BlueprintID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[blueprintID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &entry, nil
}

// Execute runs a validate-then-apply mutation while holding the store lock,
// so no other operation can slide between the check and the write.
func (s *InMemoryStore) Execute(ctx context.Context, blueprintID id.BlueprintID, validate func(*models.Entry) error, apply func(*models.Entry)) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[blueprintID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(&entry); err != nil {
		return nil, err
	}
	apply(&entry)
	s.entries[blueprintID] = entry

	result := entry
	return &result, nil
}
