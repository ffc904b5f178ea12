// Package memory provides the in-memory audit store used in tests and when
// Postgres is not configured.
package memory

import (
	"context"
	"sync"

	paudit "foundry/pkg/platform/audit"
)

// Store keeps events in append order under a mutex.
type Store struct {
	mu     sync.RWMutex
	events []paudit.Event
}

// New creates an empty in-memory audit store.
func New() *Store {
	return &Store{}
}

// Append adds one event to the trail.
func (s *Store) Append(_ context.Context, event paudit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListRecent returns up to limit events, most recent first.
func (s *Store) ListRecent(_ context.Context, limit int) ([]paudit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}

	out := make([]paudit.Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

// ListBySubject returns every event for the subject, most recent first.
func (s *Store) ListBySubject(_ context.Context, subject string) ([]paudit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []paudit.Event
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Subject == subject {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

// Clear removes all events. Test helper.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
