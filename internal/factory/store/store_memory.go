package store

import (
	"context"
	"sync"

	"foundry/internal/factory/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/sentinel"
)

// InMemoryStore keeps instances and per-deployer deployment records in
// mutex-guarded maps. One mutex covers both, so the instance row and the
// record append land together.
type InMemoryStore struct {
	mu        sync.Mutex
	instances map[id.InstanceID]models.Instance
	records   map[id.AccountID][]id.InstanceID
}

// NewInMemoryStore creates an empty in-memory factory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		instances: make(map[id.InstanceID]models.Instance),
		records:   make(map[id.AccountID][]id.InstanceID),
	}
}

// CreateDeployment writes the instance row and appends it to the deployer's
// record in one step, assigning the next per-deployer sequence number. A
// duplicate instance id returns sentinel.ErrConflict.
func (s *InMemoryStore) CreateDeployment(ctx context.Context, instance *models.Instance) (*models.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[instance.ID]; exists {
		return nil, sentinel.ErrConflict
	}

	row := *instance
	row.Seq = int64(len(s.records[instance.Deployer])) + 1
	s.instances[row.ID] = row
	s.records[row.Deployer] = append(s.records[row.Deployer], row.ID)

	result := row
	return &result, nil
}

// FindInstance returns a copy of the instance row or sentinel.ErrNotFound.
func (s *InMemoryStore) FindInstance(ctx context.Context, instanceID id.InstanceID) (*models.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.instances[instanceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &instance, nil
}

// ListByDeployer returns the deployer's record in append order. Deployers
// with no deployments get an empty slice, not an error.
func (s *InMemoryStore) ListByDeployer(ctx context.Context, deployer id.AccountID) ([]models.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.records[deployer]
	out := make([]models.Instance, 0, len(ids))
	for _, instanceID := range ids {
		out = append(out, s.instances[instanceID])
	}
	return out, nil
}
