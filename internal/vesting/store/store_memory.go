package store

import (
	"context"
	"sync"

	"foundry/internal/vesting/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/sentinel"
)

// scheduleKey addresses one beneficiary's schedule within one instance.
type scheduleKey struct {
	instance    id.InstanceID
	beneficiary id.AccountID
}

// InMemoryStore keeps vesting configs and schedules in mutex-guarded maps.
// One mutex covers both, so seeding (config latch + schedule rows) is
// naturally atomic.
type InMemoryStore struct {
	mu        sync.Mutex
	configs   map[id.InstanceID]models.Config
	schedules map[scheduleKey]models.Schedule
}

// NewInMemoryStore creates an empty in-memory vesting store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		configs:   make(map[id.InstanceID]models.Config),
		schedules: make(map[scheduleKey]models.Schedule),
	}
}

// CreateConfig writes a new config. A second create for the same instance
// returns sentinel.ErrConflict, which is how initialize-once is enforced.
func (s *InMemoryStore) CreateConfig(ctx context.Context, config *models.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.configs[config.InstanceID]; exists {
		return sentinel.ErrConflict
	}
	s.configs[config.InstanceID] = *config
	return nil
}

// FindConfig returns a copy of the instance's config or sentinel.ErrNotFound.
func (s *InMemoryStore) FindConfig(ctx context.Context, instanceID id.InstanceID) (*models.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	config, ok := s.configs[instanceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &config, nil
}

// ExecuteConfig runs a validate-then-apply mutation on the config while
// holding the store lock.
func (s *InMemoryStore) ExecuteConfig(ctx context.Context, instanceID id.InstanceID, validate func(*models.Config) error, apply func(*models.Config)) (*models.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config, ok := s.configs[instanceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(&config); err != nil {
		return nil, err
	}
	apply(&config)
	s.configs[instanceID] = config

	result := config
	return &result, nil
}

// Seed atomically re-validates the config, writes the whole schedule batch,
// and applies the latch flip. Nothing is written if any step fails.
func (s *InMemoryStore) Seed(ctx context.Context, instanceID id.InstanceID, validate func(*models.Config) error, apply func(*models.Config), schedules []models.Schedule) (*models.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config, ok := s.configs[instanceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(&config); err != nil {
		return nil, err
	}
	for _, schedule := range schedules {
		key := scheduleKey{instance: instanceID, beneficiary: schedule.Beneficiary}
		if _, exists := s.schedules[key]; exists {
			return nil, sentinel.ErrConflict
		}
	}

	for _, schedule := range schedules {
		s.schedules[scheduleKey{instance: instanceID, beneficiary: schedule.Beneficiary}] = schedule
	}
	apply(&config)
	s.configs[instanceID] = config

	result := config
	return &result, nil
}

// FindSchedule returns a copy of one beneficiary's schedule or
// sentinel.ErrNotFound.
func (s *InMemoryStore) FindSchedule(ctx context.Context, instanceID id.InstanceID, beneficiary id.AccountID) (*models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule, ok := s.schedules[scheduleKey{instance: instanceID, beneficiary: beneficiary}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &schedule, nil
}

// ExecuteSchedule runs a validate-then-apply mutation on one schedule while
// holding the store lock, so claim progress cannot interleave.
func (s *InMemoryStore) ExecuteSchedule(ctx context.Context, instanceID id.InstanceID, beneficiary id.AccountID, validate func(*models.Schedule) error, apply func(*models.Schedule)) (*models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scheduleKey{instance: instanceID, beneficiary: beneficiary}
	schedule, ok := s.schedules[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(&schedule); err != nil {
		return nil, err
	}
	apply(&schedule)
	s.schedules[key] = schedule

	result := schedule
	return &result, nil
}
