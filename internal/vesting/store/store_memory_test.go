package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"foundry/internal/vesting/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/sentinel"
)

type VestingStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestVestingStoreSuite(t *testing.T) {
	suite.Run(t, new(VestingStoreSuite))
}

func (s *VestingStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *VestingStoreSuite) newConfig() *models.Config {
	return &models.Config{
		InstanceID:    id.NewInstanceID(),
		Owner:         id.NewAccountID(),
		Token:         id.NewTokenID(),
		ClaimCooldown: time.Hour,
		MinClaim:      10,
		State:         models.StateInitialized,
		InitializedAt: time.Now().UTC(),
	}
}

func (s *VestingStoreSuite) newSchedule(instanceID id.InstanceID, total int64) models.Schedule {
	return models.Schedule{
		InstanceID:  instanceID,
		Beneficiary: id.NewAccountID(),
		Total:       total,
		Start:       time.Now().UTC(),
		Cliff:       time.Minute,
		Duration:    time.Hour,
	}
}

func (s *VestingStoreSuite) TestCreateAndFindConfig() {
	config := s.newConfig()
	s.Require().NoError(s.store.CreateConfig(s.ctx, config))

	found, err := s.store.FindConfig(s.ctx, config.InstanceID)
	s.Require().NoError(err)
	s.Require().Equal(config.Owner, found.Owner)
	s.Require().Equal(config.Token, found.Token)
	s.Require().Equal(models.StateInitialized, found.State)

	s.Run("returned config is a copy", func() {
		found.MinClaim = 999

		again, err := s.store.FindConfig(s.ctx, config.InstanceID)
		s.Require().NoError(err)
		s.Require().Equal(int64(10), again.MinClaim)
	})

	s.Run("second create conflicts", func() {
		err := s.store.CreateConfig(s.ctx, config)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *VestingStoreSuite) TestFindConfigUnknown() {
	_, err := s.store.FindConfig(s.ctx, id.NewInstanceID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *VestingStoreSuite) TestExecuteConfig() {
	config := s.newConfig()
	s.Require().NoError(s.store.CreateConfig(s.ctx, config))

	s.Run("applies the mutation", func() {
		updated, err := s.store.ExecuteConfig(s.ctx, config.InstanceID,
			func(c *models.Config) error { return nil },
			func(c *models.Config) { c.ApplyClaimParameters(2*time.Hour, 25) })
		s.Require().NoError(err)
		s.Require().Equal(2*time.Hour, updated.ClaimCooldown)
		s.Require().Equal(int64(25), updated.MinClaim)
	})

	s.Run("validation failure leaves the config untouched", func() {
		boom := errors.New("rejected")
		_, err := s.store.ExecuteConfig(s.ctx, config.InstanceID,
			func(c *models.Config) error { return boom },
			func(c *models.Config) { c.MinClaim = 12345 })
		s.Require().ErrorIs(err, boom)

		found, err := s.store.FindConfig(s.ctx, config.InstanceID)
		s.Require().NoError(err)
		s.Require().Equal(int64(25), found.MinClaim)
	})

	s.Run("unknown instance", func() {
		_, err := s.store.ExecuteConfig(s.ctx, id.NewInstanceID(),
			func(c *models.Config) error { return nil },
			func(c *models.Config) {})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *VestingStoreSuite) TestSeed() {
	config := s.newConfig()
	s.Require().NoError(s.store.CreateConfig(s.ctx, config))

	schedules := []models.Schedule{
		s.newSchedule(config.InstanceID, 1000),
		s.newSchedule(config.InstanceID, 500),
	}
	now := time.Now().UTC()

	updated, err := s.store.Seed(s.ctx, config.InstanceID,
		func(c *models.Config) error { return c.CanStartVesting() },
		func(c *models.Config) { c.ApplyStart(now) },
		schedules)
	s.Require().NoError(err)
	s.Require().Equal(models.StateVestingStarted, updated.State)
	s.Require().Equal(now, updated.StartedAt)

	for i := 0; i < len(schedules); i++ {
		found, err := s.store.FindSchedule(s.ctx, config.InstanceID, schedules[i].Beneficiary)
		s.Require().NoError(err)
		s.Require().Equal(schedules[i].Total, found.Total)
		s.Require().Zero(found.Claimed)
		s.Require().True(found.LastClaim.IsZero())
	}
}

func (s *VestingStoreSuite) TestSeedFailureWritesNothing() {
	config := s.newConfig()
	s.Require().NoError(s.store.CreateConfig(s.ctx, config))

	s.Run("validation failure", func() {
		schedule := s.newSchedule(config.InstanceID, 1000)
		boom := errors.New("rejected")

		_, err := s.store.Seed(s.ctx, config.InstanceID,
			func(c *models.Config) error { return boom },
			func(c *models.Config) { c.ApplyStart(time.Now()) },
			[]models.Schedule{schedule})
		s.Require().ErrorIs(err, boom)

		_, err = s.store.FindSchedule(s.ctx, config.InstanceID, schedule.Beneficiary)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		found, err := s.store.FindConfig(s.ctx, config.InstanceID)
		s.Require().NoError(err)
		s.Require().Equal(models.StateInitialized, found.State)
	})

	s.Run("duplicate beneficiary conflicts and writes nothing", func() {
		first := s.newSchedule(config.InstanceID, 100)
		fresh := s.newSchedule(config.InstanceID, 200)

		_, err := s.store.Seed(s.ctx, config.InstanceID,
			func(c *models.Config) error { return nil },
			func(c *models.Config) { c.ApplyStart(time.Now()) },
			[]models.Schedule{first, fresh, first})
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		_, err = s.store.FindSchedule(s.ctx, config.InstanceID, fresh.Beneficiary)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		found, err := s.store.FindConfig(s.ctx, config.InstanceID)
		s.Require().NoError(err)
		s.Require().Equal(models.StateInitialized, found.State)
	})

	s.Run("unknown instance", func() {
		_, err := s.store.Seed(s.ctx, id.NewInstanceID(),
			func(c *models.Config) error { return nil },
			func(c *models.Config) {},
			nil)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *VestingStoreSuite) TestFindScheduleUnknown() {
	config := s.newConfig()
	s.Require().NoError(s.store.CreateConfig(s.ctx, config))

	_, err := s.store.FindSchedule(s.ctx, config.InstanceID, id.NewAccountID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *VestingStoreSuite) TestExecuteSchedule() {
	config := s.newConfig()
	s.Require().NoError(s.store.CreateConfig(s.ctx, config))

	schedule := s.newSchedule(config.InstanceID, 1000)
	_, err := s.store.Seed(s.ctx, config.InstanceID,
		func(c *models.Config) error { return nil },
		func(c *models.Config) { c.ApplyStart(time.Now()) },
		[]models.Schedule{schedule})
	s.Require().NoError(err)

	claimTime := time.Now().UTC()

	s.Run("applies the claim", func() {
		updated, err := s.store.ExecuteSchedule(s.ctx, config.InstanceID, schedule.Beneficiary,
			func(sch *models.Schedule) error { return nil },
			func(sch *models.Schedule) { sch.ApplyClaim(300, claimTime) })
		s.Require().NoError(err)
		s.Require().Equal(int64(300), updated.Claimed)
		s.Require().Equal(claimTime, updated.LastClaim)
	})

	s.Run("validation failure leaves the schedule untouched", func() {
		boom := errors.New("rejected")
		_, err := s.store.ExecuteSchedule(s.ctx, config.InstanceID, schedule.Beneficiary,
			func(sch *models.Schedule) error { return boom },
			func(sch *models.Schedule) { sch.Claimed = 999 })
		s.Require().ErrorIs(err, boom)

		found, err := s.store.FindSchedule(s.ctx, config.InstanceID, schedule.Beneficiary)
		s.Require().NoError(err)
		s.Require().Equal(int64(300), found.Claimed)
	})

	s.Run("unknown beneficiary", func() {
		_, err := s.store.ExecuteSchedule(s.ctx, config.InstanceID, id.NewAccountID(),
			func(sch *models.Schedule) error { return nil },
			func(sch *models.Schedule) {})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *VestingStoreSuite) TestConcurrentExecuteSchedule() {
	config := s.newConfig()
	s.Require().NoError(s.store.CreateConfig(s.ctx, config))

	schedule := s.newSchedule(config.InstanceID, 1000)
	_, err := s.store.Seed(s.ctx, config.InstanceID,
		func(c *models.Config) error { return nil },
		func(c *models.Config) { c.ApplyStart(time.Now()) },
		[]models.Schedule{schedule})
	s.Require().NoError(err)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.store.ExecuteSchedule(s.ctx, config.InstanceID, schedule.Beneficiary,
				func(sch *models.Schedule) error { return nil },
				func(sch *models.Schedule) { sch.Claimed++ })
			s.Require().NoError(err)
		}()
	}
	wg.Wait()

	found, err := s.store.FindSchedule(s.ctx, config.InstanceID, schedule.Beneficiary)
	s.Require().NoError(err)
	s.Require().Equal(int64(workers), found.Claimed)
}
