package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"foundry/internal/blueprint"
	"foundry/internal/registry/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/sentinel"
)

type CatalogStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestCatalogStoreSuite(t *testing.T) {
	suite.Run(t, new(CatalogStoreSuite))
}

func (s *CatalogStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
}

func (s *CatalogStoreSuite) newEntry(fee int64, active bool) *models.Entry {
	return &models.Entry{
		ID:           id.NewBlueprintID(),
		Kind:         blueprint.KindVesting,
		Fee:          fee,
		Active:       active,
		RegisteredAt: time.Now().UTC(),
	}
}

func (s *CatalogStoreSuite) TestPutAndFind() {
	entry := s.newEntry(100, true)
	s.Require().NoError(s.store.Put(s.ctx, entry))

	found, err := s.store.Find(s.ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal(entry, found)

	s.Run("found entry is a copy", func() {
		found.Fee = 999
		again, err := s.store.Find(s.ctx, entry.ID)
		s.Require().NoError(err)
		s.Equal(int64(100), again.Fee)
	})
}

func (s *CatalogStoreSuite) TestFindUnknown() {
	_, err := s.store.Find(s.ctx, id.NewBlueprintID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CatalogStoreSuite) TestPutOverwrites() {
	entry := s.newEntry(100, true)
	s.Require().NoError(s.store.Put(s.ctx, entry))

	replacement := *entry
	replacement.Fee = 250
	replacement.Active = false
	replacement.RegisteredAt = entry.RegisteredAt.Add(time.Hour)
	s.Require().NoError(s.store.Put(s.ctx, &replacement))

	found, err := s.store.Find(s.ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal(int64(250), found.Fee)
	s.False(found.Active)
	s.Equal(replacement.RegisteredAt, found.RegisteredAt)
}

func (s *CatalogStoreSuite) TestExecute() {
	s.Run("applies the mutation", func() {
		entry := s.newEntry(100, true)
		s.Require().NoError(s.store.Put(s.ctx, entry))

		updated, err := s.store.Execute(s.ctx, entry.ID,
			func(e *models.Entry) error { return e.CanUpdate() },
			func(e *models.Entry) { e.ApplyFee(300) },
		)
		s.Require().NoError(err)
		s.Equal(int64(300), updated.Fee)

		found, err := s.store.Find(s.ctx, entry.ID)
		s.Require().NoError(err)
		s.Equal(int64(300), found.Fee)
	})

	s.Run("validation failure leaves the entry untouched", func() {
		entry := s.newEntry(100, true)
		s.Require().NoError(s.store.Put(s.ctx, entry))

		wantErr := errors.New("rejected")
		_, err := s.store.Execute(s.ctx, entry.ID,
			func(e *models.Entry) error { return wantErr },
			func(e *models.Entry) { e.ApplyFee(300) },
		)
		s.Require().ErrorIs(err, wantErr)

		found, err := s.store.Find(s.ctx, entry.ID)
		s.Require().NoError(err)
		s.Equal(int64(100), found.Fee)
	})

	s.Run("unknown id", func() {
		_, err := s.store.Execute(s.ctx, id.NewBlueprintID(),
			func(e *models.Entry) error { return nil },
			func(e *models.Entry) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *CatalogStoreSuite) TestConcurrentExecute() {
	entry := s.newEntry(0, true)
	s.Require().NoError(s.store.Put(s.ctx, entry))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, entry.ID,
				func(e *models.Entry) error { return nil },
				func(e *models.Entry) { e.Fee++ },
			)
			s.NoError(err)
		}()
	}
	wg.Wait()

	found, err := s.store.Find(s.ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal(int64(workers), found.Fee, "every increment is applied exactly once")
}
