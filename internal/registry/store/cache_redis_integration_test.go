//go:build integration

package store_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"foundry/internal/blueprint"
	"foundry/internal/registry/models"
	"foundry/internal/registry/store"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/sentinel"
	"foundry/pkg/testutil/containers"
)

// recordingPrimary wraps the in-memory store and counts reads that reach it,
// which is how these tests observe cache hits.
type recordingPrimary struct {
	*store.InMemoryStore
	finds atomic.Int32
}

func (r *recordingPrimary) Find(ctx context.Context, blueprintID id.BlueprintID) (*models.Entry, error) {
	r.finds.Add(1)
	return r.InMemoryStore.Find(ctx, blueprintID)
}

type CachedCatalogSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	primary *recordingPrimary
	cached  *store.CachedStore
}

func TestCachedCatalogSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedCatalogSuite))
}

func (s *CachedCatalogSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *CachedCatalogSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.primary = &recordingPrimary{InMemoryStore: store.NewInMemoryStore()}
	s.cached = store.NewCachedStore(s.primary, s.redis.Client, time.Minute, nil, nil)
}

func (s *CachedCatalogSuite) newEntry(fee int64) *models.Entry {
	return &models.Entry{
		ID:           id.NewBlueprintID(),
		Kind:         blueprint.KindVesting,
		Fee:          fee,
		Active:       true,
		RegisteredAt: time.Now().UTC(),
	}
}

func (s *CachedCatalogSuite) TestReadThrough() {
	ctx := context.Background()
	entry := s.newEntry(100)
	s.Require().NoError(s.cached.Put(ctx, entry))

	first, err := s.cached.Find(ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), int64(s.primary.finds.Load()), "first read misses and hits the primary")

	second, err := s.cached.Find(ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), int64(s.primary.finds.Load()), "second read is served from the cache")

	s.Equal(first.Fee, second.Fee)
	s.Equal(first.Kind, second.Kind)
	s.WithinDuration(first.RegisteredAt, second.RegisteredAt, time.Millisecond)
}

func (s *CachedCatalogSuite) TestPutInvalidates() {
	ctx := context.Background()
	entry := s.newEntry(100)
	s.Require().NoError(s.cached.Put(ctx, entry))

	_, err := s.cached.Find(ctx, entry.ID)
	s.Require().NoError(err)

	replacement := *entry
	replacement.Fee = 400
	s.Require().NoError(s.cached.Put(ctx, &replacement))

	found, err := s.cached.Find(ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal(int64(400), found.Fee, "the overwrite must be visible immediately")
	s.Equal(int32(2), s.primary.finds.Load())
}

func (s *CachedCatalogSuite) TestExecuteInvalidates() {
	ctx := context.Background()
	entry := s.newEntry(100)
	s.Require().NoError(s.cached.Put(ctx, entry))

	_, err := s.cached.Find(ctx, entry.ID)
	s.Require().NoError(err)

	_, err = s.cached.Execute(ctx, entry.ID,
		func(e *models.Entry) error { return e.CanUpdate() },
		func(e *models.Entry) { e.ApplyStatus(false) },
	)
	s.Require().NoError(err)

	found, err := s.cached.Find(ctx, entry.ID)
	s.Require().NoError(err)
	s.False(found.Active, "the mutation must be visible immediately")
	s.Equal(int32(2), s.primary.finds.Load())
}

func (s *CachedCatalogSuite) TestCorruptPayloadFallsBack() {
	ctx := context.Background()
	entry := s.newEntry(100)
	s.Require().NoError(s.cached.Put(ctx, entry))

	_, err := s.cached.Find(ctx, entry.ID)
	s.Require().NoError(err)

	key := "blueprint:entry:" + entry.ID.String()
	s.Require().NoError(s.redis.Client.Set(ctx, key, "{not json", time.Minute).Err())

	found, err := s.cached.Find(ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal(int64(100), found.Fee)
	s.Equal(int32(2), s.primary.finds.Load(), "unreadable payloads read through to the primary")
}

func (s *CachedCatalogSuite) TestNoNegativeCaching() {
	ctx := context.Background()
	blueprintID := id.NewBlueprintID()

	_, err := s.cached.Find(ctx, blueprintID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// Register through the primary directly; a registration racing a lookup
	// must still become visible on the very next read.
	entry := s.newEntry(100)
	entry.ID = blueprintID
	s.Require().NoError(s.primary.Put(ctx, entry))

	found, err := s.cached.Find(ctx, blueprintID)
	s.Require().NoError(err)
	s.Equal(int64(100), found.Fee)
}
