package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"foundry/internal/registry/metrics"
	"foundry/internal/registry/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/circuit"
)

// CachedStore is a read-through Redis decorator over a durable store. Reads
// try the cache first; writes go to the primary and invalidate. A circuit
// breaker routes reads straight to the primary while Redis is unhealthy, so
// a cache outage costs latency, never correctness. A failed invalidation can
// leave a stale entry for at most one TTL.
type CachedStore struct {
	primary Primary
	redis   *redis.Client
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Primary is the durable store the cache decorates.
type Primary interface {
	Put(ctx context.Context, entry *models.Entry) error
	Find(ctx context.Context, blueprintID id.BlueprintID) (*models.Entry, error)
	Execute(ctx context.Context, blueprintID id.BlueprintID, validate func(*models.Entry) error, apply func(*models.Entry)) (*models.Entry, error)
}

// NewCachedStore decorates primary with a Redis cache.
func NewCachedStore(primary Primary, client *redis.Client, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *CachedStore {
	return &CachedStore{
		primary: primary,
		redis:   client,
		ttl:     ttl,
		breaker: circuit.New("registry-cache", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(2)),
		logger:  logger,
		metrics: m,
	}
}

func cacheKey(blueprintID id.BlueprintID) string {
	return "blueprint:entry:" + blueprintID.String()
}

// Put writes through to the primary and drops the cached copy.
func (c *CachedStore) Put(ctx context.Context, entry *models.Entry) error {
	if err := c.primary.Put(ctx, entry); err != nil {
		return err
	}
	c.invalidate(ctx, entry.ID)
	return nil
}

// Find reads through the cache. Unknown entries are not cached negatively:
// registration must become visible immediately even if an earlier lookup
// raced it.
func (c *CachedStore) Find(ctx context.Context, blueprintID id.BlueprintID) (*models.Entry, error) {
	if entry, ok := c.cacheGet(ctx, blueprintID); ok {
		return entry, nil
	}

	entry, err := c.primary.Find(ctx, blueprintID)
	if err != nil {
		return nil, err
	}
	c.cacheSet(ctx, entry)
	return entry, nil
}

// Execute delegates to the primary and drops the cached copy on success.
func (c *CachedStore) Execute(ctx context.Context, blueprintID id.BlueprintID, validate func(*models.Entry) error, apply func(*models.Entry)) (*models.Entry, error) {
	entry, err := c.primary.Execute(ctx, blueprintID, validate, apply)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, blueprintID)
	return entry, nil
}

func (c *CachedStore) cacheGet(ctx context.Context, blueprintID id.BlueprintID) (*models.Entry, bool) {
	if c.breaker.IsOpen() {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, cacheKey(blueprintID)).Result()
	if errors.Is(err, redis.Nil) {
		c.recordSuccess()
		c.recordMiss()
		return nil, false
	}
	if err != nil {
		c.recordFailure(ctx, "cache read failed", err)
		return nil, false
	}

	var entry models.Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// Unreadable payloads mean a deploy skew, not a Redis outage.
		c.invalidate(ctx, blueprintID)
		c.recordMiss()
		return nil, false
	}
	c.recordSuccess()
	c.recordHit()
	return &entry, true
}

func (c *CachedStore) cacheSet(ctx context.Context, entry *models.Entry) {
	if c.breaker.IsOpen() {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(entry.ID), payload, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, "cache write failed", err)
		return
	}
	c.recordSuccess()
}

// invalidate drops a cached entry. It runs even while the circuit is open:
// the Del is the probe that detects Redis recovering, and a successful
// invalidation is required before reads may trust the cache again anyway.
func (c *CachedStore) invalidate(ctx context.Context, blueprintID id.BlueprintID) {
	if err := c.redis.Del(ctx, cacheKey(blueprintID)).Err(); err != nil {
		c.recordFailure(ctx, "cache invalidation failed", err)
		return
	}
	c.recordSuccess()
}

func (c *CachedStore) recordFailure(ctx context.Context, msg string, err error) {
	_, change := c.breaker.RecordFailure()
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "error", err)
		if change.Opened {
			c.logger.WarnContext(ctx, "registry cache circuit opened, reads fall back to primary")
		}
	}
}

func (c *CachedStore) recordSuccess() {
	_, change := c.breaker.RecordSuccess()
	if change.Closed && c.logger != nil {
		c.logger.Info("registry cache circuit closed, cache reads resumed")
	}
}

func (c *CachedStore) recordHit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

func (c *CachedStore) recordMiss() {
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}
