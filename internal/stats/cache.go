// Package stats caches the derived per-user statistics in Redis. The
// statistics are advisory (they sum best-effort counters), so a short TTL
// plus best-effort invalidation on mutations is sufficient; a cache failure
// always degrades to recomputation, never to an error.
package stats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taskhive/taskhive-backend/internal/store"
)

const statsKeyPrefix = "hive:stats:" // hive:stats:{user_id}

// DefaultTTL bounds how stale cached statistics can get.
const DefaultTTL = 30 * time.Second

// Cache is a Redis-backed statistics cache. A nil client disables caching;
// all methods stay safe to call.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// New creates a Cache. Pass ttl 0 for DefaultTTL.
func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{client: client, ttl: ttl, log: logger}
}

func (c *Cache) key(userID string) string {
	return statsKeyPrefix + userID
}

// Get returns the cached statistics for a user, or ok=false on miss,
// disabled cache, or any Redis failure.
func (c *Cache) Get(ctx context.Context, userID string) (*store.Statistics, bool) {
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("stats cache read failed", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}

	var stats store.Statistics
	if err := json.Unmarshal(data, &stats); err != nil {
		c.log.Warn("stats cache entry corrupt", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	return &stats, true
}

// Set stores the statistics with the configured TTL.
func (c *Cache) Set(ctx context.Context, userID string, stats *store.Statistics) {
	if c.client == nil || stats == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(userID), data, c.ttl).Err(); err != nil {
		c.log.Warn("stats cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// Invalidate drops the cached entry for a user. Mutating handlers call it
// for the acting user; entries of other members age out via the TTL.
func (c *Cache) Invalidate(ctx context.Context, userID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		c.log.Warn("stats cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
