package stats

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-backend/internal/store"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, ttl, nil), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "u1")
	assert.False(t, ok, "empty cache misses")

	want := &store.Statistics{TotalProjects: 2, TotalTasks: 5, OwnedProjects: 1}
	cache.Set(ctx, "u1", want)

	got, ok := cache.Get(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, want, got)

	t.Run("per-user keys", func(t *testing.T) {
		_, ok := cache.Get(ctx, "u2")
		assert.False(t, ok)
	})
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "u1", &store.Statistics{TotalProjects: 1})
	cache.Invalidate(ctx, "u1")

	_, ok := cache.Get(ctx, "u1")
	assert.False(t, ok)
}

func TestCacheEntriesExpire(t *testing.T) {
	cache, mr := newTestCache(t, time.Second)
	ctx := context.Background()

	cache.Set(ctx, "u1", &store.Statistics{TotalProjects: 1})
	mr.FastForward(2 * time.Second)

	_, ok := cache.Get(ctx, "u1")
	assert.False(t, ok)
}

func TestCacheCorruptEntryIsAMiss(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)

	require.NoError(t, mr.Set("hive:stats:u1", "{not json"))

	_, ok := cache.Get(context.Background(), "u1")
	assert.False(t, ok)
}

func TestNilClientDisablesCache(t *testing.T) {
	cache := New(nil, 0, nil)
	ctx := context.Background()

	// Every method must be a safe no-op without Redis.
	cache.Set(ctx, "u1", &store.Statistics{TotalProjects: 1})
	cache.Invalidate(ctx, "u1")

	_, ok := cache.Get(ctx, "u1")
	assert.False(t, ok)
}
