package redis_a_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/boxwise-be/internal/adapters/redis_adapter"
	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/ammerola/boxwise-be/test/helpers"
)

func newTestCache(t *testing.T) (*redis_a.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger()), mr
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	t.Run("stores_and_retrieves_string", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "test:string", "test value"))

		var got string
		require.NoError(t, cache.Get(ctx, "test:string", &got))
		assert.Equal(t, "test value", got)
	})

	t.Run("stores_and_retrieves_list_result", func(t *testing.T) {
		item := helpers.CreateTestItem()
		want := ports.ListResult{Items: []domain.Item{*item}, Page: 1, Limit: 10, Total: 1, TotalPages: 1}
		require.NoError(t, cache.Set(ctx, "items:list:abc", want))

		var got ports.ListResult
		require.NoError(t, cache.Get(ctx, "items:list:abc", &got))
		require.Len(t, got.Items, 1)
		assert.Equal(t, item.ID, got.Items[0].ID)
		assert.Equal(t, item.Name, got.Items[0].Name)
		assert.True(t, item.PurchasePrice.Equal(got.Items[0].PurchasePrice))
		assert.Equal(t, int64(1), got.Total)
	})

	t.Run("missing_key_is_cache_miss", func(t *testing.T) {
		var got string
		err := cache.Get(ctx, "nope", &got)
		assert.True(t, errors.Is(err, redis_a.ErrCacheMiss))
		assert.True(t, errors.Is(err, ports.ErrCacheMiss))
	})

	t.Run("type_mismatch_is_cache_error", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "test:num", 42))

		var got []string
		err := cache.Get(ctx, "test:num", &got)
		var cerr *redis_a.CacheError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "get", cerr.Op)
	})
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	require.NoError(t, cache.SetWithTTL(ctx, "ttl:test", "value", 100*time.Millisecond))

	var result string
	require.NoError(t, cache.Get(ctx, "ttl:test", &result))
	assert.Equal(t, "value", result)

	mr.FastForward(200 * time.Millisecond)

	err := cache.Get(ctx, "ttl:test", &result)
	assert.Equal(t, redis_a.ErrCacheMiss, err)
}

func TestCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	keysToDelete := []string{"items:list:1", "items:list:2", "items:list:3"}
	keysToKeep := []string{"stats:summary", "reports:abc"}

	for _, key := range append(keysToDelete, keysToKeep...) {
		require.NoError(t, cache.Set(ctx, key, "value"))
	}

	require.NoError(t, cache.DeletePattern(ctx, "items:list:*"))

	for _, key := range keysToDelete {
		var result string
		assert.Equal(t, redis_a.ErrCacheMiss, cache.Get(ctx, key, &result), key)
	}
	for _, key := range keysToKeep {
		var result string
		require.NoError(t, cache.Get(ctx, key, &result))
		assert.Equal(t, "value", result)
	}

	// no matches is not an error
	require.NoError(t, cache.DeletePattern(ctx, "nothing:*"))
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	fetchCount := 0
	fetch := func() (interface{}, error) {
		fetchCount++
		return domain.InventoryStats{TotalItems: 12, TotalQuantity: 40}, nil
	}

	var first domain.InventoryStats
	require.NoError(t, cache.GetOrSet(ctx, "stats:summary", &first, fetch, time.Minute))
	assert.Equal(t, int64(12), first.TotalItems)
	assert.Equal(t, 1, fetchCount)

	var second domain.InventoryStats
	require.NoError(t, cache.GetOrSet(ctx, "stats:summary", &second, fetch, time.Minute))
	assert.Equal(t, int64(40), second.TotalQuantity)
	assert.Equal(t, 1, fetchCount)

	t.Run("fetch_error_is_returned", func(t *testing.T) {
		var dest string
		err := cache.GetOrSet(ctx, "stats:broken", &dest, func() (interface{}, error) {
			return nil, errors.New("database down")
		}, time.Minute)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database down")
	})

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.GreaterOrEqual(t, stats.Misses, int64(2))
}

func TestCache_IncrementOperations(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	val, err := cache.Increment(ctx, "counter:test")
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)

	val, err = cache.IncrementBy(ctx, "counter:test", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(6), val)
}

func TestCache_SetNX(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	ok, err := cache.SetNX(ctx, "lock:cleanup", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "lock:cleanup", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	var result string
	require.NoError(t, cache.Get(ctx, "lock:cleanup", &result))
	assert.Equal(t, "first", result)
}

func TestCache_ConnectionFailure(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	mr.Close()

	var dest string
	err := cache.Get(ctx, "any", &dest)
	require.Error(t, err)
	assert.False(t, errors.Is(err, redis_a.ErrCacheMiss))
	assert.Error(t, cache.Ping(ctx))
}

func TestCache_BuildKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   redis_a.CacheKeyPrefix
		parts    []string
		expected string
	}{
		{name: "prefix_only", prefix: redis_a.PrefixStats, expected: "stats"},
		{name: "single_part", prefix: redis_a.PrefixItem, parts: []string{"abc"}, expected: "items:one:abc"},
		{name: "multiple_parts", prefix: redis_a.PrefixReport, parts: []string{"2024", "xlsx"}, expected: "reports:2024:xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, redis_a.BuildKey(tt.prefix, tt.parts...))
		})
	}
}
