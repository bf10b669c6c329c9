package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestionCache_L1Only(t *testing.T) {
	cache := NewSuggestionCache(32, time.Minute, nil, nil)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "BE", 10)
	assert.False(t, ok)

	cache.Set(ctx, "BE", 10, []string{"BEAM-W12-101", "beam"})

	suggestions, ok := cache.Get(ctx, "BE", 10)
	require.True(t, ok)
	assert.Equal(t, []string{"BEAM-W12-101", "beam"}, suggestions)

	// Different limit is a different key.
	_, ok = cache.Get(ctx, "BE", 5)
	assert.False(t, ok)
}

func TestSuggestionCache_RedisTier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	writer := NewSuggestionCache(32, time.Minute, client, nil)
	writer.Set(ctx, "PL", 10, []string{"PL-6x12", "plate"})

	// A fresh cache with an empty L1 must find the entry in redis.
	reader := NewSuggestionCache(32, time.Minute, client, nil)
	suggestions, ok := reader.Get(ctx, "PL", 10)
	require.True(t, ok)
	assert.Equal(t, []string{"PL-6x12", "plate"}, suggestions)

	// L2 hits are promoted into L1.
	mr.FlushAll()
	suggestions, ok = reader.Get(ctx, "PL", 10)
	require.True(t, ok)
	assert.Equal(t, []string{"PL-6x12", "plate"}, suggestions)
}

func TestSuggestionCache_PurgeDropsL1(t *testing.T) {
	cache := NewSuggestionCache(32, time.Minute, nil, nil)
	ctx := context.Background()

	cache.Set(ctx, "W1", 10, []string{"W12-MAIN"})
	cache.Purge()

	_, ok := cache.Get(ctx, "W1", 10)
	assert.False(t, ok)
}

func TestSuggestionCache_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewSuggestionCache(32, time.Minute, client, nil)
	ctx := context.Background()

	mr.Close()

	// Set and Get must degrade to L1 without error.
	cache.Set(ctx, "HS", 10, []string{"HSS6x6"})
	suggestions, ok := cache.Get(ctx, "HS", 10)
	require.True(t, ok)
	assert.Equal(t, []string{"HSS6x6"}, suggestions)
}
