package redis_test

import (
	"context"
	"testing"
	"time"

	"cantor/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateCache_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := redis.NewRateCache(client)
	ctx := context.Background()

	t.Run("miss returns nil without error", func(t *testing.T) {
		val, err := cache.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, val)
	})

	t.Run("round trip", func(t *testing.T) {
		payload := []byte(`{"table":"A","effective_date":"2026-08-28"}`)
		require.NoError(t, cache.Set(ctx, payload, 5*time.Minute))

		val, err := cache.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, payload, val)
	})

	t.Run("expires after TTL", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, []byte(`{}`), time.Minute))

		mr.FastForward(61 * time.Second)

		val, err := cache.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, val)
	})
}
