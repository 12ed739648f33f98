package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateCache implements ports.RateCache: a single-key TTL cache for the
// serialized current-rate table. The published table is global, so the key
// is fixed.
type RateCache struct {
	client *goredis.Client
	key    string
}

// NewRateCache creates a new Redis-backed rate table cache.
func NewRateCache(client *goredis.Client) *RateCache {
	return &RateCache{
		client: client,
		key:    "rates:current",
	}
}

// Get retrieves the cached rate table. Returns nil, nil on a miss.
func (c *RateCache) Get(ctx context.Context) ([]byte, error) {
	val, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis rate cache get: %w", err)
	}
	return val, nil
}

// Set stores the serialized rate table with a TTL.
func (c *RateCache) Set(ctx context.Context, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis rate cache set: %w", err)
	}
	return nil
}
