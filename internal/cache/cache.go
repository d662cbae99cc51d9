package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a best-effort byte cache. Misses and backend failures both report
// !ok; callers regenerate and Set.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

type redisCache struct {
	client *redis.Client
}

// NewRedis wraps a Redis client as a Cache.
func NewRedis(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *redisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	_ = c.client.Set(ctx, key, val, ttl).Err()
}

type noop struct{}

// NewNoop returns a Cache that stores nothing, for deployments without Redis.
func NewNoop() Cache { return noop{} }

func (noop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (noop) Set(context.Context, string, []byte, time.Duration) {}
