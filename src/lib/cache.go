package lib

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the explicit cache port used by the read paths. Implementations
// must treat every failure as a miss, never as an error the caller handles.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	SetEx(ctx context.Context, key string, value string, ttl time.Duration)
	Invalidate(ctx context.Context, keys ...string)
}

var cache Cache

func GetCache() Cache {
	if cache != nil {
		return cache
	}
	rdb := GetRedisClient()
	if rdb == nil {
		log.Println("[cache] Redis unavailable, falling back to noop cache")
		cache = &noopCache{}
		return cache
	}
	cache = &redisCache{rdb: rdb}
	return cache
}

// NewCache Replace cache instance with custom implementation
func NewCache(c Cache) Cache {
	cache = c
	return cache
}

type redisCache struct {
	rdb *redis.Client
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("[cache] Error retrieving value for %s: %s\n", key, err.Error())
		return "", false
	}
	return val, true
}

func (c *redisCache) SetEx(ctx context.Context, key string, value string, ttl time.Duration) {
	if err := c.rdb.SetEx(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("[cache] Failed to set value for key %s: %s\n", key, err.Error())
	}
}

func (c *redisCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[cache] Failed to invalidate keys %v: %s\n", keys, err.Error())
	}
}

type noopCache struct{}

func (n *noopCache) Get(ctx context.Context, key string) (string, bool) { return "", false }
func (n *noopCache) SetEx(ctx context.Context, key string, value string, ttl time.Duration) {
}
func (n *noopCache) Invalidate(ctx context.Context, keys ...string) {}
