package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

// Cache is a thin cache-aside layer over Redis. Values are JSON encoded.
// Every method degrades to a miss or a no-op on Redis failure so the
// request path never depends on the cache being up.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Cache with a default TTL applied to Set.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Get loads the value for key into dest. Returns false on miss or error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Str("key", key).Msg("Cache get failed")
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache entry is not valid JSON, dropping")
		c.Delete(ctx, key)
		return false
	}

	return true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache value not serializable")
		return
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache set failed")
	}
}

// Delete removes a single key.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn().Err(err).Strs("keys", keys).Msg("Cache delete failed")
	}
}

// DeleteByPrefix removes every key matching prefix*. Used by admin
// mutations to invalidate search pages wholesale.
func (c *Cache) DeleteByPrefix(ctx context.Context, prefix string) {
	if c == nil || c.client == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn().Err(err).Str("prefix", prefix).Msg("Cache scan failed")
		return
	}

	c.Delete(ctx, keys...)
}
