package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// The request path calls the cache unconditionally, so a missing Redis
// connection must behave like a cache that never hits.
func TestCache_NilClientIsMissAndNoOp(t *testing.T) {
	ctx := context.Background()
	c := New(nil, time.Minute)

	var dest map[string]string
	assert.False(t, c.Get(ctx, "questions:search", &dest), "Get on nil client reported a hit")

	c.Set(ctx, "questions:search", map[string]string{"q": "explain"})
	c.Delete(ctx, "questions:search")
	c.DeleteByPrefix(ctx, "questions:")
}

func TestCache_NilReceiver(t *testing.T) {
	ctx := context.Background()
	var c *Cache

	assert.False(t, c.Get(ctx, "key", nil), "Get on nil receiver reported a hit")
	c.Set(ctx, "key", 1)
	c.Delete(ctx, "key")
	c.DeleteByPrefix(ctx, "key")
}

func TestNew_TTLFallback(t *testing.T) {
	assert.Equal(t, 5*time.Minute, New(nil, 0).ttl)
	assert.Equal(t, 5*time.Minute, New(nil, -time.Second).ttl)
	assert.Equal(t, time.Minute, New(nil, time.Minute).ttl)
}
