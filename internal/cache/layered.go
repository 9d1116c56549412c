package cache

import (
	"context"
	"time"
)

// LayeredCache checks memory first, then the shared layer, promoting shared hits.
type LayeredCache struct {
	memory Cache
	shared Cache
}

func NewLayeredCache(memory, shared Cache) *LayeredCache {
	return &LayeredCache{memory: memory, shared: shared}
}

func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, found := c.memory.Get(ctx, key); found {
		return val, true
	}
	if val, found := c.shared.Get(ctx, key); found {
		c.memory.Set(ctx, key, val, 0)
		return val, true
	}
	return nil, false
}

func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.shared.Set(ctx, key, value, ttl)
}

func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	c.memory.Delete(ctx, key)
	return c.shared.Delete(ctx, key)
}

func (c *LayeredCache) Clear(ctx context.Context) error {
	c.memory.Clear(ctx)
	return c.shared.Clear(ctx)
}
