package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tenderhq/tender/cache"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

type memoryCache struct {
	options cache.Options
	entries map[string]entry
	mtx     sync.Mutex
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return nil, false, nil
	}

	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}

	cpy := make([]byte, len(e.value))
	copy(cpy, e.value)

	return cpy, true, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.options.TTL
	}

	cpy := make([]byte, len(value))
	copy(cpy, value)

	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.entries[key] = entry{
		value:     cpy,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

func NewCache(opts ...cache.Option) cache.Cache {
	options := cache.NewOptions(opts...)

	c := &memoryCache{
		options: options,
		entries: map[string]entry{},
		mtx:     sync.Mutex{},
	}

	return c
}
