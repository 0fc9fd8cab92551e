package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tenderhq/tender/cache"
)

type redisCache struct {
	options cache.Options
	client  *goredis.Client
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return value, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.options.TTL
	}

	return c.client.Set(ctx, key, value, ttl).Err()
}

func NewCache(opts ...cache.Option) cache.Cache {
	options := cache.NewOptions(opts...)

	c := &redisCache{
		options: options,
	}

	// redis://localhost:6379/0
	redisOpts, err := goredis.ParseURL(options.Location)
	if err != nil {
		redisOpts = &goredis.Options{Addr: options.Location}
	}

	c.client = goredis.NewClient(redisOpts)

	return c
}
