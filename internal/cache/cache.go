// Package cache signals the downstream read cache that new data committed.
// Invalidation is best-effort: the pipeline logs failures and moves on.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Invalidator drops the cached dashboard response after a successful commit.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type RedisInvalidator struct {
	client *redis.Client
	key    string
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Timeout  time.Duration
}

func NewRedisInvalidator(opts Options) (*RedisInvalidator, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisInvalidator{
		client: client,
		key:    opts.Key,
	}, nil
}

func (r *RedisInvalidator) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("error invalidating cache key %q: %w", r.key, err)
	}
	return nil
}

func (r *RedisInvalidator) Close() error {
	return r.client.Close()
}

// Nop is the invalidator used when no read cache is deployed.
type Nop struct{}

func (Nop) Invalidate(context.Context) error { return nil }
