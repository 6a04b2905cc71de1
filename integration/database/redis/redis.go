// Package redis manages the Redis connection used by the session store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the Redis settings, populated from the environment. An empty
// URL means sessions live in memory.
type Config struct {
	URL            string        `env:"REDIS_URL" envDefault:""`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"5s"`
}

var (
	// ErrEmptyConnectionURL means Connect was called without a REDIS_URL.
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")

	// ErrConnectFailed wraps URL parsing and ping failures.
	ErrConnectFailed = errors.New("redis: connect failed")
)

// Connect creates a client from the URL and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	return client, nil
}

// Healthcheck returns a probe suitable for readiness endpoints.
func Healthcheck(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
