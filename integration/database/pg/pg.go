// Package pg manages the PostgreSQL connection pool for the CMS stores.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds the PostgreSQL settings, populated from the environment.
// An empty URL means the CMS runs on in-memory stores.
type Config struct {
	URL            string        `env:"DATABASE_URL" envDefault:""`
	MaxConns       int32         `env:"PG_MAX_CONNS" envDefault:"10"`
	MinConns       int32         `env:"PG_MIN_CONNS" envDefault:"1"`
	ConnectTimeout time.Duration `env:"PG_CONNECT_TIMEOUT" envDefault:"10s"`
}

var (
	// ErrEmptyConnectionURL means Connect was called without a DATABASE_URL.
	ErrEmptyConnectionURL = errors.New("pg: empty connection URL")

	// ErrConnectFailed wraps pool creation and ping failures.
	ErrConnectFailed = errors.New("pg: connect failed")
)

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyConnectionURL
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	return pool, nil
}

// Healthcheck returns a probe suitable for readiness endpoints.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}
