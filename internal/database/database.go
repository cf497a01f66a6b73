package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgxpool.Pool for access to the family database.
type DB struct {
	pool *pgxpool.Pool
}

// Options controls how New establishes the pool.
type Options struct {
	// Retries is the number of extra ping attempts after the first one fails.
	Retries int
	// Backoff is the constant wait between attempts.
	Backoff time.Duration
}

// New creates a new DB by parsing the given database URL and establishing a connection pool.
// The initial ping is retried opts.Retries times before giving up.
func New(ctx context.Context, databaseURL string, opts Options) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			slog.Warn("database ping failed", "attempt", attempt, "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(opts.Backoff)),
		backoff.WithMaxTries(uint(opts.Retries+1)),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Pool returns the underlying pgxpool.Pool for repository use.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}
