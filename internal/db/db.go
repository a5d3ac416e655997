// Package db owns the Postgres pool for the reconciliation service.
package db

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultMaxConns caps the pool. Ingestion writes a whole statement in a
// single transaction and the query endpoints are short-lived reads, so a
// small pool covers the API comfortably.
const defaultMaxConns = 8

// PoolConfig builds the pool configuration from a connection string and an
// optional max-connections override (the DB_MAX_CONNS env value; empty
// keeps the default).
func PoolConfig(connString, maxConns string) (*pgxpool.Config, error) {
	if connString == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	config.MaxConns = defaultMaxConns
	if maxConns != "" {
		n, err := strconv.Atoi(maxConns)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid DB_MAX_CONNS %q: must be a positive integer", maxConns)
		}
		config.MaxConns = int32(n)
	}
	return config, nil
}

// NewPool connects to the reconciliation database configured by
// DATABASE_URL and DB_MAX_CONNS, verifying the connection with a ping.
func NewPool(ctx context.Context) (*pgxpool.Pool, error) {
	config, err := PoolConfig(os.Getenv("DATABASE_URL"), os.Getenv("DB_MAX_CONNS"))
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to reconciliation database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping reconciliation database: %w", err)
	}
	return pool, nil
}
