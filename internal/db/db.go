package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"webauth/internal/logger"

	// drivers
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DB wraps the shared relational store used by the pending-authorization,
// user and session stores.
type DB struct {
	*sql.DB
	Driver string
}

// driverNames maps config driver names to database/sql driver names.
var driverNames = map[string]string{
	"postgres": "postgres",
	"sqlite":   "sqlite",
}

// Open connects to the database, retrying the initial ping with
// exponential backoff until ctx is done or maxWait elapses.
func Open(ctx context.Context, driver, dsn string, maxWait time.Duration) (*DB, error) {
	name, ok := driverNames[driver]
	if !ok {
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}

	sqlDB, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	if driver == "sqlite" {
		// single writer; avoids SQLITE_BUSY under concurrent requests
		sqlDB.SetMaxOpenConns(1)
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		if err := sqlDB.PingContext(ctx); err != nil {
			logger.Warn("database not ready", map[string]any{
				"driver": driver,
				"error":  err,
			})
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxWait),
	)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	return &DB{DB: sqlDB, Driver: driver}, nil
}
