// Package dbtest opens migrated SQLite databases for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"webauth/internal/db"
)

// New returns a migrated SQLite database in a temp dir, closed on cleanup.
func New(t testing.TB) *db.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "webauth.db") + "?_pragma=foreign_keys(1)"

	d, err := db.Open(context.Background(), "sqlite", dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, d.Migrate(context.Background()))
	return d
}

// Count returns the number of rows in table.
func Count(t testing.TB, d *db.DB, table string) int {
	t.Helper()

	var n int
	err := d.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}
