package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

var dialects = map[string]database.Dialect{
	"postgres": database.DialectPostgres,
	"sqlite":   database.DialectSQLite3,
}

// Migrate applies all pending migrations for the database's driver.
func (d *DB) Migrate(ctx context.Context) error {
	dialect, ok := dialects[d.Driver]
	if !ok {
		return fmt.Errorf("db: no migrations for driver %q", d.Driver)
	}

	migrationFS, err := fs.Sub(embedMigrations, "migrations/"+d.Driver)
	if err != nil {
		return fmt.Errorf("db: migrations sub filesystem: %w", err)
	}

	provider, err := goose.NewProvider(dialect, d.DB, migrationFS)
	if err != nil {
		return fmt.Errorf("db: create goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("db: apply migrations: %w", err)
	}

	return nil
}
