package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/tablekeep/migrations"
	"github.com/pressly/goose/v3"
)

func schemaProvider(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("load schema migrations: %w", err)
	}
	return p, nil
}

// RunMigrations brings the campaigns, frames and entities tables up to the
// newest embedded schema version. Already-applied versions are skipped.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	p, err := schemaProvider(db)
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	for _, r := range results {
		slog.Debug("schema migration applied",
			"component", "store",
			"version", r.Source.Version,
			"duration_ms", r.Duration.Milliseconds(),
		)
	}
	return nil
}

// SchemaVersion returns the highest schema version applied to db.
func SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	p, err := schemaProvider(db)
	if err != nil {
		return 0, err
	}
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
