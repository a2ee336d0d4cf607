package database

import (
	"context"
	"fmt"

	"dm-relay/internal/config"
)

// Open connects to the store selected by cfg.Driver and creates any missing
// tables.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := NewPostgresDB(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case config.DriverSQLite:
		return NewSQLiteDB(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
