package database

import (
	"fmt"
	"os"
	"path/filepath"

	"snapkeep/internal/config"
	"snapkeep/internal/database/migrations"
)

// NewStoreFromConfig creates a run-history Store based on the database
// config type. For sqlite stores the schema is migrated to the latest
// version on open; memory stores get the full schema applied directly.
func NewStoreFromConfig(cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Type {
	case "memory":
		db, err := OpenConnection(":memory:")
		if err != nil {
			return nil, err
		}
		// Each pooled connection gets its own in-memory database.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(Schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
		return NewSQLiteStoreFromDB(db), nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("sqlite database requires data_dir to be set")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		s, err := NewSQLiteStore(filepath.Join(cfg.DataDir, "snapkeep.db"))
		if err != nil {
			return nil, err
		}
		if err := migrations.MigrateUp(s.DB()); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		// Catches dirty state and version skew a plain Up cannot report.
		if err := migrations.CheckDBMigrationStatus(s.DB()); err != nil {
			s.Close()
			return nil, fmt.Errorf("verifying database schema: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
