package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	// Each pooled connection gets its own in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUp(t *testing.T) {
	db := newTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	// The runs table must exist and be writable after migration.
	if _, err := db.Exec(
		`INSERT INTO runs (kind, started_at) VALUES ('snapshot', '2025-03-01 10:00:00')`,
	); err != nil {
		t.Errorf("inserting into migrated schema: %v", err)
	}

	// Running again with nothing to do is not an error.
	if err := MigrateUp(db); err != nil {
		t.Errorf("second MigrateUp() error = %v", err)
	}
}

func TestCheckDBMigrationStatus(t *testing.T) {
	t.Run("up to date", func(t *testing.T) {
		db := newTestDB(t)
		if err := MigrateUp(db); err != nil {
			t.Fatalf("MigrateUp() error = %v", err)
		}
		if err := CheckDBMigrationStatus(db); err != nil {
			t.Errorf("CheckDBMigrationStatus() error = %v", err)
		}
	})

	t.Run("unmigrated database", func(t *testing.T) {
		db := newTestDB(t)
		if err := CheckDBMigrationStatus(db); err == nil {
			t.Errorf("CheckDBMigrationStatus() = nil on unmigrated database, want error")
		}
	})
}
