package testutil

import (
	"testing"

	"snapkeep/internal/database"
)

// NewTestStore creates a new in-memory run-history store with the schema
// applied. The store is automatically closed when the test completes.
func NewTestStore(t *testing.T) database.Store {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	// Each pooled connection gets its own in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(database.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	db := database.NewSQLiteStoreFromDB(sqlDB)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
