// Package testhelpers provides shared test fixtures for crosssign's own
// test suite and for host applications exercising store/sqlite.
package testhelpers

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ratchet-sdk/crosssign/store/sqlite"
)

// CreateTestDB creates an in-memory SQLite test database with the
// persistence schema already migrated. Automatically registers cleanup via
// t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if _, err := database.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	if err := sqlite.Migrate(database); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}
