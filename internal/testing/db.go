// Package testing provides testing utilities and helpers for the aitrader project.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aristath/aitrader/internal/database"
)

// NewTestDB creates an in-memory SQLite database with the schema applied.
// The connection is closed when the test finishes.
//
// The pool is capped at one connection; every new :memory: connection
// would otherwise see an empty database.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := database.ApplySchema(db.DB); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	return db
}

// NewFileTestDB creates a file-backed database in a temporary directory
// using the production driver and profile, with the schema applied.
func NewFileTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "aitrader.db"),
		Profile: database.ProfileStandard,
		Name:    "aitrader",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}
