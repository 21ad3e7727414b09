package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a fully configured in-memory SQLite database for testing.
//
// The database includes:
//   - Foreign key constraints enabled (required for cascade deletes)
//   - Full schema created (all tables, indexes, FTS virtual table)
//   - Automatic cleanup registered with t.Cleanup()
//
// This is the standard test database helper - use it for most tests.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	err = CreateSchema(db)
	require.NoError(t, err)

	return db
}

// NewTestDBFile creates a file-based SQLite database in t.TempDir().
//
// Use this when you need to test database persistence across connections,
// or any scenario that requires a real file path rather than :memory:.
func NewTestDBFile(t testing.TB) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	err = CreateSchema(db)
	require.NoError(t, err)

	return db
}

// NewTestDBMinimal creates an in-memory SQLite database without schema.
//
// Use this to test schema creation itself (CreateSchema, EnsureSchema,
// version stamping) with full control over when the schema is applied.
func NewTestDBMinimal(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	return db
}
