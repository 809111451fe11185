// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/nuvoor/careadmin/internal/db"
	"github.com/stretchr/testify/require"
)

// NewDB returns a migrated SQLite database living in the test's temp dir.
// A single connection keeps writes serialized, matching the row-level
// locking a server database would give concurrent updates.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	database, err := db.Init(db.DriverSQLite, path)
	require.NoError(t, err)
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(context.Background(), database.DB, db.DriverSQLite))

	t.Cleanup(func() { _ = db.Close(database) })
	return database
}
