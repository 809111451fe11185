package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_UnsupportedDriver(t *testing.T) {
	_, err := Init("oracle", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestMigrations_UpAndDown(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "care.db")

	database, err := Init(DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(database) })

	require.NoError(t, Ping(ctx, database))
	require.NoError(t, RunMigrations(ctx, database.DB, DriverSQLite))

	version, err := MigrationVersion(ctx, database.DB, DriverSQLite)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	var count int
	require.NoError(t, database.Get(&count, `SELECT COUNT(*) FROM users`))
	assert.Zero(t, count)

	require.NoError(t, MigrateDown(ctx, database.DB, DriverSQLite))
	_, err = database.Exec(`SELECT COUNT(*) FROM users`)
	assert.Error(t, err)
}

func TestGetDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", getDialect(DriverSQLite))
	assert.Equal(t, "postgres", getDialect(DriverPostgres))
	assert.Equal(t, "mysql", getDialect(DriverMySQL))
	assert.Equal(t, "clickhouse", getDialect("clickhouse"))
}

func TestPing_NilDatabase(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}
