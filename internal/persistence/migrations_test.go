package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrateSQLiteCreatesSchema(t *testing.T) {
	db, err := OpenSQLite("file::memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, MigrateSQLite(db.DB, zap.NewNop()))
	// second run is a no-op
	require.NoError(t, MigrateSQLite(db.DB, zap.NewNop()))

	for _, table := range []string{"users", "reports", "report_status_changes"} {
		var name string
		err := db.DB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
		require.Equal(t, table, name)
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	for _, dir := range []string{"migrations/postgres", "migrations/sqlite"} {
		entries, err := migrationFiles.ReadDir(dir)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
	}
}
