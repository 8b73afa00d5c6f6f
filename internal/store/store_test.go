package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesFileAndTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)
	assert.Subset(t, names(t, s.db, "SELECT name FROM sqlite_master WHERE type='table'"), []string{"documents", "versions"})
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")

	for range 3 {
		s, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestOpen_UnwritableDirectory(t *testing.T) {
	_, err := Open("/nonexistent/dir/blocks.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open store")
}

func TestClose_Unopened(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestDB_IsUsable(t *testing.T) {
	s := createTestStore(t)
	require.NotNil(t, s.DB())
	assert.NoError(t, s.DB().Ping())
}

func TestOpen_ConnectionPragmas(t *testing.T) {
	s := createTestStore(t)

	// SQLite reports enums numerically and journal_mode in lower case.
	want := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
	}
	require.Len(t, connPragmas, len(want))
	for _, p := range connPragmas {
		got, err := s.pragma(p.name)
		require.NoError(t, err, p.name)
		assert.Equal(t, want[p.name], got, p.name)
	}
}

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	tests := map[string][]string{
		"documents": {"id", "name", "source_path", "created_at", "updated_at"},
		"versions":  {"document_id", "seq", "version", "hash", "body", "message", "saved_at"},
	}
	for table, want := range tests {
		assert.Subset(t, names(t, s.db, "SELECT name FROM pragma_table_info('"+table+"')"), want, table)
	}
}

func TestSchema_VersionRequiresDocument(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO versions (document_id, seq, version, hash, body, saved_at)
		VALUES ('missing', 1, 0, 'h', '{}', '2025-01-01T00:00:00Z')
	`)
	assert.Error(t, err)
}

func TestOpen_UpgradesUnversionedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	// A file with the tables but no hash index and user_version 0.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	_, err = db.Exec("DROP INDEX IF EXISTS idx_versions_hash")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	assert.Contains(t,
		names(t, s.db, "SELECT name FROM sqlite_master WHERE type='index' AND tbl_name='versions'"),
		"idx_versions_hash")
}

// names runs a single-column query and collects the results.
func names(t *testing.T, db *sql.DB, query string) []string {
	t.Helper()
	rows, err := db.Query(query)
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		out = append(out, name)
	}
	require.NoError(t, rows.Err())
	return out
}
