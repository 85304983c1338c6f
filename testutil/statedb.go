package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// WriteStateKeys writes raw rows into the kv table of the state database at
// dbPath, creating it if needed. Tests use it to plant partial or corrupt
// session state behind the client's back.
func WriteStateKeys(t *testing.T, dbPath string, values map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create state directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open state database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		t.Fatalf("Failed to create kv table: %v", err)
	}

	for k, v := range values {
		if _, err := db.Exec("INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", k, v); err != nil {
			t.Fatalf("Failed to write key %s: %v", k, err)
		}
	}
}

// DeleteStateKey removes one row from the kv table
func DeleteStateKey(t *testing.T, dbPath, key string) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open state database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		t.Fatalf("Failed to delete key %s: %v", key, err)
	}
}

// CountStateKeys returns the number of rows in the kv table
func CountStateKeys(t *testing.T, dbPath string) int {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open state database: %v", err)
	}
	defer func() { _ = db.Close() }()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM kv").Scan(&n); err != nil {
		t.Fatalf("Failed to count keys: %v", err)
	}
	return n
}
