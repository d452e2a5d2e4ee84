// Package sqlite implements the store.KV contract on a single SQLite
// key/value table.
package sqlite

import (
	"database/sql"

	_ "modernc.org/sqlite"
	"taskdeck/internal/utils"
	"taskdeck/store"
)

// Store persists JSON values in a kv table keyed by namespaced strings.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the database at path and initializes the schema.
// Use ":memory:" for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates the kv table if it doesn't exist
func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Read returns the value stored under key, or fallback when the key is
// missing or the database is unreadable. It never fails.
func (s *Store) Read(key string, fallback []byte) []byte {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			utils.Debugf("store read %s: %v", key, err)
		}
		return fallback
	}
	return []byte(value)
}

// Write upserts the value under key. Failures (disk full, locked database)
// are logged and the value is dropped; losing a write is preferable to
// failing the mutation that produced it.
func (s *Store) Write(key string, value []byte) {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(value),
	)
	if err != nil {
		utils.Warnf("store write %s dropped: %v", key, err)
	}
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Verify interface compliance at compile time
var _ store.KV = (*Store)(nil)
