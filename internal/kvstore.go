package internal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// KVStore is durable string-valued key-value storage. SetMany and Delete
// apply all of their keys or none.
type KVStore interface {
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	SetMany(ctx context.Context, pairs []KeyValuePair) error
	Delete(ctx context.Context, keys ...string) error
}

// SQLiteKV stores keys in the kv table of a SQLite database
type SQLiteKV struct {
	db   *sql.DB
	path string
}

// NewSQLiteKV wraps an open database
func NewSQLiteKV(db *sql.DB, path string) *SQLiteKV {
	return &SQLiteKV{db: db, path: path}
}

// OpenSQLiteKV opens the database at path and wraps it
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteKV(db, path), nil
}

// Path returns the database file path
func (s *SQLiteKV) Path() string {
	return s.path
}

// Close closes the underlying database
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// Get reads a single key
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	values, err := s.GetMany(ctx, []string{key})
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// GetMany implements KVStore
func (s *SQLiteKV) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	values, err := QueryKV(ctx, s.db, keys)
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "read", Err: err}
	}
	return values, nil
}

// SetMany implements KVStore
func (s *SQLiteKV) SetMany(ctx context.Context, pairs []KeyValuePair) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range pairs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
				p.Key, p.Value); err != nil {
				return fmt.Errorf("upsert %s: %w", p.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// Delete implements KVStore
func (s *SQLiteKV) Delete(ctx context.Context, keys ...string) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return &StorageError{Path: s.path, Op: "delete", Err: err}
	}
	return nil
}

func (s *SQLiteKV) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// MemoryKV is a process-local KVStore
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryKV creates an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get reads a single key
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// GetMany implements KVStore
func (m *MemoryKV) GetMany(_ context.Context, keys []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// SetMany implements KVStore
func (m *MemoryKV) SetMany(_ context.Context, pairs []KeyValuePair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pairs {
		m.values[p.Key] = p.Value
	}
	return nil
}

// Delete implements KVStore
func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Len returns the number of stored keys
func (m *MemoryKV) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
