package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by backends when no record is stored under a key.
var ErrNotFound = errors.New("record not found")

// Backend persists opaque records by key.
type Backend interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// SQLiteBackend wraps the SQLite database connection and schema lifecycle.
type SQLiteBackend struct {
	db *sql.DB
}

var _ Backend = (*SQLiteBackend)(nil)

// OpenSQLite initializes the database connection, creating directories and schema as needed.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := &SQLiteBackend{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteBackend) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteBackend) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS local_records (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	);`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Put stores or replaces the record under key.
func (s *SQLiteBackend) Put(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO local_records (key, value, updated_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get returns the record under key or ErrNotFound.
func (s *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_records WHERE key = ?;`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(raw), nil
}

// Delete removes the record under key. Deleting a missing key is not an error.
func (s *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_records WHERE key = ?;`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
