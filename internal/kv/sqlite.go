package kv

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

// SQLiteStore keeps the KV data in a local SQLite file. Expired rows are
// invisible to reads and removed lazily.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// SQLiteOption configures a SQLiteStore
type SQLiteOption func(*SQLiteStore)

// WithClock overrides time.Now for expiry checks
func WithClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) { s.now = now }
}

// OpenSQLiteStore opens (creating if needed) the database at path
func OpenSQLiteStore(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	s, err := NewSQLiteStore(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database and creates the schema
func NewSQLiteStore(db *sql.DB, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		expires_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, s.now().Unix()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: s.now().Add(ttl).Unix(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) ListKeys(ctx context.Context, prefix string, limit int) ([]Key, error) {
	if _, err := s.Purge(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, expires_at FROM kv WHERE substr(key, 1, length(?)) = ? ORDER BY key LIMIT ?`,
		prefix, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k Key
		var expiresAt sql.NullInt64
		if err := rows.Scan(&k.Name, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if expiresAt.Valid {
			k.Expiration = expiresAt.Int64
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return keys, nil
}

// Purge deletes expired rows and returns how many were removed
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired keys: %w", err)
	}
	return res.RowsAffected()
}
