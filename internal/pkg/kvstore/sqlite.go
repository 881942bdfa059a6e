package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Pure-Go driver, registered as "sqlite". No CGO needed.
	_ "modernc.org/sqlite"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key         TEXT    PRIMARY KEY,
    value       TEXT    NOT NULL,
    -- Unix milliseconds; 0 means the entry never expires.
    expires_at  INTEGER NOT NULL DEFAULT 0,
    updated_at  TEXT    NOT NULL
);
`

// SQLiteStore persists entries in a single SQLite table.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
	now       func() time.Time
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
//
//	store, err := kvstore.OpenSQLite("./data/storefront.db", "storefront")
func OpenSQLite(path, namespace string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// One writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(kvSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &SQLiteStore{db: db, namespace: namespace, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	const q = `
		INSERT INTO kv_entries (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`

	now := s.now().UTC()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixMilli()
	}

	_, err := s.db.ExecContext(ctx, q, key, value, expiresAt, now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: set %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value, expires_at FROM kv_entries WHERE key = ?`

	var value string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, q, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: get %q: %w", key, err)
	}

	if expiresAt > 0 && s.now().UTC().UnixMilli() >= expiresAt {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
			return "", fmt.Errorf("sqlite: expire %q: %w", key, err)
		}
		return "", nil
	}
	return value, nil
}

func (s *SQLiteStore) GenerateKey(operation, key string) string {
	return generateKey(s.namespace, operation, key)
}
