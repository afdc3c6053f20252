package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore persists session entries in the session_entries table
// created by the embedded migrations.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgresStore creates a store over an open database handle.
func NewPostgresStore(db *sql.DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl}
}

// Open connects to Postgres through the pgx database/sql driver.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

const getEntrySQL = `SELECT value FROM session_entries
WHERE session_id = $1 AND key = $2 AND (expires_at IS NULL OR expires_at > now())`

func (s *PostgresStore) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, getEntrySQL, sessionID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session entry: %w", err)
	}
	return value, nil
}

const putEntrySQL = `INSERT INTO session_entries (session_id, key, value, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`

func (s *PostgresStore) Put(ctx context.Context, sessionID, key string, value []byte) error {
	var expiresAt sql.NullTime
	if s.ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(s.ttl), Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, putEntrySQL, sessionID, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to put session entry: %w", err)
	}
	return nil
}

const deleteEntrySQL = `DELETE FROM session_entries WHERE session_id = $1 AND key = $2`

func (s *PostgresStore) Delete(ctx context.Context, sessionID, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteEntrySQL, sessionID, key); err != nil {
		return fmt.Errorf("failed to delete session entry: %w", err)
	}
	return nil
}

const purgeExpiredSQL = `DELETE FROM session_entries WHERE expires_at IS NOT NULL AND expires_at <= now()`

// PurgeExpired removes expired rows and returns how many were deleted.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, purgeExpiredSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired session entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged session entries: %w", err)
	}
	return n, nil
}
