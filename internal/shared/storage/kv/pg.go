package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGStore implements Store on the kv_collections table.
type PGStore struct {
	DB            *sql.DB
	MaxValueBytes int64
}

func (s *PGStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const query = `SELECT value FROM kv_collections WHERE key = $1`
	var value []byte
	err := s.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PGStore) Set(ctx context.Context, key string, value []byte) error {
	if s.MaxValueBytes > 0 && int64(len(value)) > s.MaxValueBytes {
		return fmt.Errorf("set %s (%d bytes): %w", key, len(value), ErrQuotaExceeded)
	}
	const query = `
INSERT INTO kv_collections (key, value, size_bytes, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value,
    size_bytes = EXCLUDED.size_bytes,
    updated_at = EXCLUDED.updated_at`

	if _, err := s.DB.ExecContext(ctx, query, key, value, len(value)); err != nil {
		if isPGQuota(err) {
			return fmt.Errorf("set %s: %w", key, ErrQuotaExceeded)
		}
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Insufficient-resources class 53 codes plus program_limit_exceeded.
func isPGQuota(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "53100", "53200", "54000":
		return true
	}
	return false
}
