// Package postgres provides a rate-limit store backed by Postgres via sqlx.
// It is the right choice when several instances share one counter set.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/youming-ai/snatch-sub000/internal/ratelimit/store"
)

const table = "rate_limit_windows"

// Schema for the backing table. Applied at startup if missing.
const schema = `
CREATE TABLE IF NOT EXISTS rate_limit_windows (
	client_key   TEXT PRIMARY KEY,
	window_start TIMESTAMPTZ NOT NULL,
	count        INTEGER NOT NULL
)`

// Store implements the rate-limit store port on a Postgres connection pool.
type Store struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

// NewStore connects to Postgres, ensures the backing table exists, and
// configures the connection pool.
func NewStore(dsn string, maxOpen, maxIdle int) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure rate limit table: %w", err)
	}

	return &Store{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// Get returns the record for a key.
func (s *Store) Get(ctx context.Context, key string) (store.Record, bool, error) {
	query, args, err := s.sb.
		Select("window_start", "count").
		From(table).
		Where(sq.Eq{"client_key": key}).
		ToSql()
	if err != nil {
		return store.Record{}, false, fmt.Errorf("failed to build query: %w", err)
	}

	var row struct {
		WindowStart time.Time `db:"window_start"`
		Count       int       `db:"count"`
	}
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Record{}, false, nil
		}
		return store.Record{}, false, fmt.Errorf("failed to read record: %w", err)
	}

	return store.Record{WindowStart: row.WindowStart, Count: row.Count}, true, nil
}

// Put upserts the record for a key.
func (s *Store) Put(ctx context.Context, key string, rec store.Record) error {
	query, args, err := s.sb.
		Insert(table).
		Columns("client_key", "window_start", "count").
		Values(key, rec.WindowStart, rec.Count).
		Suffix("ON CONFLICT (client_key) DO UPDATE SET window_start = EXCLUDED.window_start, count = EXCLUDED.count").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}

	return nil
}

// Delete removes the record for a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	query, args, err := s.sb.
		Delete(table).
		Where(sq.Eq{"client_key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	return nil
}

// Sweep deletes records whose window started before the cutoff.
func (s *Store) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	query, args, err := s.sb.
		Delete(table).
		Where(sq.Lt{"window_start": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build sweep: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep records: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}

	return int(removed), nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
