// Package sqlite implements the persistence repositories on SQLite via the
// modernc.org driver. Dates are stored as YYYY-MM-DD text so lexicographic
// range scans match chronological order, and timestamps as RFC3339 UTC text.
package sqlite

import (
	"context"
	"fmt"
)

// Storage owns the connection pool and exposes the repository implementations
// backed by it.
type Storage struct {
	pool     *ConnectionPool
	Users    *UserRepository
	Entries  *EntryRepository
	Holidays *HolidayRepository
	Sessions *SessionRepository
}

// Open connects to the database at dsn and wires the repositories.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(DefaultConfig(dsn))
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:     pool,
		Users:    NewUserRepository(pool),
		Entries:  NewEntryRepository(pool),
		Holidays: NewHolidayRepository(pool),
		Sessions: NewSessionRepository(pool),
	}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping verifies database connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		timezone TEXT NOT NULL DEFAULT '',
		is_admin INTEGER NOT NULL DEFAULT 0,
		disabled INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		entry_date TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('office', 'leave')),
		leave_duration TEXT,
		half_day_portion TEXT,
		working_portion TEXT,
		start_time TEXT,
		end_time TEXT,
		note TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (user_id, entry_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_date ON entries (entry_date)`,
	`CREATE TABLE IF NOT EXISTS holidays (
		holiday_date TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		revoked_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at)`,
}

// Migrate creates the schema. Statements are idempotent so Migrate is safe to
// run on every startup.
func (s *Storage) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
