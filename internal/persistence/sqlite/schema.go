package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations lists the schema steps applied in order. The SQLite
// user_version pragma records how many have run, so restarting a deployed
// service only applies the tail.
var migrations = []string{
	`CREATE TABLE events (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_date >= start_date)
	)`,
	`CREATE TABLE venues (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE rooms (
		id TEXT PRIMARY KEY,
		venue_id TEXT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		venue_id TEXT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
		room_id TEXT REFERENCES rooms(id) ON DELETE SET NULL,
		title TEXT NOT NULL,
		description TEXT,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_time > start_time)
	)`,
	`CREATE INDEX idx_sessions_venue_start ON sessions(venue_id, start_time)`,
	`CREATE INDEX idx_sessions_event ON sessions(event_id)`,
}

// Migrate brings the database schema up to date.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	var version int
	if err := pool.DB().QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version < 0 || version > len(migrations) {
		return fmt.Errorf("unexpected schema version %d (have %d migrations)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		step := migrations[i]
		next := i + 1
		err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(step); err != nil {
				return fmt.Errorf("migration %d failed: %w", next, err)
			}
			// PRAGMA does not accept bind parameters.
			if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", next)); err != nil {
				return fmt.Errorf("failed to record schema version %d: %w", next, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
