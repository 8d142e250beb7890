package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fundingthecommons/impactful-events/internal/persistence"
)

func setupTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	path := filepath.Join(t.TempDir(), "agenda.db")
	pool, err := NewConnectionPool("file:" + path)
	if err != nil {
		t.Fatalf("NewConnectionPool failed: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	if err := Migrate(context.Background(), pool); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return pool
}

func seedEvent(t *testing.T, pool *ConnectionPool, id string) persistence.Event {
	t.Helper()

	event := persistence.Event{
		ID:        id,
		Name:      "Event " + id,
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := NewEventRepository(pool).CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("seed event %s: %v", id, err)
	}
	return event
}

func seedVenue(t *testing.T, pool *ConnectionPool, id, eventID string) persistence.Venue {
	t.Helper()

	venue := persistence.Venue{
		ID:        id,
		EventID:   eventID,
		Name:      "Venue " + id,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := NewVenueRepository(pool).CreateVenue(context.Background(), venue); err != nil {
		t.Fatalf("seed venue %s: %v", id, err)
	}
	return venue
}

func seedRoom(t *testing.T, pool *ConnectionPool, id, venueID string) persistence.Room {
	t.Helper()

	room := persistence.Room{
		ID:        id,
		VenueID:   venueID,
		Name:      "Room " + id,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := NewRoomRepository(pool).CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("seed room %s: %v", id, err)
	}
	return room
}

func TestErrorMapper(t *testing.T) {
	mapper := NewErrorMapper()

	cases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "unique", err: errors.New("constraint failed: UNIQUE constraint failed: events.id"), sentinel: persistence.ErrDuplicate},
		{name: "foreign key", err: errors.New("constraint failed: FOREIGN KEY constraint failed"), sentinel: persistence.ErrForeignKeyViolation},
		{name: "check", err: errors.New("constraint failed: CHECK constraint failed: sessions"), sentinel: persistence.ErrConstraintViolation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if mapped := mapper.MapError(tc.err); !errors.Is(mapped, tc.sentinel) {
				t.Fatalf("MapError(%v) = %v, want %v", tc.err, mapped, tc.sentinel)
			}
		})
	}

	if mapper.MapError(nil) != nil {
		t.Fatal("nil must map to nil")
	}
}

func TestIsLockedError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		locked bool
	}{
		{name: "nil", err: nil, locked: false},
		{name: "locked", err: errors.New("database is locked (5) (SQLITE_BUSY)"), locked: true},
		{name: "busy", err: errors.New("database is busy"), locked: true},
		{name: "constraint", err: errors.New("UNIQUE constraint failed: events.id"), locked: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isLockedError(tc.err); got != tc.locked {
				t.Fatalf("isLockedError(%v) = %v, want %v", tc.err, got, tc.locked)
			}
		})
	}
}

func TestWithTransactionDoesNotRetryPermanentErrors(t *testing.T) {
	pool := setupTestPool(t)

	attempts := 0
	wantErr := errors.New("no such table: nowhere")
	err := pool.WithTransaction(context.Background(), func(tx *sql.Tx) error {
		attempts++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("WithTransaction returned %v, want %v", err, wantErr)
	}
	if attempts != 1 {
		t.Fatalf("permanent error retried %d times", attempts)
	}
}

func TestFormatTimeOrdering(t *testing.T) {
	earlier := formatTime(time.Date(2026, 9, 1, 9, 59, 59, 900000000, time.UTC))
	later := formatTime(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))

	if !(earlier < later) {
		t.Fatalf("stored strings must order chronologically: %q vs %q", earlier, later)
	}

	parsed, err := parseStoredTime(later)
	if err != nil {
		t.Fatalf("parseStoredTime failed: %v", err)
	}
	if !parsed.Equal(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("round trip changed value: %v", parsed)
	}
}
