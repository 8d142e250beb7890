package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fundingthecommons/impactful-events/internal/persistence"
)

func TestEventRepository_CreateAndGet(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewEventRepository(pool)

	event := persistence.Event{
		ID:        "event1",
		Name:      "Impact Summit",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	retrieved, err := repo.GetEvent(context.Background(), "event1")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if retrieved.Name != "Impact Summit" {
		t.Errorf("Expected name 'Impact Summit', got '%s'", retrieved.Name)
	}
	if !retrieved.StartDate.Equal(event.StartDate) || !retrieved.EndDate.Equal(event.EndDate) {
		t.Errorf("Expected dates preserved, got [%v, %v]", retrieved.StartDate, retrieved.EndDate)
	}
}

func TestEventRepository_DuplicateID(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewEventRepository(pool)
	seedEvent(t, pool, "event1")

	err := repo.CreateEvent(context.Background(), persistence.Event{
		ID:        "event1",
		Name:      "Duplicate",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
}

func TestEventRepository_GetMissing(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewEventRepository(pool)

	if _, err := repo.GetEvent(context.Background(), "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestEventRepository_DeleteCascades(t *testing.T) {
	pool := setupTestPool(t)
	seedEvent(t, pool, "event1")
	seedVenue(t, pool, "venue1", "event1")
	sessions := NewSessionRepository(pool)
	seedSession(t, sessions, "a", "event1", "venue1", nil, slot(10, 0), slot(10, 30))

	if err := NewEventRepository(pool).DeleteEvent(context.Background(), "event1"); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}

	if _, err := NewVenueRepository(pool).GetVenue(context.Background(), "venue1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected venue removed with its event, got %v", err)
	}
	if _, err := sessions.GetSession(context.Background(), "a"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected session removed with its event, got %v", err)
	}
}

func TestVenueRepository_ListByEvent(t *testing.T) {
	pool := setupTestPool(t)
	seedEvent(t, pool, "event1")
	seedEvent(t, pool, "event2")
	seedVenue(t, pool, "venue1", "event1")
	seedVenue(t, pool, "venue2", "event2")

	venues, err := NewVenueRepository(pool).ListVenues(context.Background(), "event1")
	if err != nil {
		t.Fatalf("ListVenues failed: %v", err)
	}
	if len(venues) != 1 || venues[0].ID != "venue1" {
		t.Fatalf("Expected only venue1, got %+v", venues)
	}
}

func TestRoomRepository_CountRooms(t *testing.T) {
	pool := setupTestPool(t)
	seedEvent(t, pool, "event1")
	seedVenue(t, pool, "venue1", "event1")
	seedRoom(t, pool, "room1", "venue1")
	seedRoom(t, pool, "room2", "venue1")

	count, err := NewRoomRepository(pool).CountRooms(context.Background(), "venue1")
	if err != nil {
		t.Fatalf("CountRooms failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 rooms, got %d", count)
	}
}
