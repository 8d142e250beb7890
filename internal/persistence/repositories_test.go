package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fundingthecommons/impactful-events/internal/persistence"
	"github.com/fundingthecommons/impactful-events/internal/testfixtures"
)

func seedAgenda(t *testing.T, harness *testfixtures.SQLiteHarness) (persistence.Event, persistence.Venue) {
	t.Helper()

	ctx := context.Background()
	event := testfixtures.NewEventFixture().Persistence()
	if err := harness.Events.CreateEvent(ctx, event); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	venue := testfixtures.NewVenueFixture(event.ID).Persistence()
	if err := harness.Venues.CreateVenue(ctx, venue); err != nil {
		t.Fatalf("CreateVenue failed: %v", err)
	}
	return event, venue
}

func TestEventRepository(t *testing.T) {
	t.Parallel()

	t.Run("creates, reads, updates, and deletes events", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		event := testfixtures.NewEventFixture(
			testfixtures.WithEventName("Funding the Commons"),
		).Persistence()

		if err := harness.Events.CreateEvent(ctx, event); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}

		fetched, err := harness.Events.GetEvent(ctx, event.ID)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if fetched.Name != "Funding the Commons" {
			t.Fatalf("unexpected name %q", fetched.Name)
		}

		fetched.Name = "Renamed"
		if err := harness.Events.UpdateEvent(ctx, fetched); err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}

		if err := harness.Events.DeleteEvent(ctx, event.ID); err != nil {
			t.Fatalf("DeleteEvent failed: %v", err)
		}
		if _, err := harness.Events.GetEvent(ctx, event.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestSessionRepositoryThroughHarness(t *testing.T) {
	t.Parallel()

	t.Run("fixtures occupy distinct slots", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		_, venue := seedAgenda(t, harness)

		first := testfixtures.NewSessionFixture(venue.EventID, venue.ID).Persistence()
		second := testfixtures.NewSessionFixture(venue.EventID, venue.ID).Persistence()

		if err := harness.Sessions.CreateSessions(ctx, []persistence.Session{first, second}); err != nil {
			t.Fatalf("CreateSessions failed: %v", err)
		}

		scope := persistence.SessionScope{VenueID: venue.ID}
		overlapping, err := harness.Sessions.ListOverlapping(ctx, scope, first.Start, first.End, nil)
		if err != nil {
			t.Fatalf("ListOverlapping failed: %v", err)
		}
		if len(overlapping) != 1 || overlapping[0].ID != first.ID {
			t.Fatalf("expected only the first fixture in its slot, got %+v", overlapping)
		}
	})

	t.Run("reschedule persists across restarts of the repository layer", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		_, venue := seedAgenda(t, harness)

		start := testfixtures.ReferenceTime().Add(48 * time.Hour)
		session := testfixtures.NewSessionFixture(venue.EventID, venue.ID,
			testfixtures.WithSessionSlot(start, start.Add(30*time.Minute)),
		).Persistence()
		if err := harness.Sessions.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}

		newStart := start.Add(15 * time.Minute)
		err := harness.Sessions.ApplyReschedule(ctx, []persistence.SessionTimeChange{{
			SessionID: session.ID,
			Start:     newStart,
			End:       newStart.Add(30 * time.Minute),
		}})
		if err != nil {
			t.Fatalf("ApplyReschedule failed: %v", err)
		}

		fetched, err := harness.Sessions.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if !fetched.Start.Equal(newStart) {
			t.Fatalf("expected start %v, got %v", newStart, fetched.Start)
		}
	})
}
