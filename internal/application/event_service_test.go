package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fundingthecommons/impactful-events/internal/persistence"
)

type eventRepoStub struct {
	events map[string]Event
	err    error
}

func newEventRepoStub(events ...Event) *eventRepoStub {
	stub := &eventRepoStub{events: make(map[string]Event)}
	for _, event := range events {
		stub.events[event.ID] = event
	}
	return stub
}

func (e *eventRepoStub) CreateEvent(ctx context.Context, event Event) (Event, error) {
	if e.err != nil {
		return Event{}, e.err
	}
	e.events[event.ID] = event
	return event, nil
}

func (e *eventRepoStub) GetEvent(ctx context.Context, id string) (Event, error) {
	if e.err != nil {
		return Event{}, e.err
	}
	event, ok := e.events[id]
	if !ok {
		return Event{}, persistence.ErrNotFound
	}
	return event, nil
}

func (e *eventRepoStub) UpdateEvent(ctx context.Context, event Event) (Event, error) {
	if e.err != nil {
		return Event{}, e.err
	}
	if _, ok := e.events[event.ID]; !ok {
		return Event{}, persistence.ErrNotFound
	}
	e.events[event.ID] = event
	return event, nil
}

func (e *eventRepoStub) DeleteEvent(ctx context.Context, id string) error {
	if e.err != nil {
		return e.err
	}
	if _, ok := e.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(e.events, id)
	return nil
}

func (e *eventRepoStub) ListEvents(ctx context.Context) ([]Event, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([]Event, 0, len(e.events))
	for _, event := range e.events {
		out = append(out, event)
	}
	return out, nil
}

func fixedClock(t *testing.T) func() time.Time {
	t.Helper()
	return func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
}

func TestCreateEvent_TruncatesDatesToUTCDays(t *testing.T) {
	t.Parallel()

	repo := newEventRepoStub()
	svc := NewEventService(repo, func() string { return "event-1" }, fixedClock(t))

	jst := time.FixedZone("JST", 9*60*60)
	event, err := svc.CreateEvent(context.Background(), CreateEventParams{
		Principal: Principal{UserID: "admin", IsAdmin: true},
		Input: EventInput{
			Name:      "  Impact Summit  ",
			StartDate: time.Date(2026, 9, 1, 23, 30, 0, 0, jst),
			EndDate:   time.Date(2026, 9, 3, 1, 0, 0, 0, jst),
		},
	})
	if err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}

	if event.Name != "Impact Summit" {
		t.Fatalf("name = %q, want trimmed", event.Name)
	}
	if want := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC); !event.StartDate.Equal(want) {
		t.Fatalf("start date = %v, want %v", event.StartDate, want)
	}
	if want := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC); !event.EndDate.Equal(want) {
		t.Fatalf("end date = %v, want %v", event.EndDate, want)
	}
}

func TestCreateEvent_RequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := NewEventService(newEventRepoStub(), func() string { return "event-1" }, fixedClock(t))

	_, err := svc.CreateEvent(context.Background(), CreateEventParams{
		Principal: Principal{UserID: "member"},
		Input: EventInput{
			Name:      "Summit",
			StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateEvent_RejectsReversedDates(t *testing.T) {
	t.Parallel()

	svc := NewEventService(newEventRepoStub(), func() string { return "event-1" }, fixedClock(t))

	_, err := svc.CreateEvent(context.Background(), CreateEventParams{
		Principal: Principal{UserID: "admin", IsAdmin: true},
		Input: EventInput{
			Name:      "Summit",
			StartDate: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["dates"]; !ok {
		t.Fatalf("expected dates field error, got %+v", vErr.FieldErrors)
	}
}

func TestUpdateEvent_MapsMissingEventToNotFound(t *testing.T) {
	t.Parallel()

	svc := NewEventService(newEventRepoStub(), func() string { return "event-1" }, fixedClock(t))

	_, err := svc.UpdateEvent(context.Background(), UpdateEventParams{
		Principal: Principal{UserID: "admin", IsAdmin: true},
		EventID:   "ghost",
		Input: EventInput{
			Name:      "Summit",
			StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEvent_RequiresAdmin(t *testing.T) {
	t.Parallel()

	repo := newEventRepoStub(Event{ID: "event-1", Name: "Summit"})
	svc := NewEventService(repo, func() string { return "" }, fixedClock(t))

	err := svc.DeleteEvent(context.Background(), Principal{UserID: "member"}, "event-1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, ok := repo.events["event-1"]; !ok {
		t.Fatal("event must not be deleted for an unauthorized caller")
	}
}
