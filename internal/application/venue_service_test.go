package application

import (
	"context"
	"errors"
	"testing"

	"github.com/fundingthecommons/impactful-events/internal/persistence"
)

type venueRepoStub struct {
	venues map[string]Venue
}

func newVenueRepoStub(venues ...Venue) *venueRepoStub {
	stub := &venueRepoStub{venues: make(map[string]Venue)}
	for _, venue := range venues {
		stub.venues[venue.ID] = venue
	}
	return stub
}

func (v *venueRepoStub) CreateVenue(ctx context.Context, venue Venue) (Venue, error) {
	v.venues[venue.ID] = venue
	return venue, nil
}

func (v *venueRepoStub) GetVenue(ctx context.Context, id string) (Venue, error) {
	venue, ok := v.venues[id]
	if !ok {
		return Venue{}, persistence.ErrNotFound
	}
	return venue, nil
}

func (v *venueRepoStub) UpdateVenue(ctx context.Context, venue Venue) (Venue, error) {
	if _, ok := v.venues[venue.ID]; !ok {
		return Venue{}, persistence.ErrNotFound
	}
	v.venues[venue.ID] = venue
	return venue, nil
}

func (v *venueRepoStub) DeleteVenue(ctx context.Context, id string) error {
	if _, ok := v.venues[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(v.venues, id)
	return nil
}

func (v *venueRepoStub) ListVenues(ctx context.Context, eventID string) ([]Venue, error) {
	var out []Venue
	for _, venue := range v.venues {
		if eventID == "" || venue.EventID == eventID {
			out = append(out, venue)
		}
	}
	return out, nil
}

type roomRepoStub struct {
	rooms map[string]Room
}

func newRoomRepoStub(rooms ...Room) *roomRepoStub {
	stub := &roomRepoStub{rooms: make(map[string]Room)}
	for _, room := range rooms {
		stub.rooms[room.ID] = room
	}
	return stub
}

func (r *roomRepoStub) CreateRoom(ctx context.Context, room Room) (Room, error) {
	r.rooms[room.ID] = room
	return room, nil
}

func (r *roomRepoStub) GetRoom(ctx context.Context, id string) (Room, error) {
	room, ok := r.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (r *roomRepoStub) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	if _, ok := r.rooms[room.ID]; !ok {
		return Room{}, persistence.ErrNotFound
	}
	r.rooms[room.ID] = room
	return room, nil
}

func (r *roomRepoStub) DeleteRoom(ctx context.Context, id string) error {
	if _, ok := r.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.rooms, id)
	return nil
}

func (r *roomRepoStub) ListRooms(ctx context.Context, venueID string) ([]Room, error) {
	var out []Room
	for _, room := range r.rooms {
		if room.VenueID == venueID {
			out = append(out, room)
		}
	}
	return out, nil
}

func (r *roomRepoStub) CountRooms(ctx context.Context, venueID string) (int, error) {
	count := 0
	for _, room := range r.rooms {
		if room.VenueID == venueID {
			count++
		}
	}
	return count, nil
}

type eventDirectoryStub struct {
	known map[string]bool
}

func (e *eventDirectoryStub) EventExists(ctx context.Context, id string) (bool, error) {
	return e.known[id], nil
}

func testVenueService(t *testing.T, venues *venueRepoStub, rooms *roomRepoStub) *VenueService {
	t.Helper()
	counter := 0
	return NewVenueService(
		venues,
		rooms,
		&eventDirectoryStub{known: map[string]bool{"event-1": true}},
		func() string { counter++; return "generated" },
		fixedClock(t),
	)
}

func TestCreateVenue_RejectsUnknownEvent(t *testing.T) {
	t.Parallel()

	svc := testVenueService(t, newVenueRepoStub(), newRoomRepoStub())

	_, err := svc.CreateVenue(context.Background(), CreateVenueParams{
		Principal: Principal{UserID: "admin", IsAdmin: true},
		Input:     VenueInput{EventID: "event-unknown", Name: "Main Hall"},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["event_id"]; !ok {
		t.Fatalf("expected event_id field error, got %+v", vErr.FieldErrors)
	}
}

func TestCreateVenue_NormalizesBlankDescription(t *testing.T) {
	t.Parallel()

	svc := testVenueService(t, newVenueRepoStub(), newRoomRepoStub())

	blank := "   "
	venue, err := svc.CreateVenue(context.Background(), CreateVenueParams{
		Principal: Principal{UserID: "admin", IsAdmin: true},
		Input:     VenueInput{EventID: "event-1", Name: "Main Hall", Description: &blank},
	})
	if err != nil {
		t.Fatalf("CreateVenue returned error: %v", err)
	}
	if venue.Description != nil {
		t.Fatalf("blank description must normalize to nil, got %q", *venue.Description)
	}
}

func TestCreateRoom_EnforcesPerVenueLimit(t *testing.T) {
	t.Parallel()

	venues := newVenueRepoStub(Venue{ID: "venue-1", EventID: "event-1", Name: "Main Hall"})
	rooms := newRoomRepoStub(
		Room{ID: "room-1", VenueID: "venue-1", Name: "A"},
		Room{ID: "room-2", VenueID: "venue-1", Name: "B"},
		Room{ID: "room-3", VenueID: "venue-1", Name: "C"},
	)
	svc := testVenueService(t, venues, rooms)

	_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
		Principal: Principal{UserID: "admin", IsAdmin: true},
		VenueID:   "venue-1",
		Input:     RoomInput{Name: "D"},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["rooms"]; !ok {
		t.Fatalf("expected rooms field error, got %+v", vErr.FieldErrors)
	}
	if len(rooms.rooms) != 3 {
		t.Fatalf("room count changed to %d", len(rooms.rooms))
	}
}

func TestCreateRoom_AllowsUpToLimit(t *testing.T) {
	t.Parallel()

	venues := newVenueRepoStub(Venue{ID: "venue-1", EventID: "event-1", Name: "Main Hall"})
	rooms := newRoomRepoStub(
		Room{ID: "room-1", VenueID: "venue-1", Name: "A"},
		Room{ID: "room-2", VenueID: "venue-1", Name: "B"},
	)
	svc := testVenueService(t, venues, rooms)

	room, err := svc.CreateRoom(context.Background(), CreateRoomParams{
		Principal: Principal{UserID: "admin", IsAdmin: true},
		VenueID:   "venue-1",
		Input:     RoomInput{Name: "C"},
	})
	if err != nil {
		t.Fatalf("CreateRoom returned error: %v", err)
	}
	if room.VenueID != "venue-1" || room.Name != "C" {
		t.Fatalf("unexpected room: %+v", room)
	}
}

func TestUpdateVenue_OwningEventIsImmutable(t *testing.T) {
	t.Parallel()

	venues := newVenueRepoStub(Venue{ID: "venue-1", EventID: "event-1", Name: "Main Hall"})
	svc := testVenueService(t, venues, newRoomRepoStub())

	_, err := svc.UpdateVenue(context.Background(), UpdateVenueParams{
		Principal: Principal{UserID: "admin", IsAdmin: true},
		VenueID:   "venue-1",
		Input:     VenueInput{EventID: "event-2", Name: "Renamed"},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["event_id"]; !ok {
		t.Fatalf("expected event_id field error, got %+v", vErr.FieldErrors)
	}
}

func TestDeleteRoom_RequiresAdmin(t *testing.T) {
	t.Parallel()

	rooms := newRoomRepoStub(Room{ID: "room-1", VenueID: "venue-1", Name: "A"})
	svc := testVenueService(t, newVenueRepoStub(), rooms)

	err := svc.DeleteRoom(context.Background(), Principal{UserID: "member"}, "room-1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
