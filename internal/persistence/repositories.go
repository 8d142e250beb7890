package persistence

import (
	"context"
	"time"
)

// EventRepository exposes CRUD operations for events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// VenueRepository exposes CRUD operations for venues.
type VenueRepository interface {
	CreateVenue(ctx context.Context, venue Venue) error
	UpdateVenue(ctx context.Context, venue Venue) error
	GetVenue(ctx context.Context, id string) (Venue, error)
	ListVenues(ctx context.Context, eventID string) ([]Venue, error)
	DeleteVenue(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, venueID string) ([]Room, error)
	CountRooms(ctx context.Context, venueID string) (int, error)
	DeleteRoom(ctx context.Context, id string) error
}

// SessionFilter narrows session queries.
type SessionFilter struct {
	EventID     string
	VenueID     string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// SessionScope identifies the conflict domain queried by ListOverlapping:
// a venue, narrowed to one room when RoomID is set, or to the venue's
// roomless sessions when it is nil.
type SessionScope struct {
	VenueID string
	RoomID  *string
}

// SessionRepository stores event sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	CreateSessions(ctx context.Context, sessions []Session) error
	UpdateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	// ListOverlapping returns sessions in scope whose [Start, End) interval
	// overlaps [start, end), excluding the given ids, ordered by start time
	// ascending with id as the tie-break.
	ListOverlapping(ctx context.Context, scope SessionScope, start, end time.Time, excludeIDs []string) ([]Session, error)
	// ApplyReschedule persists every change in one transaction; either all
	// placements apply or none do.
	ApplyReschedule(ctx context.Context, changes []SessionTimeChange) error
	DeleteSession(ctx context.Context, id string) error
}
