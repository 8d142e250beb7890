package application

import "time"

// Principal represents the authenticated caller invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// EventInput captures caller provided event fields.
type EventInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// Event represents an event whose agenda is managed by the service.
// StartDate and EndDate are day-granularity bounds; every session of the
// event must fall on a day within them.
type Event struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateEventParams wraps the data required to create an event.
type CreateEventParams struct {
	Principal Principal
	Input     EventInput
}

// UpdateEventParams wraps the data required to update an event.
type UpdateEventParams struct {
	Principal Principal
	EventID   string
	Input     EventInput
}

// VenueInput captures caller provided venue fields.
type VenueInput struct {
	EventID     string
	Name        string
	Description *string
}

// Venue represents a physical area within an event.
type Venue struct {
	ID          string
	EventID     string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateVenueParams wraps the data required to create a venue.
type CreateVenueParams struct {
	Principal Principal
	Input     VenueInput
}

// UpdateVenueParams wraps the data required to update a venue.
type UpdateVenueParams struct {
	Principal Principal
	VenueID   string
	Input     VenueInput
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name string
}

// Room represents a sub-division of a venue.
type Room struct {
	ID        string
	VenueID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateRoomParams wraps the data required to add a room to a venue.
type CreateRoomParams struct {
	Principal Principal
	VenueID   string
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// SessionInput captures caller provided session fields.
type SessionInput struct {
	EventID     string
	VenueID     string
	RoomID      *string
	Title       string
	Description *string
	Start       time.Time
	End         time.Time
}

// Session represents a scheduled unit of programming.
type Session struct {
	ID          string
	EventID     string
	VenueID     string
	RoomID      *string
	Title       string
	Description *string
	Start       time.Time
	End         time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateSessionParams wraps the data required to create a session.
type CreateSessionParams struct {
	Principal Principal
	Input     SessionInput
}

// CreateSessionsParams wraps the data required to create a batch of sessions.
type CreateSessionsParams struct {
	Principal Principal
	Inputs    []SessionInput
}

// UpdateSessionParams wraps the data required to update a session.
type UpdateSessionParams struct {
	Principal Principal
	SessionID string
	Input     SessionInput
}

// ListSessionsParams wraps the data required to list sessions.
type ListSessionsParams struct {
	Principal   Principal
	EventID     string
	VenueID     string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// ConflictWarning flags two sessions occupying overlapping intervals in the
// same conflict scope, surfaced on listings so organizers spot collisions.
type ConflictWarning struct {
	SessionID     string
	WithSessionID string
	VenueID       string
	RoomID        *string
}

// RescheduleParams wraps the data required to move a session to a new slot.
type RescheduleParams struct {
	Principal Principal
	SessionID string
	NewStart  time.Time
	NewRoomID *string
}

// SessionShift records one session displaced by a reschedule cascade.
type SessionShift struct {
	SessionID string
	OldStart  time.Time
	OldEnd    time.Time
	NewStart  time.Time
	NewEnd    time.Time
}

// RescheduleResult is the change manifest of a reschedule: the moved session
// in its final position, every cascaded session's shift, and whether the
// cascade hit its iteration bound before resolving every conflict.
type RescheduleResult struct {
	Moved     Session
	Shifted   []SessionShift
	Truncated bool
}
