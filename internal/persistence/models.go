package persistence

import "time"

// Event represents an event whose agenda is managed by the platform.
type Event struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Venue represents a physical area within an event, the top-level scope for
// scheduling conflicts.
type Venue struct {
	ID          string
	EventID     string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Room represents an optional sub-division of a venue.
type Room struct {
	ID        string
	VenueID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session represents a scheduled unit of programming stored in persistence.
// RoomID, when set, references a room belonging to VenueID.
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

// SessionTimeChange records the new placement persisted for one session
// during a reschedule. RoomID is nil when the room assignment is unchanged.
type SessionTimeChange struct {
	SessionID string
	Start     time.Time
	End       time.Time
	RoomID    *string
	SetRoom   bool
}
