package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fundingthecommons/impactful-events/internal/application"
	"github.com/fundingthecommons/impactful-events/internal/persistence"
)

var (
	eventCounter   uint64
	venueCounter   uint64
	roomCounter    uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2026, time.May, 12, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Event fixtures -----------------------------

// EventFixture represents a deterministic event record that can be
// materialised for application or persistence tests.
type EventFixture struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a deterministic event fixture with optional overrides.
// The generated event spans three calendar days starting at the reference day.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	day := time.Date(referenceTime.Year(), referenceTime.Month(), referenceTime.Day(), 0, 0, 0, 0, time.UTC)
	fixture := EventFixture{
		ID:        fmt.Sprintf("event-%03d", idx),
		Name:      fmt.Sprintf("Event %03d", idx),
		StartDate: day,
		EndDate:   day.AddDate(0, 0, 2),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventName overrides the generated event name.
func WithEventName(name string) EventOption {
	return func(f *EventFixture) {
		f.Name = name
	}
}

// WithEventDates overrides the generated event date range.
func WithEventDates(start, end time.Time) EventOption {
	return func(f *EventFixture) {
		f.StartDate = start
		f.EndDate = end
	}
}

// Persistence converts the fixture to its persistence model.
func (f EventFixture) Persistence() persistence.Event {
	return persistence.Event(f)
}

// Application converts the fixture to its application model.
func (f EventFixture) Application() application.Event {
	return application.Event(f)
}

// ----------------------------- Venue fixtures -----------------------------

// VenueFixture represents a deterministic venue record.
type VenueFixture struct {
	ID          string
	EventID     string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VenueOption configures the generated venue fixture.
type VenueOption func(*VenueFixture)

// NewVenueFixture returns a deterministic venue fixture with optional overrides.
func NewVenueFixture(eventID string, opts ...VenueOption) VenueFixture {
	idx := atomic.AddUint64(&venueCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := VenueFixture{
		ID:        fmt.Sprintf("venue-%03d", idx),
		EventID:   eventID,
		Name:      fmt.Sprintf("Venue %03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithVenueID overrides the generated venue ID.
func WithVenueID(id string) VenueOption {
	return func(f *VenueFixture) {
		f.ID = id
	}
}

// WithVenueDescription sets the venue description.
func WithVenueDescription(description string) VenueOption {
	return func(f *VenueFixture) {
		f.Description = &description
	}
}

// Persistence converts the fixture to its persistence model.
func (f VenueFixture) Persistence() persistence.Venue {
	return persistence.Venue(f)
}

// Application converts the fixture to its application model.
func (f VenueFixture) Application() application.Venue {
	return application.Venue(f)
}

// ----------------------------- Room fixtures ------------------------------

// RoomFixture represents a deterministic room record.
type RoomFixture struct {
	ID        string
	VenueID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(venueID string, opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		VenueID:   venueID,
		Name:      fmt.Sprintf("Room %03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// Persistence converts the fixture to its persistence model.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room(f)
}

// Application converts the fixture to its application model.
func (f RoomFixture) Application() application.Room {
	return application.Room(f)
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
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

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture. Each generated
// session occupies a distinct 30 minute slot so fixtures never collide unless
// a test arranges them to.
func NewSessionFixture(eventID, venueID string, opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		EventID:   eventID,
		VenueID:   venueID,
		Title:     fmt.Sprintf("Session %03d", idx),
		Start:     start,
		End:       start.Add(30 * time.Minute),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionRoom assigns the session to a room.
func WithSessionRoom(roomID string) SessionOption {
	return func(f *SessionFixture) {
		f.RoomID = &roomID
	}
}

// WithSessionSlot overrides the generated time slot.
func WithSessionSlot(start, end time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.Start = start
		f.End = end
	}
}

// WithSessionTitle overrides the generated title.
func WithSessionTitle(title string) SessionOption {
	return func(f *SessionFixture) {
		f.Title = title
	}
}

// Persistence converts the fixture to its persistence model.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session(f)
}

// Application converts the fixture to its application model.
func (f SessionFixture) Application() application.Session {
	return application.Session(f)
}
