package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// MaxRoomsPerVenue bounds how many rooms a venue may be divided into. The
// cascade core does not depend on it; it is surrounding validation.
const MaxRoomsPerVenue = 3

// VenueRepository captures the persistence operations needed by the service.
type VenueRepository interface {
	CreateVenue(ctx context.Context, venue Venue) (Venue, error)
	GetVenue(ctx context.Context, id string) (Venue, error)
	UpdateVenue(ctx context.Context, venue Venue) (Venue, error)
	DeleteVenue(ctx context.Context, id string) error
	ListVenues(ctx context.Context, eventID string) ([]Venue, error)
}

// VenueRoomRepository captures the room persistence operations needed by the service.
type VenueRoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
	ListRooms(ctx context.Context, venueID string) ([]Room, error)
	CountRooms(ctx context.Context, venueID string) (int, error)
}

// EventDirectory exposes event lookup operations.
type EventDirectory interface {
	EventExists(ctx context.Context, id string) (bool, error)
}

// VenueService orchestrates validation, authorization, and persistence for
// venues and their rooms.
type VenueService struct {
	venues      VenueRepository
	rooms       VenueRoomRepository
	events      EventDirectory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewVenueService constructs a venue service with the provided dependencies.
func NewVenueService(venues VenueRepository, rooms VenueRoomRepository, events EventDirectory, idGenerator func() string, now func() time.Time) *VenueService {
	return NewVenueServiceWithLogger(venues, rooms, events, idGenerator, now, nil)
}

// NewVenueServiceWithLogger constructs a venue service with a specified logger.
func NewVenueServiceWithLogger(venues VenueRepository, rooms VenueRoomRepository, events EventDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *VenueService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &VenueService{
		venues:      venues,
		rooms:       rooms,
		events:      events,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *VenueService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "VenueService", operation, attrs...)
}

// CreateVenue validates input and persists a new venue for administrators.
func (s *VenueService) CreateVenue(ctx context.Context, params CreateVenueParams) (venue Venue, err error) {
	if s == nil {
		err = fmt.Errorf("VenueService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateVenue", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create venue", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("venue_id", venue.ID).InfoContext(ctx, "venue created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(params.Input.EventID) == "" {
		vErr.add("event_id", "event is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureEventExists(ctx, params.Input.EventID); err != nil {
		return
	}

	venue = Venue{
		ID:          s.idGenerator(),
		EventID:     params.Input.EventID,
		Name:        strings.TrimSpace(params.Input.Name),
		Description: normalizeOptionalString(params.Input.Description),
		CreatedAt:   s.now(),
	}
	venue.UpdatedAt = venue.CreatedAt

	if s.venues == nil {
		return
	}

	var persisted Venue
	persisted, err = s.venues.CreateVenue(ctx, venue)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	venue = persisted
	return
}

// UpdateVenue applies validation and authorization before updating a venue.
func (s *VenueService) UpdateVenue(ctx context.Context, params UpdateVenueParams) (venue Venue, err error) {
	if s == nil {
		err = fmt.Errorf("VenueService is nil")
		return
	}
	if s.venues == nil {
		err = fmt.Errorf("venue repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateVenue",
		"principal_id", params.Principal.UserID,
		"venue_id", params.VenueID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update venue", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "venue updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	existing, getErr := s.venues.GetVenue(ctx, params.VenueID)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if params.Input.EventID != "" && params.Input.EventID != existing.EventID {
		vErr.add("event_id", "owning event cannot be changed")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.Description = normalizeOptionalString(params.Input.Description)
	updated.UpdatedAt = s.now()

	var persisted Venue
	persisted, err = s.venues.UpdateVenue(ctx, updated)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	venue = persisted
	return
}

// DeleteVenue removes a venue, its rooms, and its sessions.
func (s *VenueService) DeleteVenue(ctx context.Context, principal Principal, venueID string) (err error) {
	if s == nil {
		return fmt.Errorf("VenueService is nil")
	}
	if s.venues == nil {
		return fmt.Errorf("venue repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteVenue",
		"principal_id", principal.UserID,
		"venue_id", venueID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete venue", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "venue deleted")
	}()

	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	return mapRepoError(s.venues.DeleteVenue(ctx, venueID))
}

// GetVenue retrieves a single venue.
func (s *VenueService) GetVenue(ctx context.Context, id string) (Venue, error) {
	if s == nil || s.venues == nil {
		return Venue{}, fmt.Errorf("venue repository not configured")
	}
	venue, err := s.venues.GetVenue(ctx, id)
	if err != nil {
		return Venue{}, mapRepoError(err)
	}
	return venue, nil
}

// ListVenues enumerates venues, optionally narrowed to one event.
func (s *VenueService) ListVenues(ctx context.Context, eventID string) ([]Venue, error) {
	if s == nil || s.venues == nil {
		return nil, fmt.Errorf("venue repository not configured")
	}
	venues, err := s.venues.ListVenues(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return venues, nil
}

// CreateRoom adds a room to a venue, bounded by MaxRoomsPerVenue.
func (s *VenueService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("VenueService is nil")
		return
	}
	if s.rooms == nil || s.venues == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
		"venue_id", params.VenueID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if _, getErr := s.venues.GetVenue(ctx, params.VenueID); getErr != nil {
		err = mapRepoError(getErr)
		return
	}

	count, countErr := s.rooms.CountRooms(ctx, params.VenueID)
	if countErr != nil {
		err = mapRepoError(countErr)
		return
	}
	if count >= MaxRoomsPerVenue {
		vErr := &ValidationError{}
		vErr.add("rooms", fmt.Sprintf("a venue holds at most %d rooms", MaxRoomsPerVenue))
		err = vErr
		return
	}

	room = Room{
		ID:        s.idGenerator(),
		VenueID:   params.VenueID,
		Name:      strings.TrimSpace(params.Input.Name),
		CreatedAt: s.now(),
	}
	room.UpdatedAt = room.CreatedAt

	var persisted Room
	persisted, err = s.rooms.CreateRoom(ctx, room)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	room = persisted
	return
}

// UpdateRoom renames a room.
func (s *VenueService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("VenueService is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	existing, getErr := s.rooms.GetRoom(ctx, params.RoomID)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}

	if strings.TrimSpace(params.Input.Name) == "" {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.UpdatedAt = s.now()

	var persisted Room
	persisted, err = s.rooms.UpdateRoom(ctx, updated)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	room = persisted
	return
}

// DeleteRoom removes a room; sessions assigned to it become roomless.
func (s *VenueService) DeleteRoom(ctx context.Context, principal Principal, roomID string) (err error) {
	if s == nil {
		return fmt.Errorf("VenueService is nil")
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room deleted")
	}()

	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	return mapRepoError(s.rooms.DeleteRoom(ctx, roomID))
}

// ListRooms enumerates the rooms of a venue.
func (s *VenueService) ListRooms(ctx context.Context, venueID string) ([]Room, error) {
	if s == nil || s.rooms == nil {
		return nil, fmt.Errorf("room repository not configured")
	}
	rooms, err := s.rooms.ListRooms(ctx, venueID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return rooms, nil
}

func (s *VenueService) ensureEventExists(ctx context.Context, eventID string) error {
	if s.events == nil {
		return nil
	}
	exists, err := s.events.EventExists(ctx, eventID)
	if err != nil {
		return mapRepoError(err)
	}
	if exists {
		return nil
	}
	vErr := &ValidationError{}
	vErr.add("event_id", "event does not exist")
	return vErr
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
