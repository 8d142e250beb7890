package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/fundingthecommons/impactful-events/internal/cascade"
)

// SessionRepositoryFilter narrows queries issued to the session repository.
type SessionRepositoryFilter struct {
	EventID     string
	VenueID     string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// PlacementChange is one persisted placement of a reschedule change set.
// SetRoom marks the change that also reassigns the session's room.
type PlacementChange struct {
	SessionID string
	Start     time.Time
	End       time.Time
	RoomID    *string
	SetRoom   bool
}

// SessionRepository captures the persistence interactions needed by the service.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	CreateSessions(ctx context.Context, sessions []Session) ([]Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context, filter SessionRepositoryFilter) ([]Session, error)
	// ListOverlapping returns the sessions in scope whose interval overlaps
	// window, excluding the given ids, ordered by start time ascending with
	// a stable tie-break.
	ListOverlapping(ctx context.Context, scope cascade.Scope, window cascade.Interval, excludeIDs []string) ([]Session, error)
	// ApplyReschedule persists all placements atomically.
	ApplyReschedule(ctx context.Context, changes []PlacementChange) error
}

// EventCalendar exposes the event lookups the service validates against.
type EventCalendar interface {
	GetEvent(ctx context.Context, id string) (Event, error)
}

// RoomCatalog exposes room lookup operations.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// VenueCatalog exposes venue lookup operations.
type VenueCatalog interface {
	GetVenue(ctx context.Context, id string) (Venue, error)
}

// Authorizer resolves whether a principal may manage a session. Permission
// and role resolution live outside this service.
type Authorizer interface {
	CanManageSession(ctx context.Context, principal Principal, session Session) (bool, error)
}

// SessionService orchestrates validation, conflict resolution, and
// persistence for event sessions, including the reschedule cascade.
type SessionService struct {
	sessions    SessionRepository
	events      EventCalendar
	venues      VenueCatalog
	rooms       RoomCatalog
	authorizer  Authorizer
	maxCascade  int
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	warnings    *warningCache
}

// SessionServiceConfig wires dependencies for session operations.
type SessionServiceConfig struct {
	Sessions    SessionRepository
	Events      EventCalendar
	Venues      VenueCatalog
	Rooms       RoomCatalog
	Authorizer  Authorizer
	MaxCascade  int
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewSessionService constructs a session service from the supplied config.
func NewSessionService(cfg SessionServiceConfig) *SessionService {
	idGenerator := cfg.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	maxCascade := cfg.MaxCascade
	if maxCascade < 1 {
		maxCascade = cascade.DefaultMaxCascade
	}
	return &SessionService{
		sessions:    cfg.Sessions,
		events:      cfg.Events,
		venues:      cfg.Venues,
		rooms:       cfg.Rooms,
		authorizer:  cfg.Authorizer,
		maxCascade:  maxCascade,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(cfg.Logger),
		warnings:    newWarningCache(0, 0, now),
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// CreateSession validates the request before delegating to persistence.
func (s *SessionService) CreateSession(ctx context.Context, params CreateSessionParams) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSession", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID).InfoContext(ctx, "session created")
	}()

	session, err = s.buildSession(ctx, params.Principal, params.Input)
	if err != nil {
		session = Session{}
		return
	}

	if s.sessions == nil {
		return
	}

	var persisted Session
	persisted, err = s.sessions.CreateSession(ctx, session)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	s.warnings.Invalidate()
	session = persisted
	return
}

// CreateSessions validates and persists a batch of sessions atomically.
func (s *SessionService) CreateSessions(ctx context.Context, params CreateSessionsParams) (sessions []Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateSessions",
		"principal_id", params.Principal.UserID,
		"count", len(params.Inputs),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create sessions", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "sessions created")
	}()

	if len(params.Inputs) == 0 {
		vErr := &ValidationError{}
		vErr.add("sessions", "at least one session is required")
		err = vErr
		return
	}

	built := make([]Session, 0, len(params.Inputs))
	for i, input := range params.Inputs {
		session, buildErr := s.buildSession(ctx, params.Principal, input)
		if buildErr != nil {
			err = fmt.Errorf("session %d: %w", i, buildErr)
			return
		}
		built = append(built, session)
	}

	var persisted []Session
	persisted, err = s.sessions.CreateSessions(ctx, built)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	s.warnings.Invalidate()
	sessions = persisted
	return
}

// UpdateSession applies validation and authorization before updating
// persistence state. The owning event and venue are immutable.
func (s *SessionService) UpdateSession(ctx context.Context, params UpdateSessionParams) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSession",
		"principal_id", params.Principal.UserID,
		"session_id", params.SessionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session updated")
	}()

	existing, getErr := s.sessions.GetSession(ctx, params.SessionID)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}

	if err = s.authorize(ctx, params.Principal, existing); err != nil {
		return
	}

	vErr := &ValidationError{}
	if params.Input.EventID != "" && params.Input.EventID != existing.EventID {
		vErr.add("event_id", "owning event cannot be changed")
	}
	if params.Input.VenueID != "" && params.Input.VenueID != existing.VenueID {
		vErr.add("venue_id", "venue cannot be changed")
	}
	validateSessionCore(params.Input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureRoomInVenue(ctx, params.Input.RoomID, existing.VenueID); err != nil {
		return
	}
	if err = s.ensureWithinEventDates(ctx, existing.EventID, params.Input.Start, params.Input.End); err != nil {
		return
	}

	updated := existing
	updated.Title = strings.TrimSpace(params.Input.Title)
	updated.Description = normalizeOptionalString(params.Input.Description)
	updated.Start = params.Input.Start
	updated.End = params.Input.End
	updated.RoomID = params.Input.RoomID
	updated.UpdatedAt = s.now()

	var persisted Session
	persisted, err = s.sessions.UpdateSession(ctx, updated)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	s.warnings.Invalidate()
	session = persisted
	return
}

// DeleteSession ensures authorization before delegating to persistence.
func (s *SessionService) DeleteSession(ctx context.Context, principal Principal, sessionID string) (err error) {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSession",
		"principal_id", principal.UserID,
		"session_id", sessionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session deleted")
	}()

	existing, getErr := s.sessions.GetSession(ctx, sessionID)
	if getErr != nil {
		return mapRepoError(getErr)
	}

	if err = s.authorize(ctx, principal, existing); err != nil {
		return err
	}

	if err = mapRepoError(s.sessions.DeleteSession(ctx, sessionID)); err != nil {
		return err
	}
	s.warnings.Invalidate()
	return nil
}

// GetSession retrieves a single session.
func (s *SessionService) GetSession(ctx context.Context, id string) (Session, error) {
	if s == nil || s.sessions == nil {
		return Session{}, fmt.Errorf("session repository not configured")
	}
	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return Session{}, mapRepoError(err)
	}
	return session, nil
}

// ListSessions enumerates sessions and flags overlapping pairs within each
// conflict scope so organizers spot collisions before attendees do.
func (s *SessionService) ListSessions(ctx context.Context, params ListSessionsParams) ([]Session, []ConflictWarning, error) {
	if s == nil || s.sessions == nil {
		return nil, nil, fmt.Errorf("session repository not configured")
	}

	filter := SessionRepositoryFilter{
		EventID:     params.EventID,
		VenueID:     params.VenueID,
		StartsAfter: params.StartsAfter,
		EndsBefore:  params.EndsBefore,
	}

	sessions, err := s.sessions.ListSessions(ctx, filter)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}

	ordered := make([]Session, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Start.Before(ordered[j].Start)
	})

	cacheKey := buildWarningCacheKey(filter)
	warnings, cached := s.warnings.Get(cacheKey)
	if !cached {
		warnings = detectListConflicts(ordered)
		s.warnings.Store(cacheKey, warnings)
	}

	return ordered, warnings, nil
}

func (s *SessionService) buildSession(ctx context.Context, principal Principal, input SessionInput) (Session, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.EventID) == "" {
		vErr.add("event_id", "event is required")
	}
	if strings.TrimSpace(input.VenueID) == "" {
		vErr.add("venue_id", "venue is required")
	}
	validateSessionCore(input, vErr)
	if vErr.HasErrors() {
		return Session{}, vErr
	}

	if s.venues != nil {
		venue, err := s.venues.GetVenue(ctx, input.VenueID)
		if err != nil {
			return Session{}, mapRepoError(err)
		}
		if venue.EventID != input.EventID {
			inner := &ValidationError{}
			inner.add("venue_id", "venue does not belong to the event")
			return Session{}, inner
		}
	}

	if err := s.ensureRoomInVenue(ctx, input.RoomID, input.VenueID); err != nil {
		return Session{}, err
	}
	if err := s.ensureWithinEventDates(ctx, input.EventID, input.Start, input.End); err != nil {
		return Session{}, err
	}

	createdAt := s.now()
	return Session{
		ID:          s.idGenerator(),
		EventID:     input.EventID,
		VenueID:     input.VenueID,
		RoomID:      input.RoomID,
		Title:       strings.TrimSpace(input.Title),
		Description: normalizeOptionalString(input.Description),
		Start:       input.Start,
		End:         input.End,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

func (s *SessionService) authorize(ctx context.Context, principal Principal, session Session) error {
	if s.authorizer == nil {
		if principal.IsAdmin {
			return nil
		}
		return ErrUnauthorized
	}
	allowed, err := s.authorizer.CanManageSession(ctx, principal, session)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}
	return nil
}

func (s *SessionService) ensureRoomInVenue(ctx context.Context, roomID *string, venueID string) error {
	if roomID == nil || s.rooms == nil {
		return nil
	}
	room, err := s.rooms.GetRoom(ctx, *roomID)
	if err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("room_id", "room does not exist")
			return vErr
		}
		return err
	}
	if room.VenueID != venueID {
		vErr := &ValidationError{}
		vErr.add("room_id", "room does not belong to the session's venue")
		return vErr
	}
	return nil
}

// ensureWithinEventDates checks that the session's calendar days fall within
// the owning event's day-granularity bounds, compared in UTC.
func (s *SessionService) ensureWithinEventDates(ctx context.Context, eventID string, start, end time.Time) error {
	if s.events == nil {
		return nil
	}
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return mapRepoError(err)
	}

	firstDay := dayStart(event.StartDate)
	lastDay := dayStart(event.EndDate)
	for _, instant := range []time.Time{start, end} {
		if instant.IsZero() {
			continue
		}
		day := dayStart(instant)
		if day.Before(firstDay) || day.After(lastDay) {
			vErr := &ValidationError{}
			vErr.add("start", "session must fall within the event dates")
			return vErr
		}
	}
	return nil
}

func validateSessionCore(input SessionInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}
}

// scopeOf returns the conflict scope a session occupies.
func scopeOf(session Session) cascade.Scope {
	return cascade.Scope{VenueID: session.VenueID, RoomID: session.RoomID}
}

func sameScope(a, b Session) bool {
	if a.VenueID != b.VenueID {
		return false
	}
	if (a.RoomID == nil) != (b.RoomID == nil) {
		return false
	}
	return a.RoomID == nil || *a.RoomID == *b.RoomID
}

// detectListConflicts flags overlapping pairs within the same scope.
// Sessions are assumed ordered by start time.
func detectListConflicts(sessions []Session) []ConflictWarning {
	if len(sessions) <= 1 {
		return nil
	}

	var warnings []ConflictWarning
	for i, candidate := range sessions {
		candidateInterval := cascade.Interval{Start: candidate.Start, End: candidate.End}
		for _, other := range sessions[i+1:] {
			if !sameScope(candidate, other) {
				continue
			}
			if candidateInterval.Overlaps(cascade.Interval{Start: other.Start, End: other.End}) {
				warnings = append(warnings, ConflictWarning{
					SessionID:     candidate.ID,
					WithSessionID: other.ID,
					VenueID:       candidate.VenueID,
					RoomID:        candidate.RoomID,
				})
			}
		}
	}
	return warnings
}
