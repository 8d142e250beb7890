package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fundingthecommons/impactful-events/internal/persistence"
)

// EventRepository captures the persistence operations needed by the service.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) (Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context) ([]Event, error)
}

// EventService orchestrates validation, authorization, and persistence for events.
type EventService struct {
	events      EventRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService constructs an event service with the provided dependencies.
func NewEventService(events EventRepository, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(events, idGenerator, now, nil)
}

// NewEventServiceWithLogger constructs an event service with a specified logger.
func NewEventServiceWithLogger(events EventRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{events: events, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// CreateEvent validates input and persists a new event for administrators.
func (s *EventService) CreateEvent(ctx context.Context, params CreateEventParams) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID).InfoContext(ctx, "event created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateEventInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	event = Event{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		StartDate: dayStart(params.Input.StartDate),
		EndDate:   dayStart(params.Input.EndDate),
		CreatedAt: s.now(),
	}
	event.UpdatedAt = event.CreatedAt

	if s.events == nil {
		return
	}

	var persisted Event
	persisted, err = s.events.CreateEvent(ctx, event)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	event = persisted
	return
}

// UpdateEvent applies validation and authorization before updating an event.
func (s *EventService) UpdateEvent(ctx context.Context, params UpdateEventParams) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEvent",
		"principal_id", params.Principal.UserID,
		"event_id", params.EventID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	existing, getErr := s.events.GetEvent(ctx, params.EventID)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}

	vErr := validateEventInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.StartDate = dayStart(params.Input.StartDate)
	updated.EndDate = dayStart(params.Input.EndDate)
	updated.UpdatedAt = s.now()

	var persisted Event
	persisted, err = s.events.UpdateEvent(ctx, updated)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	event = persisted
	return
}

// DeleteEvent removes an event and everything scheduled under it.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, eventID string) (err error) {
	if s == nil {
		return fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEvent",
		"principal_id", principal.UserID,
		"event_id", eventID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event deleted")
	}()

	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	if err = mapRepoError(s.events.DeleteEvent(ctx, eventID)); err != nil {
		return err
	}
	return nil
}

// GetEvent retrieves a single event.
func (s *EventService) GetEvent(ctx context.Context, id string) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return Event{}, mapRepoError(err)
	}
	return event, nil
}

// ListEvents enumerates events ordered by start date.
func (s *EventService) ListEvents(ctx context.Context) ([]Event, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return events, nil
}

func validateEventInput(input EventInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.StartDate.IsZero() {
		vErr.add("start_date", "start date is required")
	}
	if input.EndDate.IsZero() {
		vErr.add("end_date", "end date is required")
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && dayStart(input.EndDate).Before(dayStart(input.StartDate)) {
		vErr.add("dates", "end date must not precede start date")
	}

	return vErr
}

// dayStart truncates an instant to its UTC calendar day.
func dayStart(t time.Time) time.Time {
	inUTC := t.UTC()
	return time.Date(inUTC.Year(), inUTC.Month(), inUTC.Day(), 0, 0, 0, 0, time.UTC)
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("reference", "related records are missing")
		return vErr
	}
	return err
}
