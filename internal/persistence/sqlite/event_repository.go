package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fundingthecommons/impactful-events/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateEvent inserts a new event.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO events (id, name, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.DB().ExecContext(ctx, query,
		event.ID,
		event.Name,
		formatTime(event.StartDate),
		formatTime(event.EndDate),
		formatTime(event.CreatedAt),
		formatTime(event.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateEvent updates an existing event.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	query := `
		UPDATE events
		SET name = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.DB().ExecContext(ctx, query,
		event.Name,
		formatTime(event.StartDate),
		formatTime(event.EndDate),
		formatTime(event.UpdatedAt),
		event.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetEvent retrieves an event by id.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	query := `
		SELECT id, name, start_date, end_date, created_at, updated_at
		FROM events
		WHERE id = ?
	`
	return r.scanEvent(r.pool.DB().QueryRowContext(ctx, query, id))
}

// ListEvents returns all events ordered by start date.
func (r *EventRepository) ListEvents(ctx context.Context) ([]persistence.Event, error) {
	query := `
		SELECT id, name, start_date, end_date, created_at, updated_at
		FROM events
		ORDER BY start_date ASC, id ASC
	`
	rows, err := r.pool.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := r.scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// DeleteEvent removes an event; venues and sessions cascade away with it.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *EventRepository) scanEvent(row *sql.Row) (persistence.Event, error) {
	event, err := r.scanEventRow(row)
	if err != nil {
		return persistence.Event{}, err
	}
	return event, nil
}

func (r *EventRepository) scanEventRow(scanner rowScanner) (persistence.Event, error) {
	var event persistence.Event
	var startDate, endDate, createdAt, updatedAt string

	if err := scanner.Scan(&event.ID, &event.Name, &startDate, &endDate, &createdAt, &updatedAt); err != nil {
		return persistence.Event{}, r.mapper.MapError(err)
	}

	var err error
	if event.StartDate, err = parseStoredTime(startDate); err != nil {
		return persistence.Event{}, fmt.Errorf("invalid start_date for event %s: %w", event.ID, err)
	}
	if event.EndDate, err = parseStoredTime(endDate); err != nil {
		return persistence.Event{}, fmt.Errorf("invalid end_date for event %s: %w", event.ID, err)
	}
	if event.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return persistence.Event{}, fmt.Errorf("invalid created_at for event %s: %w", event.ID, err)
	}
	if event.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return persistence.Event{}, fmt.Errorf("invalid updated_at for event %s: %w", event.ID, err)
	}
	return event, nil
}
