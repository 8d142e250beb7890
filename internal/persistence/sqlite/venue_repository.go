package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fundingthecommons/impactful-events/internal/persistence"
)

// VenueRepository implements persistence.VenueRepository using SQLite.
type VenueRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewVenueRepository creates a new SQLite venue repository.
func NewVenueRepository(pool *ConnectionPool) *VenueRepository {
	return &VenueRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateVenue inserts a new venue.
func (r *VenueRepository) CreateVenue(ctx context.Context, venue persistence.Venue) error {
	if venue.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO venues (id, event_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.DB().ExecContext(ctx, query,
		venue.ID,
		venue.EventID,
		venue.Name,
		nullString(venue.Description),
		formatTime(venue.CreatedAt),
		formatTime(venue.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateVenue updates an existing venue. The owning event is immutable.
func (r *VenueRepository) UpdateVenue(ctx context.Context, venue persistence.Venue) error {
	query := `
		UPDATE venues
		SET name = ?, description = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.DB().ExecContext(ctx, query,
		venue.Name,
		nullString(venue.Description),
		formatTime(venue.UpdatedAt),
		venue.ID,
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

// GetVenue retrieves a venue by id.
func (r *VenueRepository) GetVenue(ctx context.Context, id string) (persistence.Venue, error) {
	query := `
		SELECT id, event_id, name, description, created_at, updated_at
		FROM venues
		WHERE id = ?
	`
	return r.scanVenue(r.pool.DB().QueryRowContext(ctx, query, id))
}

// ListVenues returns all venues, optionally filtered by event, ordered by name.
func (r *VenueRepository) ListVenues(ctx context.Context, eventID string) ([]persistence.Venue, error) {
	query := `
		SELECT id, event_id, name, description, created_at, updated_at
		FROM venues
	`
	args := []any{}
	if eventID != "" {
		query += " WHERE event_id = ?"
		args = append(args, eventID)
	}
	query += " ORDER BY name ASC, id ASC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var venues []persistence.Venue
	for rows.Next() {
		venue, err := r.scanVenueRow(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, venue)
	}
	return venues, rows.Err()
}

// DeleteVenue removes a venue; its rooms and sessions cascade away with it.
func (r *VenueRepository) DeleteVenue(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM venues WHERE id = ?", id)
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

func (r *VenueRepository) scanVenue(row *sql.Row) (persistence.Venue, error) {
	venue, err := r.scanVenueRow(row)
	if err != nil {
		return persistence.Venue{}, err
	}
	return venue, nil
}

func (r *VenueRepository) scanVenueRow(scanner rowScanner) (persistence.Venue, error) {
	var venue persistence.Venue
	var description sql.NullString
	var createdAt, updatedAt string

	if err := scanner.Scan(&venue.ID, &venue.EventID, &venue.Name, &description, &createdAt, &updatedAt); err != nil {
		return persistence.Venue{}, r.mapper.MapError(err)
	}

	venue.Description = fromNullString(description)

	var err error
	if venue.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return persistence.Venue{}, fmt.Errorf("invalid created_at for venue %s: %w", venue.ID, err)
	}
	if venue.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return persistence.Venue{}, fmt.Errorf("invalid updated_at for venue %s: %w", venue.ID, err)
	}
	return venue, nil
}
