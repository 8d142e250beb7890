package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fundingthecommons/impactful-events/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO rooms (id, venue_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.pool.DB().ExecContext(ctx, query,
		room.ID,
		room.VenueID,
		room.Name,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateRoom updates an existing room. The owning venue is immutable.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	query := `
		UPDATE rooms
		SET name = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.DB().ExecContext(ctx, query,
		room.Name,
		formatTime(room.UpdatedAt),
		room.ID,
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

// GetRoom retrieves a room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	query := `
		SELECT id, venue_id, name, created_at, updated_at
		FROM rooms
		WHERE id = ?
	`
	return r.scanRoom(r.pool.DB().QueryRowContext(ctx, query, id))
}

// ListRooms returns the rooms of a venue ordered by name.
func (r *RoomRepository) ListRooms(ctx context.Context, venueID string) ([]persistence.Room, error) {
	query := `
		SELECT id, venue_id, name, created_at, updated_at
		FROM rooms
		WHERE venue_id = ?
		ORDER BY name ASC, id ASC
	`
	rows, err := r.pool.DB().QueryContext(ctx, query, venueID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := r.scanRoomRow(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// CountRooms returns the number of rooms registered for a venue.
func (r *RoomRepository) CountRooms(ctx context.Context, venueID string) (int, error) {
	var count int
	err := r.pool.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms WHERE venue_id = ?", venueID).Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// DeleteRoom removes a room; sessions assigned to it become roomless.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
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

func (r *RoomRepository) scanRoom(row *sql.Row) (persistence.Room, error) {
	room, err := r.scanRoomRow(row)
	if err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

func (r *RoomRepository) scanRoomRow(scanner rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var createdAt, updatedAt string

	if err := scanner.Scan(&room.ID, &room.VenueID, &room.Name, &createdAt, &updatedAt); err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}

	var err error
	if room.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return persistence.Room{}, fmt.Errorf("invalid created_at for room %s: %w", room.ID, err)
	}
	if room.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return persistence.Room{}, fmt.Errorf("invalid updated_at for room %s: %w", room.ID, err)
	}
	return room, nil
}
