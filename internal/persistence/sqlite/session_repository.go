package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fundingthecommons/impactful-events/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool, mapper: NewErrorMapper()}
}

const sessionColumns = "id, event_id, venue_id, room_id, title, description, start_time, end_time, created_at, updated_at"

// CreateSession inserts a new session.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.insertSession(tx, session)
	})
}

// CreateSessions inserts a batch of sessions atomically; either every
// session is stored or none are.
func (r *SessionRepository) CreateSessions(ctx context.Context, sessions []persistence.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, session := range sessions {
			if err := r.insertSession(tx, session); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SessionRepository) insertSession(tx *sql.Tx, session persistence.Session) error {
	if session.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.Exec(query,
		session.ID,
		session.EventID,
		session.VenueID,
		nullString(session.RoomID),
		session.Title,
		nullString(session.Description),
		formatTime(session.Start),
		formatTime(session.End),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateSession updates an existing session. The owning event and venue
// are immutable.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) error {
	query := `
		UPDATE sessions
		SET room_id = ?, title = ?, description = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.DB().ExecContext(ctx, query,
		nullString(session.RoomID),
		session.Title,
		nullString(session.Description),
		formatTime(session.Start),
		formatTime(session.End),
		formatTime(session.UpdatedAt),
		session.ID,
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

// GetSession retrieves a session by id.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions WHERE id = ?"
	session, err := r.scanSessionRow(r.pool.DB().QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// ListSessions returns sessions matching the filter ordered by start time.
func (r *SessionRepository) ListSessions(ctx context.Context, filter persistence.SessionFilter) ([]persistence.Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions"
	var clauses []string
	var args []any

	if filter.EventID != "" {
		clauses = append(clauses, "event_id = ?")
		args = append(args, filter.EventID)
	}
	if filter.VenueID != "" {
		clauses = append(clauses, "venue_id = ?")
		args = append(args, filter.VenueID)
	}
	if filter.StartsAfter != nil {
		clauses = append(clauses, "start_time >= ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		clauses = append(clauses, "end_time <= ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	return r.querySessions(ctx, query, args...)
}

// ListOverlapping returns sessions in scope overlapping the half-open
// window [start, end), excluding the given ids, ordered by start time
// ascending with id as the tie-break.
func (r *SessionRepository) ListOverlapping(ctx context.Context, scope persistence.SessionScope, start, end time.Time, excludeIDs []string) ([]persistence.Session, error) {
	query := "SELECT " + sessionColumns + ` FROM sessions
		WHERE venue_id = ? AND start_time < ? AND end_time > ?`
	args := []any{scope.VenueID, formatTime(end), formatTime(start)}

	if scope.RoomID != nil {
		query += " AND room_id = ?"
		args = append(args, *scope.RoomID)
	} else {
		query += " AND room_id IS NULL"
	}

	if len(excludeIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(excludeIDs)), ", ")
		query += " AND id NOT IN (" + placeholders + ")"
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}

	query += " ORDER BY start_time ASC, id ASC"

	return r.querySessions(ctx, query, args...)
}

// ApplyReschedule persists the computed placements as one transaction.
func (r *SessionRepository) ApplyReschedule(ctx context.Context, changes []persistence.SessionTimeChange) error {
	if len(changes) == 0 {
		return nil
	}

	updatedAt := formatTime(time.Now().UTC())

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, change := range changes {
			var result sql.Result
			var err error

			if change.SetRoom {
				result, err = tx.Exec(
					"UPDATE sessions SET start_time = ?, end_time = ?, room_id = ?, updated_at = ? WHERE id = ?",
					formatTime(change.Start),
					formatTime(change.End),
					nullString(change.RoomID),
					updatedAt,
					change.SessionID,
				)
			} else {
				result, err = tx.Exec(
					"UPDATE sessions SET start_time = ?, end_time = ?, updated_at = ? WHERE id = ?",
					formatTime(change.Start),
					formatTime(change.End),
					updatedAt,
					change.SessionID,
				)
			}
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
		}
		return nil
	})
}

// DeleteSession removes a session.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
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

func (r *SessionRepository) querySessions(ctx context.Context, query string, args ...any) ([]persistence.Session, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var sessions []persistence.Session
	for rows.Next() {
		session, err := r.scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) scanSessionRow(scanner rowScanner) (persistence.Session, error) {
	var session persistence.Session
	var roomID, description sql.NullString
	var start, end, createdAt, updatedAt string

	err := scanner.Scan(
		&session.ID,
		&session.EventID,
		&session.VenueID,
		&roomID,
		&session.Title,
		&description,
		&start,
		&end,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	session.RoomID = fromNullString(roomID)
	session.Description = fromNullString(description)

	if session.Start, err = parseStoredTime(start); err != nil {
		return persistence.Session{}, fmt.Errorf("invalid start_time for session %s: %w", session.ID, err)
	}
	if session.End, err = parseStoredTime(end); err != nil {
		return persistence.Session{}, fmt.Errorf("invalid end_time for session %s: %w", session.ID, err)
	}
	if session.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return persistence.Session{}, fmt.Errorf("invalid created_at for session %s: %w", session.ID, err)
	}
	if session.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return persistence.Session{}, fmt.Errorf("invalid updated_at for session %s: %w", session.ID, err)
	}
	return session, nil
}
