package application

import (
	"context"
	"fmt"

	"github.com/fundingthecommons/impactful-events/internal/cascade"
)

// RescheduleSession moves a session to a new start time, and optionally a
// new room, pushing every session it now collides with forward until no two
// sessions in the scope overlap. All validation happens before any mutation
// and the computed change set is persisted as one atomic unit.
func (s *SessionService) RescheduleSession(ctx context.Context, params RescheduleParams) (result RescheduleResult, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "RescheduleSession",
		"principal_id", params.Principal.UserID,
		"session_id", params.SessionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reschedule session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session rescheduled",
			"shifted", len(result.Shifted),
			"truncated", result.Truncated,
		)
	}()

	session, getErr := s.sessions.GetSession(ctx, params.SessionID)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}

	if err = s.authorize(ctx, params.Principal, session); err != nil {
		return
	}

	if params.NewStart.IsZero() {
		vErr := &ValidationError{}
		vErr.add("start", "start is required")
		err = vErr
		return
	}

	// The session keeps its duration; only its anchor moves.
	newInterval := cascade.Interval{Start: session.Start, End: session.End}.ShiftTo(params.NewStart)

	if err = s.ensureWithinEventDates(ctx, session.EventID, newInterval.Start, newInterval.End); err != nil {
		return
	}
	if err = s.ensureRoomInVenue(ctx, params.NewRoomID, session.VenueID); err != nil {
		return
	}

	scope := scopeOf(session)
	if params.NewRoomID != nil {
		scope.RoomID = params.NewRoomID
	}

	resolver := cascade.NewResolver(&repositorySource{sessions: s.sessions}, s.maxCascade)
	changes, truncated, resolveErr := resolver.Resolve(ctx, session.ID, newInterval, scope)
	if resolveErr != nil {
		err = resolveErr
		return
	}
	if truncated {
		logger.WarnContext(ctx, "cascade hit iteration bound; remaining conflicts left in place",
			"max_cascade", s.maxCascade,
			"resolved", len(changes),
		)
	}

	placements := make([]PlacementChange, 0, len(changes)+1)
	placements = append(placements, PlacementChange{
		SessionID: session.ID,
		Start:     newInterval.Start,
		End:       newInterval.End,
		RoomID:    params.NewRoomID,
		SetRoom:   params.NewRoomID != nil,
	})
	shifted := make([]SessionShift, 0, len(changes))
	for _, change := range changes {
		placements = append(placements, PlacementChange{
			SessionID: change.SessionID,
			Start:     change.To.Start,
			End:       change.To.End,
		})
		shifted = append(shifted, SessionShift{
			SessionID: change.SessionID,
			OldStart:  change.From.Start,
			OldEnd:    change.From.End,
			NewStart:  change.To.Start,
			NewEnd:    change.To.End,
		})
	}

	if err = mapRepoError(s.sessions.ApplyReschedule(ctx, placements)); err != nil {
		return
	}
	s.warnings.Invalidate()

	moved := session
	moved.Start = newInterval.Start
	moved.End = newInterval.End
	if params.NewRoomID != nil {
		moved.RoomID = params.NewRoomID
	}

	result = RescheduleResult{Moved: moved, Shifted: shifted, Truncated: truncated}
	return
}

// repositorySource adapts the session repository to the resolver's view of
// the schedule.
type repositorySource struct {
	sessions SessionRepository
}

func (r *repositorySource) FindOverlapping(ctx context.Context, scope cascade.Scope, window cascade.Interval, excludeIDs []string) ([]cascade.Session, error) {
	sessions, err := r.sessions.ListOverlapping(ctx, scope, window, excludeIDs)
	if err != nil {
		return nil, err
	}
	out := make([]cascade.Session, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, cascade.Session{
			ID:       session.ID,
			Interval: cascade.Interval{Start: session.Start, End: session.End},
		})
	}
	return out, nil
}
