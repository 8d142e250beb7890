package cascade

import (
	"context"
	"fmt"
	"time"
)

// DefaultMaxCascade bounds both the outer cascade loop and the inner
// candidate-slot search. A cascade that reaches the bound is truncated
// rather than allowed to run forever.
const DefaultMaxCascade = 50

// Scope identifies the conflict domain for a placement: a venue, optionally
// narrowed to one of its rooms. Sessions without a room form their own scope
// within the venue; they never conflict with sessions assigned to a room.
type Scope struct {
	VenueID string
	RoomID  *string
}

// Session is the projection of a scheduled session the resolver operates on.
type Session struct {
	ID       string
	Interval Interval
}

// Change records one session displaced by a cascade, with its interval
// before and after.
type Change struct {
	SessionID string
	From      Interval
	To        Interval
}

// Source supplies the sessions currently occupying a scope. Implementations
// must return sessions whose interval overlaps window, excluding the given
// ids, ordered by start time ascending with a stable tie-break; the resolver
// depends on that ordering for deterministic output.
type Source interface {
	FindOverlapping(ctx context.Context, scope Scope, window Interval, excludeIDs []string) ([]Session, error)
}

// Resolver computes non-overlapping placements for every session displaced
// by moving one session to a new interval. Displaced sessions are only ever
// pushed forward in time, and only as far as needed; the moved session's
// requested interval is honored exactly.
type Resolver struct {
	source     Source
	maxCascade int
}

// NewResolver constructs a resolver reading conflicts from source.
// maxCascade values below one fall back to DefaultMaxCascade.
func NewResolver(source Source, maxCascade int) *Resolver {
	if maxCascade < 1 {
		maxCascade = DefaultMaxCascade
	}
	return &Resolver{source: source, maxCascade: maxCascade}
}

// MaxCascade returns the iteration bound the resolver applies.
func (r *Resolver) MaxCascade() int {
	return r.maxCascade
}

type placement struct {
	sessionID string
	interval  Interval
}

// Resolve places movedID at newInterval and resolves every conflict this
// creates within scope, breadth-first. It returns one Change per displaced
// session, in the order sessions were displaced; the moved session itself is
// never part of the result. The boolean reports whether the cascade was
// truncated by the iteration bound, in which case the returned changes are
// still internally non-overlapping but later conflicts may remain.
func (r *Resolver) Resolve(ctx context.Context, movedID string, newInterval Interval, scope Scope) ([]Change, bool, error) {
	if r == nil || r.source == nil {
		return nil, false, fmt.Errorf("cascade: resolver has no source")
	}
	if !newInterval.Start.Before(newInterval.End) {
		return nil, false, fmt.Errorf("cascade: interval start must precede end")
	}

	// placed accumulates final positions for this invocation only; it is
	// never shared across resolver calls.
	placed := []placement{{sessionID: movedID, interval: newInterval}}
	queue := []placement{{sessionID: movedID, interval: newInterval}}

	var changes []Change
	iterations := 0
	truncated := false

	for len(queue) > 0 {
		if iterations >= r.maxCascade {
			truncated = true
			break
		}
		iterations++

		current := queue[0]
		queue = queue[1:]

		conflicts, err := r.source.FindOverlapping(ctx, scope, current.interval, placedIDs(placed))
		if err != nil {
			return nil, false, fmt.Errorf("cascade: find overlapping sessions: %w", err)
		}

		for _, conflict := range conflicts {
			candidate, ok := r.nextFreeSlot(conflict.Interval, current.interval.End, placed)
			if !ok {
				truncated = true
				continue
			}

			changes = append(changes, Change{SessionID: conflict.ID, From: conflict.Interval, To: candidate})
			next := placement{sessionID: conflict.ID, interval: candidate}
			placed = append(placed, next)
			queue = append(queue, next)
		}
	}

	if len(queue) > 0 {
		truncated = true
	}

	return changes, truncated, nil
}

// nextFreeSlot slides the conflicting interval forward from floor until it
// clears every already-placed interval, trying at most maxCascade slots.
func (r *Resolver) nextFreeSlot(interval Interval, floor time.Time, placed []placement) (Interval, bool) {
	candidate := interval.ShiftTo(floor)
	for attempt := 0; attempt < r.maxCascade; attempt++ {
		blocked := false
		for _, p := range placed {
			if candidate.Overlaps(p.interval) {
				candidate = candidate.ShiftTo(p.interval.End)
				blocked = true
				break
			}
		}
		if !blocked {
			return candidate, true
		}
	}
	return Interval{}, false
}

func placedIDs(placed []placement) []string {
	ids := make([]string, 0, len(placed))
	for _, p := range placed {
		ids = append(ids, p.sessionID)
	}
	return ids
}
