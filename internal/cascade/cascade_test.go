package cascade

import (
	"context"
	"sort"
	"strconv"
	"testing"
	"time"
)

// memorySource serves sessions grouped by scope, ordered by start ascending
// with insertion order as the tie-break.
type memorySource struct {
	sessions map[string][]Session
}

func newMemorySource() *memorySource {
	return &memorySource{sessions: make(map[string][]Session)}
}

func scopeKey(scope Scope) string {
	if scope.RoomID == nil {
		return scope.VenueID + "|"
	}
	return scope.VenueID + "|" + *scope.RoomID
}

func (s *memorySource) add(scope Scope, session Session) {
	key := scopeKey(scope)
	s.sessions[key] = append(s.sessions[key], session)
}

func (s *memorySource) FindOverlapping(_ context.Context, scope Scope, window Interval, excludeIDs []string) ([]Session, error) {
	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	var matches []Session
	for _, session := range s.sessions[scopeKey(scope)] {
		if _, skip := excluded[session.ID]; skip {
			continue
		}
		if session.Interval.Overlaps(window) {
			matches = append(matches, session)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Interval.Start.Before(matches[j].Interval.Start)
	})
	return matches, nil
}

func room(id string) *string {
	return &id
}

func TestResolveCascadesThroughBackToBackSessions(t *testing.T) {
	t.Parallel()

	scope := Scope{VenueID: "venue-1", RoomID: room("room-1")}
	source := newMemorySource()
	source.add(scope, Session{ID: "a", Interval: Interval{Start: at(t, 10, 0), End: at(t, 10, 30)}})
	source.add(scope, Session{ID: "b", Interval: Interval{Start: at(t, 10, 30), End: at(t, 11, 0)}})
	source.add(scope, Session{ID: "c", Interval: Interval{Start: at(t, 11, 0), End: at(t, 11, 30)}})

	resolver := NewResolver(source, DefaultMaxCascade)
	moved := Interval{Start: at(t, 10, 15), End: at(t, 10, 45)}

	changes, truncated, err := resolver.Resolve(context.Background(), "a", moved, scope)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if truncated {
		t.Fatal("cascade unexpectedly truncated")
	}

	if len(changes) != 2 {
		t.Fatalf("expected 2 cascaded changes, got %d: %+v", len(changes), changes)
	}

	if changes[0].SessionID != "b" {
		t.Fatalf("first displaced session = %s, want b", changes[0].SessionID)
	}
	if !changes[0].To.Start.Equal(at(t, 10, 45)) || !changes[0].To.End.Equal(at(t, 11, 15)) {
		t.Fatalf("b moved to [%v, %v), want [10:45, 11:15)", changes[0].To.Start, changes[0].To.End)
	}

	if changes[1].SessionID != "c" {
		t.Fatalf("second displaced session = %s, want c", changes[1].SessionID)
	}
	if !changes[1].To.Start.Equal(at(t, 11, 15)) || !changes[1].To.End.Equal(at(t, 11, 45)) {
		t.Fatalf("c moved to [%v, %v), want [11:15, 11:45)", changes[1].To.Start, changes[1].To.End)
	}

	assertNoOverlaps(t, moved, changes)
}

func TestResolveNoConflictProducesNoChanges(t *testing.T) {
	t.Parallel()

	scope := Scope{VenueID: "venue-1", RoomID: room("room-2")}
	source := newMemorySource()
	source.add(scope, Session{ID: "d", Interval: Interval{Start: at(t, 14, 0), End: at(t, 14, 30)}})

	resolver := NewResolver(source, DefaultMaxCascade)
	moved := Interval{Start: at(t, 15, 0), End: at(t, 15, 30)}

	changes, truncated, err := resolver.Resolve(context.Background(), "d", moved, scope)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if truncated {
		t.Fatal("cascade unexpectedly truncated")
	}
	if len(changes) != 0 {
		t.Fatalf("expected no cascaded changes, got %+v", changes)
	}
}

func TestResolveScopesConflictsToOneRoom(t *testing.T) {
	t.Parallel()

	source := newMemorySource()
	roomOne := Scope{VenueID: "venue-1", RoomID: room("room-1")}
	roomTwo := Scope{VenueID: "venue-1", RoomID: room("room-2")}
	source.add(roomOne, Session{ID: "e", Interval: Interval{Start: at(t, 9, 0), End: at(t, 9, 30)}})
	source.add(roomTwo, Session{ID: "f", Interval: Interval{Start: at(t, 9, 15), End: at(t, 9, 45)}})

	resolver := NewResolver(source, DefaultMaxCascade)
	moved := Interval{Start: at(t, 9, 15), End: at(t, 9, 45)}

	changes, truncated, err := resolver.Resolve(context.Background(), "e", moved, roomOne)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if truncated {
		t.Fatal("cascade unexpectedly truncated")
	}
	if len(changes) != 0 {
		t.Fatalf("session in another room cascaded: %+v", changes)
	}
}

func TestResolveRoomlessSessionsFormTheirOwnScope(t *testing.T) {
	t.Parallel()

	source := newMemorySource()
	roomless := Scope{VenueID: "venue-1"}
	roomed := Scope{VenueID: "venue-1", RoomID: room("room-1")}
	source.add(roomless, Session{ID: "g", Interval: Interval{Start: at(t, 9, 0), End: at(t, 10, 0)}})
	source.add(roomless, Session{ID: "h", Interval: Interval{Start: at(t, 9, 30), End: at(t, 10, 30)}})
	source.add(roomed, Session{ID: "i", Interval: Interval{Start: at(t, 9, 0), End: at(t, 10, 0)}})

	resolver := NewResolver(source, DefaultMaxCascade)
	moved := Interval{Start: at(t, 9, 30), End: at(t, 10, 30)}

	changes, _, err := resolver.Resolve(context.Background(), "g", moved, roomless)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(changes) != 1 || changes[0].SessionID != "h" {
		t.Fatalf("expected only the roomless session to cascade, got %+v", changes)
	}
}

func TestResolveForwardOnlyAndDurationPreserving(t *testing.T) {
	t.Parallel()

	scope := Scope{VenueID: "venue-1", RoomID: room("room-1")}
	source := newMemorySource()
	durations := []struct {
		id       string
		start    time.Time
		duration time.Duration
	}{
		{"s1", at(t, 10, 0), 20 * time.Minute},
		{"s2", at(t, 10, 10), 45 * time.Minute},
		{"s3", at(t, 10, 40), 15 * time.Minute},
		{"s4", at(t, 11, 0), 30 * time.Minute},
	}
	for _, d := range durations[1:] {
		source.add(scope, Session{ID: d.id, Interval: Interval{Start: d.start, End: d.start.Add(d.duration)}})
	}

	resolver := NewResolver(source, DefaultMaxCascade)
	moved := Interval{Start: at(t, 10, 5), End: at(t, 10, 25)}

	changes, truncated, err := resolver.Resolve(context.Background(), "s1", moved, scope)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if truncated {
		t.Fatal("cascade unexpectedly truncated")
	}

	for _, change := range changes {
		if change.To.Start.Before(change.From.Start) {
			t.Fatalf("session %s moved backward: %v -> %v", change.SessionID, change.From.Start, change.To.Start)
		}
		if change.To.Duration() != change.From.Duration() {
			t.Fatalf("session %s changed duration: %v -> %v", change.SessionID, change.From.Duration(), change.To.Duration())
		}
	}

	assertNoOverlaps(t, moved, changes)
}

func TestResolveTerminatesOnPathologicalChain(t *testing.T) {
	t.Parallel()

	scope := Scope{VenueID: "venue-1", RoomID: room("room-1")}
	source := newMemorySource()
	// A long chain of equal-duration back-to-back sessions; every cascaded
	// placement displaces the next session in the chain.
	start := at(t, 0, 0)
	for i := 0; i < 200; i++ {
		source.add(scope, Session{
			ID:       "chain-" + strconv.Itoa(i),
			Interval: Interval{Start: start, End: start.Add(30 * time.Minute)},
		})
		start = start.Add(30 * time.Minute)
	}

	resolver := NewResolver(source, DefaultMaxCascade)
	moved := Interval{Start: at(t, 0, 15), End: at(t, 0, 45)}

	changes, truncated, err := resolver.Resolve(context.Background(), "mover", moved, scope)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !truncated {
		t.Fatal("expected a truncated cascade for a chain longer than the bound")
	}
	if len(changes) == 0 {
		t.Fatal("expected partial progress before truncation")
	}

	assertNoOverlaps(t, moved, changes)
}

func TestNewResolverDefaultsBound(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(newMemorySource(), 0)
	if got := resolver.MaxCascade(); got != DefaultMaxCascade {
		t.Fatalf("MaxCascade() = %d, want %d", got, DefaultMaxCascade)
	}
}

// assertNoOverlaps checks the no-overlap invariant over the moved interval
// plus every cascaded target interval.
func assertNoOverlaps(t *testing.T, moved Interval, changes []Change) {
	t.Helper()

	finals := []Interval{moved}
	for _, change := range changes {
		finals = append(finals, change.To)
	}
	for i := range finals {
		for j := i + 1; j < len(finals); j++ {
			if finals[i].Overlaps(finals[j]) {
				t.Fatalf("final intervals %d and %d overlap: %+v %+v", i, j, finals[i], finals[j])
			}
		}
	}
}
