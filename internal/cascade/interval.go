package cascade

import "time"

// Interval is a half-open [Start, End) time range. End is always after Start
// for intervals produced by this package.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// ShiftTo returns the interval re-anchored at start with its duration
// preserved.
func (i Interval) ShiftTo(start time.Time) Interval {
	return Interval{Start: start, End: start.Add(i.Duration())}
}
