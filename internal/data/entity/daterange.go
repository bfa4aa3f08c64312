package entity

import "time"

const day = 24 * time.Hour

// DateRange is the half-open interval [Start, End) of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: TruncateDay(start), End: TruncateDay(end)}
}

// Valid requires End strictly after Start.
func (r DateRange) Valid() bool {
	return r.End.After(r.Start)
}

func (r DateRange) Nights() int {
	if !r.Valid() {
		return 0
	}
	return int(r.End.Sub(r.Start) / day)
}

// Overlaps reports whether [s1,e1) and [s2,e2) share at least one instant.
// Touching boundaries (checkout day == next check-in day) do not overlap.
func Overlaps(a, b DateRange) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Span returns the smallest range covering both.
func Span(a, b DateRange) DateRange {
	out := a
	if b.Start.Before(out.Start) {
		out.Start = b.Start
	}
	if b.End.After(out.End) {
		out.End = b.End
	}
	return out
}

func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
