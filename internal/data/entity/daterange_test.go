package entity

import (
	"testing"
	"time"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func r(start, end string) DateRange {
	return DateRange{Start: d(start), End: d(end)}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b DateRange
		want bool
	}{
		{"identical", r("2025-07-01", "2025-07-05"), r("2025-07-01", "2025-07-05"), true},
		{"touching boundary", r("2025-07-01", "2025-07-05"), r("2025-07-05", "2025-07-08"), false},
		{"touching reversed", r("2025-07-05", "2025-07-08"), r("2025-07-01", "2025-07-05"), false},
		{"partial", r("2025-07-01", "2025-07-05"), r("2025-07-04", "2025-07-06"), true},
		{"contained", r("2025-07-01", "2025-07-10"), r("2025-07-03", "2025-07-04"), true},
		{"disjoint", r("2025-07-01", "2025-07-02"), r("2025-07-03", "2025-07-04"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Fatalf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Fatalf("Overlaps is not symmetric")
			}
		})
	}
}

func TestDateRangeNightsAndSpan(t *testing.T) {
	stay := r("2025-07-01", "2025-07-08")
	if n := stay.Nights(); n != 7 {
		t.Fatalf("expected 7 nights, got %d", n)
	}
	if n := r("2025-07-08", "2025-07-01").Nights(); n != 0 {
		t.Fatalf("inverted range should have 0 nights, got %d", n)
	}

	span := Span(r("2025-07-03", "2025-07-05"), r("2025-07-01", "2025-07-04"))
	if !span.Start.Equal(d("2025-07-01")) || !span.End.Equal(d("2025-07-05")) {
		t.Fatalf("unexpected span %v", span)
	}
}

func TestNewDateRangeTruncates(t *testing.T) {
	rng := NewDateRange(time.Date(2025, 7, 1, 15, 30, 0, 0, time.UTC), time.Date(2025, 7, 3, 1, 0, 0, 0, time.UTC))
	if rng.Nights() != 2 {
		t.Fatalf("expected 2 nights after truncation, got %d", rng.Nights())
	}
}
