package utils

import "testing"

func TestRoundDiv(t *testing.T) {
	tests := []struct {
		name     string
		num, den int64
		mode     RoundingMode
		want     int64
	}{
		{"exact", 10, 5, RoundHalfUp, 2},
		{"half up at half", 5, 2, RoundHalfUp, 3},
		{"half up below half", 7, 5, RoundHalfUp, 1},
		{"half even rounds to even", 5, 2, RoundHalfEven, 2},
		{"half even odd quotient", 7, 2, RoundHalfEven, 4},
		{"half even above half", 8, 5, RoundHalfEven, 2},
		{"down", 19, 10, RoundDown, 1},
		{"up", 11, 10, RoundUp, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundDiv(tt.num, tt.den, tt.mode); got != tt.want {
				t.Fatalf("RoundDiv(%d, %d, %s) = %d, want %d", tt.num, tt.den, tt.mode, got, tt.want)
			}
		})
	}
}

func TestApplyBps(t *testing.T) {
	// 8% of 1269.00 rounded down to whole units
	if got := ApplyBps(126900, 800, 100, RoundDown); got != 10100 {
		t.Fatalf("expected 10100, got %d", got)
	}
	// 8% of 1269.00 to the cent
	if got := ApplyBps(126900, 800, 1, RoundHalfUp); got != 10152 {
		t.Fatalf("expected 10152, got %d", got)
	}
	if got := ApplyBps(0, 800, 1, RoundUp); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestParseRoundingMode(t *testing.T) {
	if m, err := ParseRoundingMode("HALF_EVEN"); err != nil || m != RoundHalfEven {
		t.Fatalf("unexpected result %q, %v", m, err)
	}
	if m, err := ParseRoundingMode(""); err != nil || m != RoundHalfUp {
		t.Fatalf("empty mode should default to half_up, got %q, %v", m, err)
	}
	if _, err := ParseRoundingMode("bankers"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestFormatMinor(t *testing.T) {
	cases := map[int64]string{137000: "1370.00", 5: "0.05", -1250: "-12.50", 0: "0.00"}
	for in, want := range cases {
		if got := FormatMinor(in); got != want {
			t.Fatalf("FormatMinor(%d) = %q, want %q", in, got, want)
		}
	}
}
