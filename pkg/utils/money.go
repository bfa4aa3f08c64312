package utils

import (
	"fmt"
	"strings"
)

type RoundingMode string

const (
	RoundHalfUp   RoundingMode = "half_up"
	RoundHalfEven RoundingMode = "half_even"
	RoundDown     RoundingMode = "down"
	RoundUp       RoundingMode = "up"
)

func ParseRoundingMode(s string) (RoundingMode, error) {
	switch mode := RoundingMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case RoundHalfUp, RoundHalfEven, RoundDown, RoundUp:
		return mode, nil
	case "":
		return RoundHalfUp, nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q", s)
	}
}

// RoundDiv divides num by den (both non-negative, den > 0) with the given mode.
func RoundDiv(num, den int64, mode RoundingMode) int64 {
	q, r := num/den, num%den
	if r == 0 {
		return q
	}
	switch mode {
	case RoundDown:
		return q
	case RoundUp:
		return q + 1
	case RoundHalfEven:
		switch {
		case 2*r > den:
			return q + 1
		case 2*r == den && q%2 == 1:
			return q + 1
		}
		return q
	default:
		if 2*r >= den {
			return q + 1
		}
		return q
	}
}

// ApplyBps returns amount * bps / 10000 rounded to a multiple of increment.
func ApplyBps(amount, bps, increment int64, mode RoundingMode) int64 {
	if increment < 1 {
		increment = 1
	}
	return RoundDiv(amount*bps, 10000*increment, mode) * increment
}

// FormatMinor renders minor units with two decimals, e.g. 137000 -> "1370.00".
func FormatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
