package entity

import (
	"testing"
	"time"
)

func TestPromoCodeUnusable(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	one := 1

	tests := []struct {
		name  string
		promo PromoCode
		ok    bool
	}{
		{"valid", PromoCode{Active: true, ValidFrom: &past, ValidTo: &future}, true},
		{"inactive", PromoCode{Active: false}, false},
		{"not started", PromoCode{Active: true, ValidFrom: &future}, false},
		{"expired", PromoCode{Active: true, ValidTo: &past}, false},
		{"exhausted", PromoCode{Active: true, MaxUses: &one, UsedCount: 1}, false},
		{"unlimited", PromoCode{Active: true, UsedCount: 1000}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := tt.promo.Unusable(now)
			if (reason == "") != tt.ok {
				t.Fatalf("Unusable() = %q, want usable=%v", reason, tt.ok)
			}
		})
	}
}
