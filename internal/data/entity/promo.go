package entity

import (
	"time"

	"github.com/google/uuid"
)

type PromoKind string

const (
	PromoKindPercent PromoKind = "percent"
	PromoKindFixed   PromoKind = "fixed"
)

// PromoCode.Value is basis points for percent codes and minor units for fixed codes.
type PromoCode struct {
	Code      string     `db:"code"`
	Kind      PromoKind  `db:"kind"`
	Value     int64      `db:"value"`
	ValidFrom *time.Time `db:"valid_from"`
	ValidTo   *time.Time `db:"valid_to"`
	MaxUses   *int       `db:"max_uses"`
	UsedCount int        `db:"used_count"`
	Active    bool       `db:"active"`
}

// Unusable returns a short reason when the code cannot be applied at now, or "".
func (p *PromoCode) Unusable(now time.Time) string {
	switch {
	case !p.Active:
		return "promo code is inactive"
	case p.ValidFrom != nil && now.Before(*p.ValidFrom):
		return "promo code is not valid yet"
	case p.ValidTo != nil && !now.Before(*p.ValidTo):
		return "promo code has expired"
	case p.MaxUses != nil && p.UsedCount >= *p.MaxUses:
		return "promo code usage limit reached"
	}
	return ""
}

type PromoApplication struct {
	BaseSimple
	BookingID      uuid.UUID `db:"booking_id"`
	PromoCode      string    `db:"promo_code"`
	Kind           PromoKind `db:"kind"`
	Value          int64     `db:"value"`
	DiscountAmount int64     `db:"discount_amount"`
}
