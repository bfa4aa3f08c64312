package entity

import (
	"time"

	"github.com/google/uuid"
)

type Room struct {
	ID              uuid.UUID `db:"id"`
	Name            string    `db:"name"`
	NightlyRate     int64     `db:"nightly_rate"`
	BaseOccupancy   int       `db:"base_occupancy"`
	MaxOccupancy    int       `db:"max_occupancy"`
	ExtraGuestFee   int64     `db:"extra_guest_fee"`
	RateModifierBps int64     `db:"rate_modifier_bps"`
	Active          bool      `db:"active"`
}

type Bed struct {
	ID          uuid.UUID `db:"id"`
	RoomID      uuid.UUID `db:"room_id"`
	Label       string    `db:"label"`
	NightlyRate int64     `db:"nightly_rate"`
}

type CampSession struct {
	ID            uuid.UUID `db:"id"`
	CampID        uuid.UUID `db:"camp_id"`
	Name          string    `db:"name"`
	StartDate     time.Time `db:"start_date"`
	EndDate       time.Time `db:"end_date"`
	Capacity      int       `db:"capacity"`
	PricePerGuest int64     `db:"price_per_guest"`
}

func (c *CampSession) Range() DateRange {
	return DateRange{Start: c.StartDate, End: c.EndDate}
}

type AddOn struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	UnitPrice int64     `db:"unit_price"`
	PerNight  bool      `db:"per_night"`
	Active    bool      `db:"active"`
}
