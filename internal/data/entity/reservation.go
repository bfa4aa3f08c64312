package entity

import (
	"time"

	"github.com/google/uuid"
)

// RoomReservation holds a whole room, or a single bed when BedID is set.
type RoomReservation struct {
	BaseSimple
	BookingID uuid.UUID  `db:"booking_id"`
	RoomID    uuid.UUID  `db:"room_id"`
	BedID     *uuid.UUID `db:"bed_id"`
	CheckIn   time.Time  `db:"check_in"`
	CheckOut  time.Time  `db:"check_out"`
	Guests    int        `db:"guests"`
	LineTotal int64      `db:"line_total"`
	Active    bool       `db:"active"`
}

func (r *RoomReservation) Range() DateRange {
	return DateRange{Start: r.CheckIn, End: r.CheckOut}
}

func (r *RoomReservation) IsBedAssignment() bool {
	return r.BedID != nil
}

type CampRegistration struct {
	BaseSimple
	BookingID     uuid.UUID `db:"booking_id"`
	CampSessionID uuid.UUID `db:"camp_session_id"`
	CampID        uuid.UUID `db:"camp_id"`
	StartDate     time.Time `db:"start_date"`
	EndDate       time.Time `db:"end_date"`
	Guests        int       `db:"guests"`
	LineTotal     int64     `db:"line_total"`
	Active        bool      `db:"active"`
}

func (c *CampRegistration) Range() DateRange {
	return DateRange{Start: c.StartDate, End: c.EndDate}
}

type AddOnLine struct {
	BaseSimple
	BookingID uuid.UUID `db:"booking_id"`
	AddOnID   uuid.UUID `db:"add_on_id"`
	Quantity  int       `db:"quantity"`
	UnitPrice int64     `db:"unit_price"`
	LineTotal int64     `db:"line_total"`
}
