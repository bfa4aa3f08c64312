package entity

import "github.com/google/uuid"

// LineItem is one requested unit of a booking: RoomItem, CampItem or AddOnItem.
type LineItem interface {
	lineItem()
}

// RoomItem reserves a whole room, or one bed in it when BedID is set.
type RoomItem struct {
	RoomID uuid.UUID
	BedID  *uuid.UUID
	Stay   DateRange
	Guests int
}

type CampItem struct {
	CampSessionID uuid.UUID
	Guests        int
}

// AddOnItem has no time range of its own.
type AddOnItem struct {
	AddOnID  uuid.UUID
	Quantity int
}

func (RoomItem) lineItem()  {}
func (CampItem) lineItem()  {}
func (AddOnItem) lineItem() {}
