package request

import (
	"fmt"
	"time"

	"booking-engine/internal/data/entity"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

const (
	ItemTypeRoom  = "room"
	ItemTypeCamp  = "camp"
	ItemTypeAddOn = "add_on"
)

// LineItemRequest is the wire form of one requested item. Which fields are
// required depends on Type.
type LineItemRequest struct {
	Type          string  `json:"type" validate:"required,oneof=room camp add_on"`
	RoomID        string  `json:"room_id,omitempty" validate:"omitempty,uuid"`
	BedID         *string `json:"bed_id,omitempty" validate:"omitempty,uuid"`
	CampSessionID string  `json:"camp_session_id,omitempty" validate:"omitempty,uuid"`
	AddOnID       string  `json:"add_on_id,omitempty" validate:"omitempty,uuid"`
	CheckIn       string  `json:"check_in,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CheckOut      string  `json:"check_out,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Guests        int     `json:"guests,omitempty"`
	Quantity      int     `json:"quantity,omitempty"`
}

type LineItemsRequest struct {
	Items []LineItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

// ToLineItems converts and checks the per-type rules the struct tags cannot express.
func (r LineItemsRequest) ToLineItems() ([]entity.LineItem, map[string]string) {
	errs := make(map[string]string)
	items := make([]entity.LineItem, 0, len(r.Items))

	for i, it := range r.Items {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

		switch it.Type {
		case ItemTypeRoom:
			roomID, err := uuid.Parse(it.RoomID)
			if err != nil {
				errs[field("room_id")] = "This field is required"
				continue
			}
			var bedID *uuid.UUID
			if it.BedID != nil {
				id, err := uuid.Parse(*it.BedID)
				if err != nil {
					errs[field("bed_id")] = "Must be a valid UUID"
					continue
				}
				bedID = &id
			}
			checkIn, errIn := time.Parse(DateLayout, it.CheckIn)
			checkOut, errOut := time.Parse(DateLayout, it.CheckOut)
			if errIn != nil {
				errs[field("check_in")] = "This field is required"
			}
			if errOut != nil {
				errs[field("check_out")] = "This field is required"
			}
			if errIn != nil || errOut != nil {
				continue
			}
			items = append(items, entity.RoomItem{
				RoomID: roomID,
				BedID:  bedID,
				Stay:   entity.NewDateRange(checkIn, checkOut),
				Guests: it.Guests,
			})

		case ItemTypeCamp:
			sessionID, err := uuid.Parse(it.CampSessionID)
			if err != nil {
				errs[field("camp_session_id")] = "This field is required"
				continue
			}
			items = append(items, entity.CampItem{CampSessionID: sessionID, Guests: it.Guests})

		case ItemTypeAddOn:
			addOnID, err := uuid.Parse(it.AddOnID)
			if err != nil {
				errs[field("add_on_id")] = "This field is required"
				continue
			}
			items = append(items, entity.AddOnItem{AddOnID: addOnID, Quantity: it.Quantity})

		default:
			errs[field("type")] = "Must be one of: room, camp, add_on"
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return items, nil
}
