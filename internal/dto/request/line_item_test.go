package request

import (
	"testing"

	"booking-engine/internal/data/entity"
)

func TestToLineItems(t *testing.T) {
	bed := "7f1c1f0e-3c55-4a4b-9d7e-0f7b9b1a2c3d"
	req := LineItemsRequest{Items: []LineItemRequest{
		{Type: "room", RoomID: "0b8c8a3e-8e0b-4b59-9a43-3b1b8f8d2a10", BedID: &bed, CheckIn: "2025-07-01", CheckOut: "2025-07-08", Guests: 1},
		{Type: "camp", CampSessionID: "d7b7f3f4-6a8e-4c1c-8f59-4e2f0a6b1c22", Guests: 2},
		{Type: "add_on", AddOnID: "5a3b1c2d-4e5f-4a6b-8c7d-9e0f1a2b3c4d", Quantity: 1},
	}}

	items, errs := req.ToLineItems()
	if errs != nil {
		t.Fatalf("unexpected errors %v", errs)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	room, ok := items[0].(entity.RoomItem)
	if !ok {
		t.Fatalf("expected RoomItem, got %T", items[0])
	}
	if room.BedID == nil || room.BedID.String() != bed {
		t.Fatalf("bed id not carried over")
	}
	if room.Stay.Nights() != 7 {
		t.Fatalf("expected 7 nights, got %d", room.Stay.Nights())
	}
	if _, ok := items[1].(entity.CampItem); !ok {
		t.Fatalf("expected CampItem, got %T", items[1])
	}
	if _, ok := items[2].(entity.AddOnItem); !ok {
		t.Fatalf("expected AddOnItem, got %T", items[2])
	}
}

func TestToLineItemsMissingFields(t *testing.T) {
	req := LineItemsRequest{Items: []LineItemRequest{
		{Type: "room", RoomID: "0b8c8a3e-8e0b-4b59-9a43-3b1b8f8d2a10"},
		{Type: "camp"},
	}}

	_, errs := req.ToLineItems()
	for _, field := range []string{"items[0].check_in", "items[0].check_out", "items[1].camp_session_id"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, errs)
		}
	}
}
