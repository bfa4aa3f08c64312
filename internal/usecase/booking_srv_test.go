package usecase

import (
	"context"
	"testing"

	"booking-engine/internal/dto/request"
	"booking-engine/internal/gateway"
	"booking-engine/pkg/apperror"

	"github.com/google/uuid"
)

func TestGetBooking(t *testing.T) {
	f := newFixture(t)
	req := checkoutRequest("ada@example.com",
		bedRequest(bedAID, "2025-07-01", "2025-07-05"),
		request.LineItemRequest{Type: request.ItemTypeAddOn, AddOnID: basketID.String(), Quantity: 1},
	)
	req.PromoCode = "summer25"
	bookingID, session := f.checkout(req)
	if _, err := f.deliver("evt_paid", gateway.EventPaymentSucceeded, gateway.EventData{SessionID: session, TransactionID: "txn_7"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	detail, err := f.svc.Booking.GetBooking(context.Background(), bookingID.String())
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}

	if detail.Status != "paid" || detail.Reference == "" {
		t.Fatalf("unexpected booking %+v", detail.BookingResponse)
	}
	if detail.CheckIn == nil || *detail.CheckIn != "2025-07-01" || detail.CheckOut == nil || *detail.CheckOut != "2025-07-05" {
		t.Fatalf("stay span not reported")
	}
	if detail.Customer == nil || detail.Customer.Email != "ada@example.com" {
		t.Fatalf("customer missing: %+v", detail.Customer)
	}
	if detail.Payment == nil || detail.Payment.Status != "completed" || detail.Payment.GatewayTxnID == nil {
		t.Fatalf("payment missing: %+v", detail.Payment)
	}
	if len(detail.Rooms) != 1 || detail.Rooms[0].BedID == nil || *detail.Rooms[0].BedID != bedAID.String() {
		t.Fatalf("rooms = %+v", detail.Rooms)
	}
	if len(detail.AddOns) != 1 || detail.AddOns[0].LineTotal != 15000 {
		t.Fatalf("add-ons = %+v", detail.AddOns)
	}

	// 4 nights x 4500 + 15000 = 33000, less 10% = 29700, VAT 8% rounded down to 2300
	if detail.Promo == nil || detail.Promo.Code != "SUMMER25" || detail.Discount != 3300 {
		t.Fatalf("promo = %+v discount = %d", detail.Promo, detail.Discount)
	}
	if detail.Subtotal != 33000 || detail.TaxTotal != 2300 || detail.TotalAmount != 32000 {
		t.Fatalf("totals: subtotal=%d tax=%d total=%d", detail.Subtotal, detail.TaxTotal, detail.TotalAmount)
	}
	if detail.TotalDisplay != "320.00" {
		t.Fatalf("display = %s", detail.TotalDisplay)
	}

	t.Run("bad id", func(t *testing.T) {
		_, err := f.svc.Booking.GetBooking(context.Background(), "not-a-uuid")
		assertCode(t, err, apperror.CodeValidation)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := f.svc.Booking.GetBooking(context.Background(), uuid.NewString())
		assertCode(t, err, apperror.CodeNotFound)
	})
}

func TestListBookings(t *testing.T) {
	f := newFixture(t)
	_, session := f.checkout(checkoutRequest("a@example.com", bedRequest(bedAID, "2025-07-01", "2025-07-05")))
	f.advance(1)
	f.checkout(checkoutRequest("b@example.com", bedRequest(bedBID, "2025-07-01", "2025-07-05")))
	f.advance(1)
	f.checkout(checkoutRequest("c@example.com", roomRequest("2025-08-01", "2025-08-03", 2)))
	if _, err := f.deliver("evt_paid", gateway.EventPaymentSucceeded, gateway.EventData{SessionID: session}); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	page := func(n, per int, status string) *request.ListBookingsRequest {
		return &request.ListBookingsRequest{PageRequest: request.PageRequest{Page: n, PerPage: per}, Status: status}
	}

	all, err := f.svc.Booking.ListBookings(context.Background(), page(1, 2, ""))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all.Data) != 2 || all.Meta.Total != 3 || all.Meta.TotalPages != 2 || !all.Meta.HasNext {
		t.Fatalf("unexpected page %+v", all.Meta)
	}

	paid, err := f.svc.Booking.ListBookings(context.Background(), page(1, 10, "paid"))
	if err != nil {
		t.Fatalf("list paid: %v", err)
	}
	if len(paid.Data) != 1 || paid.Data[0].Status != "paid" {
		t.Fatalf("status filter ignored: %+v", paid.Data)
	}

	_, err = f.svc.Booking.ListBookings(context.Background(), page(1, 10, "archived"))
	assertCode(t, err, apperror.CodeValidation)

	_, err = f.svc.Booking.ListBookings(context.Background(), page(0, 10, ""))
	assertCode(t, err, apperror.CodeValidation)
}
