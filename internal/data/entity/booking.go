package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusDraft          BookingStatus = "draft"
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusPaid           BookingStatus = "paid"
	BookingStatusCancelled      BookingStatus = "cancelled"
	BookingStatusFailed         BookingStatus = "failed"
	BookingStatusRefunded       BookingStatus = "refunded"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusDraft:          {BookingStatusPendingPayment, BookingStatusCancelled},
	BookingStatusPendingPayment: {BookingStatusConfirmed, BookingStatusPaid, BookingStatusCancelled, BookingStatusFailed},
	BookingStatusConfirmed:      {BookingStatusPaid, BookingStatusCancelled, BookingStatusFailed},
	BookingStatusPaid:           {BookingStatusRefunded},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusDraft, BookingStatusPendingPayment, BookingStatusConfirmed, BookingStatusPaid,
		BookingStatusCancelled, BookingStatusFailed, BookingStatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether the booking has released its inventory for good.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusFailed || s == BookingStatusRefunded
}

// CanTransition reports whether from -> to is allowed. Re-applying the
// current status is always allowed and is a no-op for callers.
func CanTransition(from, to BookingStatus) bool {
	if from == to {
		return true
	}
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Booking struct {
	Base
	Reference        string        `db:"reference"`
	CustomerID       uuid.UUID     `db:"customer_id"`
	Status           BookingStatus `db:"status"`
	Subtotal         int64         `db:"subtotal"`
	DiscountTotal    int64         `db:"discount_total"`
	TaxTotal         int64         `db:"tax_total"`
	TotalAmount      int64         `db:"total_amount"`
	Currency         string        `db:"currency"`
	CheckIn          *time.Time    `db:"check_in"`
	CheckOut         *time.Time    `db:"check_out"`
	GatewaySessionID *string       `db:"gateway_session_id"`
	SessionExpiresAt *time.Time    `db:"session_expires_at"`
}
