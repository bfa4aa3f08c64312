package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted: {PaymentStatusRefunded},
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Payment struct {
	Base
	BookingID        uuid.UUID     `db:"booking_id"`
	Amount           int64         `db:"amount"`
	Currency         string        `db:"currency"`
	Status           PaymentStatus `db:"status"`
	GatewaySessionID *string       `db:"gateway_session_id"`
	GatewayTxnID     *string       `db:"gateway_txn_id"`
	RefundedAmount   int64         `db:"refunded_amount"`
	FailureReason    *string       `db:"failure_reason"`
	PaymentDate      *time.Time    `db:"payment_date"`
	ReviewRequired   bool          `db:"review_required"`
	ReviewReason     *string       `db:"review_reason"`
}
