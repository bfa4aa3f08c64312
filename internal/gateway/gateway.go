// Package gateway talks to the external payment provider: hosted checkout
// sessions, payment lookups for reconciliation, and signed webhook events.
package gateway

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"booking-engine/internal/data/entity"

	"github.com/google/uuid"
)

//go:generate mockgen -source=gateway.go -destination=mocks/mock_gateway.go -package=mocks

var (
	ErrPaymentNotFound = errors.New("payment not found at gateway")
	ErrNotConfigured   = errors.New("payment gateway not configured")
)

type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	// GetPayment returns ErrPaymentNotFound when the provider has no such transaction.
	GetPayment(ctx context.Context, txnID string) (*PaymentInfo, error)
	// SearchPayments lists provider transactions created in [from, to).
	SearchPayments(ctx context.Context, from, to time.Time, limit int) ([]PaymentInfo, error)
}

type SessionRequest struct {
	BookingID     uuid.UUID
	Reference     string
	CustomerID    uuid.UUID
	CustomerEmail string
	Description   string
	AmountTotal   int64
	Currency      string
	ExpiresAt     time.Time
}

// Metadata is attached to the provider session and echoed back in webhooks.
func (r SessionRequest) Metadata() map[string]any {
	return map[string]any{
		"booking_id":        r.BookingID.String(),
		"booking_reference": r.Reference,
		"customer_id":       r.CustomerID.String(),
	}
}

type Session struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// PaymentInfo is the provider's view of one transaction, amounts in minor units.
type PaymentInfo struct {
	TxnID             string
	Status            string
	Amount            int64
	RefundedAmount    int64
	Currency          string
	ExternalReference string
}

var statusTable = map[string]entity.PaymentStatus{
	// Mercado Pago
	"pending":      entity.PaymentStatusPending,
	"authorized":   entity.PaymentStatusPending,
	"in_process":   entity.PaymentStatusPending,
	"approved":     entity.PaymentStatusCompleted,
	"in_mediation": entity.PaymentStatusCompleted,
	"rejected":     entity.PaymentStatusFailed,
	"cancelled":    entity.PaymentStatusFailed,
	"refunded":     entity.PaymentStatusRefunded,
	"charged_back": entity.PaymentStatusRefunded,
	// neutral names used by the mock provider and the signed event envelope
	"succeeded": entity.PaymentStatusCompleted,
	"completed": entity.PaymentStatusCompleted,
	"failed":    entity.PaymentStatusFailed,
}

// TranslateStatus maps a provider status onto the local payment status.
func TranslateStatus(raw string) (entity.PaymentStatus, bool) {
	s, ok := statusTable[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// toMinor converts a provider decimal amount into minor units.
func toMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinor(amount int64) float64 {
	return float64(amount) / 100
}
