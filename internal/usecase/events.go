package usecase

import (
	"context"
	"time"

	"booking-engine/internal/data/entity"
	"booking-engine/pkg/mq"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Routing keys on the domain exchange.
const (
	KeyBookingStatusChanged = "booking.status_changed"
	KeyCheckoutCreated      = "checkout.created"
	keyEscalationPrefix     = "escalation."
)

type StatusChangedEvent struct {
	BookingID  uuid.UUID            `json:"booking_id"`
	Reference  string               `json:"reference"`
	From       entity.BookingStatus `json:"from"`
	To         entity.BookingStatus `json:"to"`
	Cause      string               `json:"cause"`
	OccurredAt time.Time            `json:"occurred_at"`
}

type CheckoutCreatedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Reference  string    `json:"reference"`
	SessionID  string    `json:"session_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EscalationEvent asks an operator to look at something the engine refused
// to resolve on its own.
type EscalationEvent struct {
	Kind         string     `json:"kind"`
	BookingID    *uuid.UUID `json:"booking_id,omitempty"`
	PaymentID    *uuid.UUID `json:"payment_id,omitempty"`
	EventID      string     `json:"event_id,omitempty"`
	GatewayTxnID string     `json:"gateway_txn_id,omitempty"`
	Reason       string     `json:"reason"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

type outboundEvent struct {
	key     string
	payload any
}

func escalation(e EscalationEvent) outboundEvent {
	return outboundEvent{key: keyEscalationPrefix + e.Kind, payload: e}
}

// publishAll sends events after the state they describe is committed.
// Delivery is best effort; failures are logged.
func publishAll(ctx context.Context, pub mq.EventPublisher, log *zap.Logger, events []outboundEvent) {
	for _, evt := range events {
		if err := pub.PublishJSON(ctx, evt.key, evt.payload); err != nil {
			log.Error("Failed to publish event", zap.Error(err), zap.String("routing_key", evt.key))
		}
	}
}
