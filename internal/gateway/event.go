package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventCheckoutCompleted EventKind = "checkout.completed"
	EventCheckoutExpired   EventKind = "checkout.expired"
	EventPaymentSucceeded  EventKind = "payment.succeeded"
	EventPaymentFailed     EventKind = "payment.failed"
	EventDisputeCreated    EventKind = "dispute.created"
	EventRefundSucceeded   EventKind = "refund.succeeded"
	// EventInvoice stands for every invoice.* kind.
	EventInvoice EventKind = "invoice.*"
	// EventUnhandled is acknowledged without side effects.
	EventUnhandled EventKind = "unhandled"
)

var ErrInvalidPayload = errors.New("invalid event payload")

// Event is the signed envelope the provider posts to the webhook endpoint.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Created int64     `json:"created"`
	Data    EventData `json:"data"`
}

type EventData struct {
	BookingID      *uuid.UUID `json:"booking_id,omitempty"`
	CustomerID     *uuid.UUID `json:"customer_id,omitempty"`
	SessionID      string     `json:"session_id,omitempty"`
	TransactionID  string     `json:"transaction_id,omitempty"`
	Amount         *int64     `json:"amount,omitempty"`
	Currency       string     `json:"currency,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	RefundedAmount *int64     `json:"refunded_amount,omitempty"`
	Reason         string     `json:"reason,omitempty"`
}

func ParseEvent(body []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if strings.TrimSpace(evt.ID) == "" || strings.TrimSpace(evt.Type) == "" {
		return nil, fmt.Errorf("%w: id and type are required", ErrInvalidPayload)
	}
	return &evt, nil
}

// Kind folds the wire type into the closed set of handled kinds.
func (e *Event) Kind() EventKind {
	switch k := EventKind(e.Type); k {
	case EventCheckoutCompleted, EventCheckoutExpired, EventPaymentSucceeded,
		EventPaymentFailed, EventDisputeCreated, EventRefundSucceeded:
		return k
	}
	if strings.HasPrefix(e.Type, "invoice.") {
		return EventInvoice
	}
	return EventUnhandled
}

func (e *Event) CreatedAt() time.Time {
	if e.Created == 0 {
		return time.Time{}
	}
	return time.Unix(e.Created, 0).UTC()
}
