package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mercado Pago notification headers.
const (
	NotificationSignatureHeader = "x-signature"
	NotificationRequestIDHeader = "x-request-id"
)

// Notification is the provider-native webhook body. It only names the
// resource that changed; the current state has to be fetched.
type Notification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NotificationRequest is one inbound notification as received over HTTP.
type NotificationRequest struct {
	Body      []byte
	Signature string
	RequestID string
	// DataID is the data.id query parameter, preferred over the body.
	DataID string
}

// NotificationResolver is implemented by providers that post notifications
// instead of signed events.
type NotificationResolver interface {
	ResolveNotification(ctx context.Context, n *Notification) (*Event, error)
}

func ParseNotification(body []byte, dataID string) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if dataID != "" {
		n.Data.ID = dataID
	}
	if strings.TrimSpace(n.Type) == "" || strings.TrimSpace(n.Data.ID) == "" {
		return nil, fmt.Errorf("%w: type and data.id are required", ErrInvalidPayload)
	}
	return &n, nil
}

// notificationManifest is the string the provider signs. Alphanumeric ids are
// signed lower-cased.
func notificationManifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		fmt.Fprintf(&b, "id:%s;", strings.ToLower(dataID))
	}
	if requestID != "" {
		fmt.Fprintf(&b, "request-id:%s;", requestID)
	}
	fmt.Fprintf(&b, "ts:%s;", ts)
	return b.String()
}

func SignNotification(secret, dataID, requestID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(notificationManifest(dataID, requestID, ts)))
	return hex.EncodeToString(mac.Sum(nil))
}

// NotificationSignatureValue formats "ts=<millis>,v1=<hex>".
func NotificationSignatureValue(secret, dataID, requestID string, at time.Time) string {
	ts := strconv.FormatInt(at.UnixMilli(), 10)
	return fmt.Sprintf("ts=%s,v1=%s", ts, SignNotification(secret, dataID, requestID, ts))
}

// VerifyNotificationSignature checks an "x-signature: ts=..,v1=.." header.
// The timestamp is accepted in seconds or milliseconds.
func VerifyNotificationSignature(header, requestID, dataID, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" {
		return ErrMissingSignature
	}
	if secret == "" {
		return fmt.Errorf("notification secret not configured: %w", ErrSignatureMismatch)
	}

	var ts, hash string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return ErrMalformedSignature
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			hash = value
		}
	}
	if ts == "" || hash == "" {
		return ErrMalformedSignature
	}

	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrMalformedSignature
	}
	signedAt := time.Unix(n, 0)
	if n > 1e12 {
		signedAt = time.UnixMilli(n)
	}
	if d := now.Sub(signedAt); d > tolerance || d < -tolerance {
		return ErrSignatureExpired
	}

	expected := SignNotification(secret, dataID, requestID, ts)
	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return ErrSignatureMismatch
	}
	return nil
}

// eventFromPayment turns the provider's current view of a payment into the
// event the webhook processor understands. The id folds in status and
// refunded total, so every distinct state is applied exactly once.
func eventFromPayment(info PaymentInfo, detail string, updatedAt time.Time) *Event {
	evt := &Event{
		ID: fmt.Sprintf("mp_%s_%s_%d", info.TxnID, strings.ToLower(info.Status), info.RefundedAmount),
		Data: EventData{
			TransactionID: info.TxnID,
			Currency:      info.Currency,
		},
	}
	if !updatedAt.IsZero() {
		evt.Created = updatedAt.Unix()
	}
	if id, err := uuid.Parse(info.ExternalReference); err == nil {
		evt.Data.BookingID = &id
	}

	amount, refunded := info.Amount, info.RefundedAmount
	switch strings.ToLower(info.Status) {
	case "approved", "succeeded", "completed":
		if refunded > 0 {
			evt.Type = string(EventRefundSucceeded)
			evt.Data.RefundedAmount = &refunded
			break
		}
		evt.Type = string(EventPaymentSucceeded)
		evt.Data.Amount = &amount
	case "rejected", "cancelled", "failed":
		evt.Type = string(EventPaymentFailed)
		evt.Data.FailureReason = detail
		if detail == "" {
			evt.Data.FailureReason = info.Status
		}
	case "refunded":
		evt.Type = string(EventRefundSucceeded)
		if refunded > 0 {
			evt.Data.RefundedAmount = &refunded
		}
	case "charged_back", "in_mediation":
		evt.Type = string(EventDisputeCreated)
		evt.Data.Reason = info.Status
		if detail != "" {
			evt.Data.Reason = info.Status + ": " + detail
		}
	default:
		// pending, in_process, authorized: nothing to apply yet
		evt.Type = "mercadopago.payment." + strings.ToLower(info.Status)
	}
	return evt
}
