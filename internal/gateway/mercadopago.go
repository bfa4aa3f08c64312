package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"go.uber.org/zap"
)

// MercadoPago creates checkout preferences and reads payments through the
// official SDK.
type MercadoPago struct {
	preferences     preference.Client
	payments        payment.Client
	notificationURL string
	log             *zap.Logger
}

func NewMercadoPago(accessToken, notificationURL string, log *zap.Logger) (*MercadoPago, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("missing MERCADOPAGO_ACCESS_TOKEN: %w", ErrNotConfigured)
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("create mercadopago config: %w", err)
	}

	return &MercadoPago{
		preferences:     preference.NewClient(cfg),
		payments:        payment.NewClient(cfg),
		notificationURL: notificationURL,
		log:             log.With(zap.String("gateway", "mercadopago")),
	}, nil
}

func (g *MercadoPago) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	expires := req.ExpiresAt
	request := preference.Request{
		Items: []preference.ItemRequest{
			{
				ID:         req.Reference,
				Title:      req.Description,
				CurrencyID: req.Currency,
				Quantity:   1,
				UnitPrice:  fromMinor(req.AmountTotal),
			},
		},
		ExternalReference: req.BookingID.String(),
		Metadata:          req.Metadata(),
		NotificationURL:   g.notificationURL,
		Expires:           true,
		ExpirationDateTo:  &expires,
	}
	if req.CustomerEmail != "" {
		request.Payer = &preference.PayerRequest{Email: req.CustomerEmail}
	}

	resp, err := g.preferences.Create(ctx, request)
	if err != nil {
		g.log.Error("Create preference failed", zap.Error(err), zap.String("booking_id", req.BookingID.String()))
		return nil, fmt.Errorf("create preference for booking %s: %w", req.BookingID, err)
	}

	g.log.Info("Preference created",
		zap.String("preference_id", resp.ID),
		zap.String("booking_id", req.BookingID.String()),
	)

	return &Session{ID: resp.ID, URL: resp.InitPoint, ExpiresAt: expires}, nil
}

func (g *MercadoPago) GetPayment(ctx context.Context, txnID string) (*PaymentInfo, error) {
	id, err := strconv.Atoi(txnID)
	if err != nil {
		return nil, fmt.Errorf("payment id %q is not numeric: %w", txnID, ErrPaymentNotFound)
	}

	resp, err := g.payments.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get payment %s: %w", txnID, ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("get payment %s: %w", txnID, err)
	}

	info := toPaymentInfo(*resp)
	return &info, nil
}

func (g *MercadoPago) SearchPayments(ctx context.Context, from, to time.Time, limit int) ([]PaymentInfo, error) {
	const pageSize = 50

	var out []PaymentInfo
	for offset := 0; len(out) < limit; offset += pageSize {
		resp, err := g.payments.Search(ctx, payment.SearchRequest{
			Limit:  pageSize,
			Offset: offset,
			Filters: map[string]string{
				"range":      "date_created",
				"begin_date": from.UTC().Format(time.RFC3339),
				"end_date":   to.UTC().Format(time.RFC3339),
				"sort":       "date_created",
				"criteria":   "asc",
			},
		})
		if err != nil {
			return nil, fmt.Errorf("search payments: %w", err)
		}

		for _, p := range resp.Results {
			out = append(out, toPaymentInfo(p))
			if len(out) == limit {
				break
			}
		}
		if len(resp.Results) < pageSize {
			break
		}
	}

	return out, nil
}

// ResolveNotification fetches the payment a notification points at. The
// booking is taken from external_reference, or the session metadata when a
// payment was created outside the preference.
func (g *MercadoPago) ResolveNotification(ctx context.Context, n *Notification) (*Event, error) {
	id, err := strconv.Atoi(n.Data.ID)
	if err != nil {
		return nil, fmt.Errorf("notification data id %q is not numeric: %w", n.Data.ID, ErrInvalidPayload)
	}

	resp, err := g.payments.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get payment %d: %w", id, ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("get payment %d: %w", id, err)
	}

	info := toPaymentInfo(*resp)
	if info.ExternalReference == "" {
		if ref, ok := resp.Metadata["booking_id"].(string); ok {
			info.ExternalReference = ref
		}
	}

	evt := eventFromPayment(info, resp.StatusDetail, resp.DateLastUpdated)
	g.log.Info("Notification resolved",
		zap.String("payment_id", info.TxnID),
		zap.String("status", info.Status),
		zap.String("event_type", evt.Type),
	)
	return evt, nil
}

func toPaymentInfo(p payment.Response) PaymentInfo {
	return PaymentInfo{
		TxnID:             strconv.Itoa(p.ID),
		Status:            p.Status,
		Amount:            toMinor(p.TransactionAmount),
		RefundedAmount:    toMinor(p.TransactionAmountRefunded),
		Currency:          p.CurrencyID,
		ExternalReference: p.ExternalReference,
	}
}

// the SDK surfaces HTTP failures as plain errors carrying the status text
func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "404") || strings.Contains(msg, "not found")
}
