package gateway

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Mock is an in-process provider for local runs and integration tests.
// Sessions are recorded; payments exist only once Settle is called.
type Mock struct {
	mu        sync.Mutex
	checkout  string
	seq       atomic.Int64
	sessions  map[string]SessionRequest
	payments  map[string]PaymentInfo
	createdAt map[string]time.Time
	log       *zap.Logger
}

func NewMock(checkoutURL string, log *zap.Logger) *Mock {
	if checkoutURL == "" {
		checkoutURL = "http://localhost:8080/mock-checkout"
	}
	log.Info("Payment gateway mock mode enabled")
	return &Mock{
		checkout:  checkoutURL,
		sessions:  make(map[string]SessionRequest),
		payments:  make(map[string]PaymentInfo),
		createdAt: make(map[string]time.Time),
		log:       log.With(zap.String("gateway", "mock")),
	}
}

func (m *Mock) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := fmt.Sprintf("mock_sess_%d", m.seq.Add(1))

	m.mu.Lock()
	m.sessions[id] = req
	m.mu.Unlock()

	u, err := url.Parse(m.checkout)
	if err != nil {
		return nil, fmt.Errorf("parse mock checkout url: %w", err)
	}
	q := u.Query()
	q.Set("session_id", id)
	u.RawQuery = q.Encode()

	m.log.Debug("Mock session created", zap.String("session_id", id), zap.String("booking_id", req.BookingID.String()))
	return &Session{ID: id, URL: u.String(), ExpiresAt: req.ExpiresAt}, nil
}

// Settle records a provider-side payment for a session and returns its transaction id.
func (m *Mock) Settle(sessionID, status string, at time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.sessions[sessionID]
	if !ok {
		return "", fmt.Errorf("unknown session %s", sessionID)
	}
	txnID := fmt.Sprintf("mock_txn_%d", m.seq.Add(1))
	m.payments[txnID] = PaymentInfo{
		TxnID:             txnID,
		Status:            status,
		Amount:            req.AmountTotal,
		Currency:          req.Currency,
		ExternalReference: req.BookingID.String(),
	}
	m.createdAt[txnID] = at
	return txnID, nil
}

// Put overwrites the provider view of a transaction.
func (m *Mock) Put(info PaymentInfo, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[info.TxnID] = info
	m.createdAt[info.TxnID] = at
}

func (m *Mock) GetPayment(ctx context.Context, txnID string) (*PaymentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.payments[txnID]
	if !ok {
		return nil, fmt.Errorf("get payment %s: %w", txnID, ErrPaymentNotFound)
	}
	return &info, nil
}

// ResolveNotification treats data.id as a mock transaction id.
func (m *Mock) ResolveNotification(ctx context.Context, n *Notification) (*Event, error) {
	info, err := m.GetPayment(ctx, n.Data.ID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	at := m.createdAt[info.TxnID]
	m.mu.Unlock()
	return eventFromPayment(*info, "", at), nil
}

func (m *Mock) SearchPayments(ctx context.Context, from, to time.Time, limit int) ([]PaymentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PaymentInfo
	for id, info := range m.payments {
		at := m.createdAt[id]
		if !at.Before(from) && at.Before(to) {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TxnID < out[j].TxnID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
