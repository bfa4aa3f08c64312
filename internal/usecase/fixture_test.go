package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"booking-engine/internal/data/entity"
	"booking-engine/internal/dto/request"
	"booking-engine/internal/gateway"
	"booking-engine/pkg/apperror"
	"booking-engine/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	testWebhookSecret      = "whsec_test"
	testNotificationSecret = "mp_notification_test"
)

var (
	roomID        = uuid.MustParse("0b8c8a3e-8e0b-4b59-9a43-3b1b8f8d2a10")
	dormID        = uuid.MustParse("1c9d9b4f-9f1c-4c6a-8b54-4c2c9f9e3b21")
	bedAID        = uuid.MustParse("7f1c1f0e-3c55-4a4b-9d7e-0f7b9b1a2c3d")
	bedBID        = uuid.MustParse("8a2d2a1f-4d66-4b5c-8e8f-1a8c0c2b3d4e")
	campID        = uuid.MustParse("9b3e3b2a-5e77-4c6d-9f90-2b9d1d3c4e5f")
	campSessionID = uuid.MustParse("d7b7f3f4-6a8e-4c1c-8f59-4e2f0a6b1c22")
	basketID      = uuid.MustParse("5a3b1c2d-4e5f-4a6b-8c7d-9e0f1a2b3c4d")
	breakfastID   = uuid.MustParse("6b4c2d3e-5f60-4b7c-9d8e-0f1a2b3c4d5e")
)

func day(s string) time.Time {
	t, err := time.Parse(request.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func stay(in, out string) entity.DateRange {
	return entity.NewDateRange(day(in), day(out))
}

type published struct {
	key     string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key: key, payload: v})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.key == key {
			n++
		}
	}
	return n
}

type sequenceRefs struct {
	n atomic.Int64
}

func (r *sequenceRefs) Next() string {
	return fmt.Sprintf("BK-TEST-%d", r.n.Add(1))
}

type fixture struct {
	t     *testing.T
	store *memStore
	gw    *gateway.Mock
	pub   *recordingPublisher
	cfg   *utils.Config
	svc   *Service

	clockMu sync.Mutex
	now     time.Time
}

func testConfig() *utils.Config {
	return &utils.Config{
		Pricing: utils.PricingConfig{
			Currency:          "USD",
			QuoteTTL:          30 * time.Minute,
			TaxRates:          []utils.TaxRate{{Name: "VAT", RateBps: 800}},
			RoundingMode:      "down",
			RoundingIncrement: 100,
		},
		Conflict: utils.ConflictConfig{FailurePolicy: FailurePolicyOpen},
		Gateway: utils.GatewayConfig{
			Timeout:    2 * time.Second,
			SessionTTL: 30 * time.Minute,
		},
		Webhook: utils.WebhookConfig{
			Secret:             testWebhookSecret,
			NotificationSecret: testNotificationSecret,
			Tolerance:          5 * time.Minute,
			ClaimLease:         time.Minute,
		},
		Reconcile: utils.ReconcileConfig{AmountTolerance: 1, MaxLimit: 100},
	}
}

// newFixture seeds a small property: one private room, one dorm with two
// beds, a camp session, two add-ons and the SUMMER25 promo.
func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, testConfig(), nil)
}

func newFixtureWith(t *testing.T, cfg *utils.Config, gw gateway.Gateway) *fixture {
	t.Helper()

	f := &fixture{
		t:     t,
		store: newMemStore(),
		pub:   &recordingPublisher{},
		cfg:   cfg,
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	log := zap.NewNop()
	f.gw = gateway.NewMock("https://pay.example.test/checkout", log)
	if gw == nil {
		gw = f.gw
	}

	f.store.addRoom(entity.Room{ID: roomID, Name: "Lake View", NightlyRate: 18000, BaseOccupancy: 2, MaxOccupancy: 4, ExtraGuestFee: 2500, Active: true})
	f.store.addRoom(entity.Room{ID: dormID, Name: "Dorm", NightlyRate: 9000, BaseOccupancy: 2, MaxOccupancy: 2, Active: true})
	f.store.addBed(entity.Bed{ID: bedAID, RoomID: dormID, Label: "A", NightlyRate: 4500})
	f.store.addBed(entity.Bed{ID: bedBID, RoomID: dormID, Label: "B", NightlyRate: 4500})
	f.store.addSession(entity.CampSession{
		ID: campSessionID, CampID: campID, Name: "Paddle Week",
		StartDate: day("2025-07-07"), EndDate: day("2025-07-12"),
		Capacity: 10, PricePerGuest: 30000,
	})
	f.store.addAddOn(entity.AddOn{ID: basketID, Name: "Welcome basket", UnitPrice: 15000, Active: true})
	f.store.addAddOn(entity.AddOn{ID: breakfastID, Name: "Breakfast", UnitPrice: 1200, PerNight: true, Active: true})
	f.store.addPromo(entity.PromoCode{Code: "SUMMER25", Kind: entity.PromoKindPercent, Value: 1000, Active: true})

	f.svc = NewService(f.store.repository(), cfg, Deps{
		Gateway:    gw,
		Publisher:  f.pub,
		References: &sequenceRefs{},
		Clock:      f.clock,
	}, log)
	return f
}

func (f *fixture) clock() time.Time {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	f.now = f.now.Add(d)
}

func bedRequest(bed uuid.UUID, in, out string) request.LineItemRequest {
	b := bed.String()
	return request.LineItemRequest{Type: "room", RoomID: dormID.String(), BedID: &b, CheckIn: in, CheckOut: out, Guests: 1}
}

func roomRequest(in, out string, guests int) request.LineItemRequest {
	return request.LineItemRequest{Type: "room", RoomID: roomID.String(), CheckIn: in, CheckOut: out, Guests: guests}
}

func checkoutRequest(email string, items ...request.LineItemRequest) *request.CheckoutRequest {
	return &request.CheckoutRequest{
		LineItemsRequest: request.LineItemsRequest{Items: items},
		Customer:         request.CustomerRequest{Email: email, FirstName: "Ada", LastName: "Lovelace"},
	}
}

// checkout runs a checkout that is expected to succeed.
func (f *fixture) checkout(req *request.CheckoutRequest) (bookingID uuid.UUID, sessionID string) {
	f.t.Helper()
	resp, err := f.svc.Checkout.CreateCheckout(context.Background(), req)
	if err != nil {
		f.t.Fatalf("checkout failed: %v", err)
	}
	return uuid.MustParse(resp.BookingID), resp.SessionID
}

func (f *fixture) booking(id uuid.UUID) entity.Booking {
	f.t.Helper()
	b, ok := f.store.snapshot().bookings[id]
	if !ok {
		f.t.Fatalf("booking %s not stored", id)
	}
	return b
}

func (f *fixture) payment(bookingID uuid.UUID) entity.Payment {
	f.t.Helper()
	for _, p := range f.store.snapshot().payments {
		if p.BookingID == bookingID {
			return p
		}
	}
	f.t.Fatalf("no payment for booking %s", bookingID)
	return entity.Payment{}
}

// signedEvent builds a webhook body and its signature header at the fixture clock.
func (f *fixture) signedEvent(id string, kind gateway.EventKind, data gateway.EventData) ([]byte, string) {
	f.t.Helper()
	body, err := json.Marshal(gateway.Event{ID: id, Type: string(kind), Created: f.clock().Unix(), Data: data})
	if err != nil {
		f.t.Fatalf("marshal event: %v", err)
	}
	return body, gateway.SignatureHeaderValue(testWebhookSecret, f.clock(), body)
}

func (f *fixture) deliver(id string, kind gateway.EventKind, data gateway.EventData) (*WebhookResult, error) {
	body, sig := f.signedEvent(id, kind, data)
	return f.svc.Webhook.HandleWebhook(context.Background(), body, sig)
}

// notify posts a signed provider notification for one payment.
func (f *fixture) notify(dataID, requestID string) (*WebhookResult, error) {
	body := []byte(fmt.Sprintf(`{"type":"payment","action":"payment.updated","data":{"id":%q}}`, dataID))
	return f.svc.Webhook.HandleNotification(context.Background(), gateway.NotificationRequest{
		Body:      body,
		Signature: gateway.NotificationSignatureValue(testNotificationSecret, dataID, requestID, f.clock()),
		RequestID: requestID,
	})
}

func assertCode(t *testing.T, err error, code apperror.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if got := apperror.CodeOf(err); got != code {
		t.Fatalf("expected %s, got %s (%v)", code, got, err)
	}
}
