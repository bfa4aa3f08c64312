package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"booking-engine/internal/data/entity"
	"booking-engine/internal/data/repository"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the Postgres repositories.
// Transactions are serialized and roll back by restoring a snapshot.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data memData
	fail map[string]error

	// beforeLock runs once inside the next Booking.LockByID, standing in for
	// a transaction that commits while the lock is awaited.
	beforeLock func(data *memData)
}

type memData struct {
	customers  map[uuid.UUID]entity.Customer
	rooms      map[uuid.UUID]entity.Room
	beds       map[uuid.UUID]entity.Bed
	sessions   map[uuid.UUID]entity.CampSession
	addOns     map[uuid.UUID]entity.AddOn
	promos     map[string]entity.PromoCode
	promoApps  map[uuid.UUID]entity.PromoApplication
	bookings   map[uuid.UUID]entity.Booking
	roomRes    map[uuid.UUID]entity.RoomReservation
	campRegs   map[uuid.UUID]entity.CampRegistration
	addOnLines map[uuid.UUID]entity.AddOnLine
	payments   map[uuid.UUID]entity.Payment
	events     map[string]entity.WebhookEvent
	audit      []entity.AuditLog
}

func (d memData) clone() memData {
	return memData{
		customers:  maps.Clone(d.customers),
		rooms:      maps.Clone(d.rooms),
		beds:       maps.Clone(d.beds),
		sessions:   maps.Clone(d.sessions),
		addOns:     maps.Clone(d.addOns),
		promos:     maps.Clone(d.promos),
		promoApps:  maps.Clone(d.promoApps),
		bookings:   maps.Clone(d.bookings),
		roomRes:    maps.Clone(d.roomRes),
		campRegs:   maps.Clone(d.campRegs),
		addOnLines: maps.Clone(d.addOnLines),
		payments:   maps.Clone(d.payments),
		events:     maps.Clone(d.events),
		audit:      slices.Clone(d.audit),
	}
}

func newMemStore() *memStore {
	return &memStore{
		data: memData{
			customers:  map[uuid.UUID]entity.Customer{},
			rooms:      map[uuid.UUID]entity.Room{},
			beds:       map[uuid.UUID]entity.Bed{},
			sessions:   map[uuid.UUID]entity.CampSession{},
			addOns:     map[uuid.UUID]entity.AddOn{},
			promos:     map[string]entity.PromoCode{},
			promoApps:  map[uuid.UUID]entity.PromoApplication{},
			bookings:   map[uuid.UUID]entity.Booking{},
			roomRes:    map[uuid.UUID]entity.RoomReservation{},
			campRegs:   map[uuid.UUID]entity.CampRegistration{},
			addOnLines: map[uuid.UUID]entity.AddOnLine{},
			payments:   map[uuid.UUID]entity.Payment{},
			events:     map[string]entity.WebhookEvent{},
		},
		fail: map[string]error{},
	}
}

// failOn makes the named operation (e.g. "Payment.Create") return err.
func (s *memStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

func (s *memStore) check(op string) error {
	return s.fail[op]
}

func (s *memStore) repository() *repository.Repository {
	repo := s.bind()
	repo.Tx = &memTransactor{store: s}
	return repo
}

func (s *memStore) bind() *repository.Repository {
	return &repository.Repository{
		Customer:     memCustomers{s},
		Catalog:      memCatalog{s},
		Promo:        memPromos{s},
		Booking:      memBookings{s},
		Reservation:  memReservations{s},
		AddOnLine:    memAddOnLines{s},
		Payment:      memPayments{s},
		WebhookEvent: memEvents{s},
		AuditLog:     memAudit{s},
	}
}

type memTransactor struct {
	store *memStore
}

func (t *memTransactor) WithinTx(ctx context.Context, fn func(tx *repository.Repository) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	t.store.mu.Lock()
	snapshot := t.store.data.clone()
	t.store.mu.Unlock()

	tx := t.store.bind()
	tx.Tx = memNested{repo: tx}

	if err := fn(tx); err != nil {
		t.store.mu.Lock()
		t.store.data = snapshot
		t.store.mu.Unlock()
		return err
	}
	return nil
}

type memNested struct {
	repo *repository.Repository
}

func (n memNested) WithinTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	return fn(n.repo)
}

// seeding helpers

func (s *memStore) addRoom(r entity.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.rooms[r.ID] = r
}

func (s *memStore) addBed(b entity.Bed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.beds[b.ID] = b
}

func (s *memStore) addSession(c entity.CampSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.sessions[c.ID] = c
}

func (s *memStore) addAddOn(a entity.AddOn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.addOns[a.ID] = a
}

func (s *memStore) addPromo(p entity.PromoCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.promos[strings.ToUpper(p.Code)] = p
}

func (s *memStore) snapshot() memData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone()
}

// customers

type memCustomers struct{ s *memStore }

func (m memCustomers) Upsert(_ context.Context, c *entity.Customer) (*entity.Customer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("Customer.Upsert"); err != nil {
		return nil, err
	}
	email := strings.ToLower(c.Email)
	for id, existing := range m.s.data.customers {
		if existing.Email == email {
			if c.FirstName != "" {
				existing.FirstName = c.FirstName
			}
			if c.LastName != "" {
				existing.LastName = c.LastName
			}
			if c.Phone != nil {
				existing.Phone = c.Phone
			}
			existing.UpdatedAt = c.CreatedAt
			m.s.data.customers[id] = existing
			return &existing, nil
		}
	}
	stored := *c
	stored.Email = email
	stored.UpdatedAt = c.CreatedAt
	m.s.data.customers[stored.ID] = stored
	return &stored, nil
}

func (m memCustomers) FindByID(_ context.Context, id uuid.UUID) (*entity.Customer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.data.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// catalog

type memCatalog struct{ s *memStore }

func (m memCatalog) FindRoom(_ context.Context, id uuid.UUID) (*entity.Room, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("Catalog.FindRoom"); err != nil {
		return nil, err
	}
	r, ok := m.s.data.rooms[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m memCatalog) FindBed(_ context.Context, id uuid.UUID) (*entity.Bed, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.data.beds[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m memCatalog) FindCampSession(_ context.Context, id uuid.UUID) (*entity.CampSession, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.data.sessions[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m memCatalog) FindAddOn(_ context.Context, id uuid.UUID) (*entity.AddOn, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.data.addOns[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// Row locks are implied by the serialized transactor.
func (m memCatalog) LockRooms(context.Context, []uuid.UUID) error        { return nil }
func (m memCatalog) LockCampSessions(context.Context, []uuid.UUID) error { return nil }

// promos

type memPromos struct{ s *memStore }

func (m memPromos) FindByCode(_ context.Context, code string) (*entity.PromoCode, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.data.promos[strings.ToUpper(code)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m memPromos) IncrementUsage(_ context.Context, code string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.data.promos[strings.ToUpper(code)]
	if !ok || !p.Active || (p.MaxUses != nil && p.UsedCount >= *p.MaxUses) {
		return false, nil
	}
	p.UsedCount++
	m.s.data.promos[strings.ToUpper(p.Code)] = p
	return true, nil
}

func (m memPromos) DecrementUsage(_ context.Context, code string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.data.promos[strings.ToUpper(code)]
	if ok && p.UsedCount > 0 {
		p.UsedCount--
		m.s.data.promos[strings.ToUpper(p.Code)] = p
	}
	return nil
}

func (m memPromos) Apply(_ context.Context, app *entity.PromoApplication) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.data.promoApps[app.BookingID] = *app
	return nil
}

func (m memPromos) FindApplicationByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.PromoApplication, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.data.promoApps[bookingID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// bookings

type memBookings struct{ s *memStore }

func (m memBookings) Create(_ context.Context, b *entity.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("Booking.Create"); err != nil {
		return err
	}
	m.s.data.bookings[b.ID] = *b
	return nil
}

func (m memBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.data.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m memBookings) LockByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	m.s.mu.Lock()
	if hook := m.s.beforeLock; hook != nil {
		m.s.beforeLock = nil
		hook(&m.s.data)
	}
	m.s.mu.Unlock()
	return m.FindByID(ctx, id)
}

func (m memBookings) UpdateStatus(_ context.Context, id uuid.UUID, status entity.BookingStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("Booking.UpdateStatus"); err != nil {
		return err
	}
	b, ok := m.s.data.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s not found", id)
	}
	b.Status = status
	m.s.data.bookings[id] = b
	return nil
}

func (m memBookings) SetSession(_ context.Context, id uuid.UUID, sessionID string, expiresAt time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.data.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s not found", id)
	}
	b.GatewaySessionID = &sessionID
	b.SessionExpiresAt = &expiresAt
	m.s.data.bookings[id] = b
	return nil
}

func (m memBookings) Delete(_ context.Context, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d := &m.s.data
	delete(d.bookings, id)
	delete(d.promoApps, id)
	maps.DeleteFunc(d.roomRes, func(_ uuid.UUID, r entity.RoomReservation) bool { return r.BookingID == id })
	maps.DeleteFunc(d.campRegs, func(_ uuid.UUID, r entity.CampRegistration) bool { return r.BookingID == id })
	maps.DeleteFunc(d.addOnLines, func(_ uuid.UUID, l entity.AddOnLine) bool { return l.BookingID == id })
	maps.DeleteFunc(d.payments, func(_ uuid.UUID, p entity.Payment) bool { return p.BookingID == id })
	return nil
}

func (m memBookings) FindExpiredPending(_ context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.Booking
	for _, b := range m.s.data.bookings {
		if (b.Status == entity.BookingStatusDraft || b.Status == entity.BookingStatusPendingPayment) &&
			b.SessionExpiresAt != nil && b.SessionExpiresAt.Before(now) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionExpiresAt.Before(*out[j].SessionExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memBookings) filtered(status *entity.BookingStatus) []*entity.Booking {
	var out []*entity.Booking
	for _, b := range m.s.data.bookings {
		if status == nil || b.Status == *status {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m memBookings) List(_ context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := m.filtered(status)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m memBookings) Count(_ context.Context, status *entity.BookingStatus) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return int64(len(m.filtered(status))), nil
}

// reservations

type memReservations struct{ s *memStore }

func (m memReservations) CreateRoomReservation(_ context.Context, r *entity.RoomReservation) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("Reservation.CreateRoomReservation"); err != nil {
		return err
	}
	m.s.data.roomRes[r.ID] = *r
	return nil
}

func (m memReservations) CreateCampRegistration(_ context.Context, r *entity.CampRegistration) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.data.campRegs[r.ID] = *r
	return nil
}

func (m memReservations) FindOverlappingRooms(_ context.Context, roomID uuid.UUID, rng entity.DateRange, exclude *uuid.UUID) ([]*entity.RoomReservation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("Reservation.FindOverlappingRooms"); err != nil {
		return nil, err
	}
	var out []*entity.RoomReservation
	for _, r := range m.s.data.roomRes {
		if !r.Active || r.RoomID != roomID || !entity.Overlaps(r.Range(), rng) {
			continue
		}
		if exclude != nil && r.BookingID == *exclude {
			continue
		}
		r := r
		out = append(out, &r)
	}
	return out, nil
}

func (m memReservations) SumCampGuests(_ context.Context, campID uuid.UUID, rng entity.DateRange, exclude *uuid.UUID) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	total := 0
	for _, r := range m.s.data.campRegs {
		if !r.Active || r.CampID != campID || !entity.Overlaps(r.Range(), rng) {
			continue
		}
		if exclude != nil && r.BookingID == *exclude {
			continue
		}
		total += r.Guests
	}
	return total, nil
}

func (m memReservations) FindRoomsByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.RoomReservation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.RoomReservation
	for _, r := range m.s.data.roomRes {
		if r.BookingID == bookingID {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m memReservations) FindCampsByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.CampRegistration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.CampRegistration
	for _, r := range m.s.data.campRegs {
		if r.BookingID == bookingID {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m memReservations) SetActiveByBooking(_ context.Context, bookingID uuid.UUID, active bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, r := range m.s.data.roomRes {
		if r.BookingID == bookingID {
			r.Active = active
			m.s.data.roomRes[id] = r
		}
	}
	for id, r := range m.s.data.campRegs {
		if r.BookingID == bookingID {
			r.Active = active
			m.s.data.campRegs[id] = r
		}
	}
	return nil
}

// add-on lines

type memAddOnLines struct{ s *memStore }

func (m memAddOnLines) CreateBatch(_ context.Context, lines []*entity.AddOnLine) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("AddOnLine.CreateBatch"); err != nil {
		return err
	}
	for _, l := range lines {
		m.s.data.addOnLines[l.ID] = *l
	}
	return nil
}

func (m memAddOnLines) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.AddOnLine, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.AddOnLine
	for _, l := range m.s.data.addOnLines {
		if l.BookingID == bookingID {
			l := l
			out = append(out, &l)
		}
	}
	return out, nil
}

// payments

type memPayments struct{ s *memStore }

func (m memPayments) Create(_ context.Context, p *entity.Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("Payment.Create"); err != nil {
		return err
	}
	m.s.data.payments[p.ID] = *p
	return nil
}

func (m memPayments) FindByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.data.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m memPayments) find(match func(entity.Payment) bool) *entity.Payment {
	var found *entity.Payment
	for _, p := range m.s.data.payments {
		if !match(p) {
			continue
		}
		if found == nil || p.CreatedAt.After(found.CreatedAt) {
			p := p
			found = &p
		}
	}
	return found
}

func (m memPayments) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.find(func(p entity.Payment) bool { return p.BookingID == bookingID }), nil
}

func (m memPayments) FindBySessionID(_ context.Context, sessionID string) (*entity.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.find(func(p entity.Payment) bool {
		return p.GatewaySessionID != nil && *p.GatewaySessionID == sessionID
	}), nil
}

func (m memPayments) FindByTxnID(_ context.Context, txnID string) (*entity.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.find(func(p entity.Payment) bool {
		return p.GatewayTxnID != nil && *p.GatewayTxnID == txnID
	}), nil
}

func (m memPayments) LockByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return m.FindByID(ctx, id)
}

func (m memPayments) ApplyCorrection(_ context.Context, c repository.PaymentCorrection) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("Payment.ApplyCorrection"); err != nil {
		return false, err
	}
	p, ok := m.s.data.payments[c.PaymentID]
	if !ok || p.Amount != c.Seen.Amount || p.Status != c.Seen.Status ||
		p.RefundedAmount != c.Seen.RefundedAmount || !p.UpdatedAt.Equal(c.SeenAt) {
		return false, nil
	}
	p.Amount = c.Corrected.Amount
	p.Status = c.Corrected.Status
	p.RefundedAmount = c.Corrected.RefundedAmount
	p.UpdatedAt = c.At
	m.s.data.payments[c.PaymentID] = p
	return true, nil
}

func (m memPayments) Update(_ context.Context, p *entity.Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("Payment.Update"); err != nil {
		return err
	}
	if _, ok := m.s.data.payments[p.ID]; !ok {
		return fmt.Errorf("payment %s not found", p.ID)
	}
	m.s.data.payments[p.ID] = *p
	return nil
}

func (m memPayments) ListForReconciliation(_ context.Context, from, to time.Time, limit int) ([]*entity.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("Payment.ListForReconciliation"); err != nil {
		return nil, err
	}
	var out []*entity.Payment
	for _, p := range m.s.data.payments {
		if p.GatewayTxnID == nil || p.CreatedAt.Before(from) || !p.CreatedAt.Before(to) {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memPayments) KnownTxnIDs(_ context.Context, txnIDs []string) (map[string]bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	known := make(map[string]bool)
	for _, p := range m.s.data.payments {
		if p.GatewayTxnID != nil && slices.Contains(txnIDs, *p.GatewayTxnID) {
			known[*p.GatewayTxnID] = true
		}
	}
	return known, nil
}

// webhook ledger

type memEvents struct{ s *memStore }

func (m memEvents) Claim(_ context.Context, event *entity.WebhookEvent, now time.Time, lease time.Duration) (repository.ClaimOutcome, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.check("WebhookEvent.Claim"); err != nil {
		return 0, err
	}
	until := now.Add(lease)
	existing, ok := m.s.data.events[event.EventID]
	if !ok {
		stored := entity.WebhookEvent{
			EventID:      event.EventID,
			EventType:    event.EventType,
			Payload:      event.Payload,
			Attempts:     1,
			ClaimedUntil: &until,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		m.s.data.events[event.EventID] = stored
		event.Attempts = 1
		return repository.ClaimWon, nil
	}
	if existing.Processed {
		return repository.ClaimProcessed, nil
	}
	if existing.ClaimedUntil != nil && !existing.ClaimedUntil.Before(now) {
		return repository.ClaimInFlight, nil
	}
	existing.Attempts++
	existing.ClaimedUntil = &until
	existing.UpdatedAt = now
	m.s.data.events[event.EventID] = existing
	event.Attempts = existing.Attempts
	return repository.ClaimWon, nil
}

func (m memEvents) MarkProcessed(_ context.Context, eventID string, lastError *string, now time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.data.events[eventID]
	if !ok || e.Processed {
		return false, nil
	}
	e.Processed = true
	e.ProcessedAt = &now
	e.LastError = lastError
	e.ClaimedUntil = nil
	m.s.data.events[eventID] = e
	return true, nil
}

func (m memEvents) Release(_ context.Context, eventID string, lastError *string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.data.events[eventID]
	if !ok || e.Processed {
		return nil
	}
	e.ClaimedUntil = nil
	e.LastError = lastError
	m.s.data.events[eventID] = e
	return nil
}

func (m memEvents) FindByID(_ context.Context, eventID string) (*entity.WebhookEvent, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.data.events[eventID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m memEvents) FindUnprocessed(_ context.Context, now time.Time, limit int) ([]*entity.WebhookEvent, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.WebhookEvent
	for _, e := range m.s.data.events {
		if e.Processed || (e.ClaimedUntil != nil && !e.ClaimedUntil.Before(now)) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// audit

type memAudit struct{ s *memStore }

func (m memAudit) Append(_ context.Context, entry *entity.AuditLog) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.data.audit = append(m.s.data.audit, *entry)
	return nil
}

var errStoreDown = errors.New("connection refused")
