package usecase

import (
	"context"
	"testing"

	"booking-engine/internal/data/entity"
	"booking-engine/pkg/apperror"

	"github.com/google/uuid"
)

func (f *fixture) holdRoom(bookingID uuid.UUID, room uuid.UUID, bed *uuid.UUID, in, out string) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	id := uuid.New()
	f.store.data.roomRes[id] = entity.RoomReservation{
		BaseSimple: entity.BaseSimple{ID: id},
		BookingID:  bookingID,
		RoomID:     room,
		BedID:      bed,
		CheckIn:    day(in),
		CheckOut:   day(out),
		Guests:     1,
		Active:     true,
	}
}

func TestCheckConflictsRooms(t *testing.T) {
	holder := uuid.New()

	tests := []struct {
		name      string
		held      *uuid.UUID
		room      uuid.UUID
		bed       *uuid.UUID
		in, out   string
		conflicts int
	}{
		{"same bed overlapping", &bedAID, dormID, &bedAID, "2025-07-03", "2025-07-06", 1},
		{"same bed touching checkout", &bedAID, dormID, &bedAID, "2025-07-05", "2025-07-08", 0},
		{"other bed same room", &bedAID, dormID, &bedBID, "2025-07-01", "2025-07-05", 0},
		{"whole room over a bed", &bedAID, dormID, nil, "2025-07-04", "2025-07-06", 1},
		{"bed under a whole room", nil, dormID, &bedBID, "2025-07-02", "2025-07-03", 1},
		{"disjoint", &bedAID, dormID, &bedAID, "2025-08-01", "2025-08-03", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.holdRoom(holder, dormID, tt.held, "2025-07-01", "2025-07-05")

			res, err := f.svc.Conflict.CheckConflicts(context.Background(), Candidate{Items: []entity.LineItem{
				entity.RoomItem{RoomID: tt.room, BedID: tt.bed, Stay: stay(tt.in, tt.out), Guests: 1},
			}})
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			if len(res.Conflicts) != tt.conflicts || res.HasConflict != (tt.conflicts > 0) {
				t.Fatalf("expected %d conflicts, got %+v", tt.conflicts, res.Conflicts)
			}
			if tt.conflicts > 0 {
				c := res.Conflicts[0]
				if c.HoldingBookingID == nil || *c.HoldingBookingID != holder {
					t.Fatalf("conflict must name the holding booking")
				}
				if !c.Start.Equal(day("2025-07-01")) || !c.End.Equal(day("2025-07-05")) {
					t.Fatalf("conflict must carry the held interval, got %v..%v", c.Start, c.End)
				}
			}
		})
	}
}

func TestCheckConflictsExcludesOwnBooking(t *testing.T) {
	f := newFixture(t)
	own := uuid.New()
	f.holdRoom(own, dormID, &bedAID, "2025-07-01", "2025-07-05")

	res, err := f.svc.Conflict.CheckConflicts(context.Background(), Candidate{
		BookingID: &own,
		Items:     []entity.LineItem{entity.RoomItem{RoomID: dormID, BedID: &bedAID, Stay: stay("2025-07-02", "2025-07-06"), Guests: 1}},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.HasConflict {
		t.Fatalf("a booking must not conflict with itself: %+v", res.Conflicts)
	}
}

func TestCheckConflictsWithinCandidate(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Conflict.CheckConflicts(context.Background(), Candidate{Items: []entity.LineItem{
		entity.RoomItem{RoomID: dormID, BedID: &bedAID, Stay: stay("2025-07-01", "2025-07-05"), Guests: 1},
		entity.RoomItem{RoomID: dormID, BedID: &bedBID, Stay: stay("2025-07-01", "2025-07-05"), Guests: 1},
		entity.RoomItem{RoomID: dormID, Stay: stay("2025-07-04", "2025-07-06"), Guests: 2},
	}})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(res.Conflicts) != 2 {
		t.Fatalf("whole room item should clash with both beds, got %+v", res.Conflicts)
	}
	for _, c := range res.Conflicts {
		if c.ItemIndex != 2 || c.HoldingBookingID != nil {
			t.Fatalf("unexpected conflict %+v", c)
		}
	}
}

func TestCheckConflictsCampCapacityWarns(t *testing.T) {
	f := newFixture(t)
	f.store.mu.Lock()
	regID := uuid.New()
	f.store.data.campRegs[regID] = entity.CampRegistration{
		BaseSimple: entity.BaseSimple{ID: regID}, BookingID: uuid.New(), CampSessionID: campSessionID, CampID: campID,
		StartDate: day("2025-07-07"), EndDate: day("2025-07-12"), Guests: 8, Active: true,
	}
	f.store.mu.Unlock()

	res, err := f.svc.Conflict.CheckConflicts(context.Background(), Candidate{Items: []entity.LineItem{
		entity.CampItem{CampSessionID: campSessionID, Guests: 3},
	}})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.HasConflict || len(res.Warnings) != 1 {
		t.Fatalf("over capacity is a warning, got %+v", res)
	}
}

func TestCheckConflictsFailurePolicy(t *testing.T) {
	item := []entity.LineItem{entity.RoomItem{RoomID: dormID, BedID: &bedAID, Stay: stay("2025-07-01", "2025-07-05"), Guests: 1}}

	t.Run("open", func(t *testing.T) {
		f := newFixture(t)
		f.store.failOn("Reservation.FindOverlappingRooms", errStoreDown)

		res, err := f.svc.Conflict.CheckConflicts(context.Background(), Candidate{Items: item})
		if err != nil {
			t.Fatalf("open policy must not fail: %v", err)
		}
		if res.HasConflict || len(res.Warnings) == 0 {
			t.Fatalf("expected no conflict plus a warning, got %+v", res)
		}
	})

	t.Run("closed", func(t *testing.T) {
		cfg := testConfig()
		cfg.Conflict.FailurePolicy = FailurePolicyClosed
		f := newFixtureWith(t, cfg, nil)
		f.store.failOn("Reservation.FindOverlappingRooms", errStoreDown)

		_, err := f.svc.Conflict.CheckConflicts(context.Background(), Candidate{Items: item})
		assertCode(t, err, apperror.CodeServer)
	})

	t.Run("caller faults are not masked", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Conflict.CheckConflicts(context.Background(), Candidate{Items: []entity.LineItem{
			entity.RoomItem{RoomID: campID, Stay: stay("2025-07-01", "2025-07-05"), Guests: 1},
		}})
		assertCode(t, err, apperror.CodeNotFound)
	})
}
