package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-engine/internal/data/entity"
	"booking-engine/internal/data/repository"
	"booking-engine/pkg/apperror"
	"booking-engine/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=conflict_srv.go -destination=mocks/mock_conflict_srv.go -package=mocks

const (
	FailurePolicyOpen   = "open"
	FailurePolicyClosed = "closed"
)

type ResourceType string

const (
	ResourceRoom        ResourceType = "room"
	ResourceBed         ResourceType = "bed"
	ResourceCampSession ResourceType = "camp_session"
)

// Candidate is a prospective set of line items. BookingID, when set, is left
// out of the overlap search so an existing booking can be re-validated.
type Candidate struct {
	BookingID *uuid.UUID
	Items     []entity.LineItem
}

// Conflict describes one interval that is already taken. HoldingBookingID is
// nil when the clash is between two items of the same candidate.
type Conflict struct {
	ItemIndex        int          `json:"item_index"`
	ResourceType     ResourceType `json:"resource_type"`
	ResourceID       uuid.UUID    `json:"resource_id"`
	Start            time.Time    `json:"start"`
	End              time.Time    `json:"end"`
	HoldingBookingID *uuid.UUID   `json:"holding_booking_id,omitempty"`
	Reason           string       `json:"reason"`
}

type ConflictResult struct {
	HasConflict bool       `json:"has_conflict"`
	Conflicts   []Conflict `json:"conflicts"`
	Warnings    []string   `json:"warnings"`
}

type ConflictService interface {
	CheckConflicts(ctx context.Context, cand Candidate) (*ConflictResult, error)
}

type conflictService struct {
	repo   *repository.Repository
	policy string
	log    *zap.Logger
}

func NewConflictService(repo *repository.Repository, cfg utils.ConflictConfig, log *zap.Logger) ConflictService {
	policy := cfg.FailurePolicy
	if policy != FailurePolicyClosed {
		policy = FailurePolicyOpen
	}
	return &conflictService{
		repo:   repo,
		policy: policy,
		log:    log.With(zap.String("service", "conflict")),
	}
}

func (s *conflictService) CheckConflicts(ctx context.Context, cand Candidate) (*ConflictResult, error) {
	res, err := detectConflicts(ctx, s.repo, cand)
	if err == nil {
		return res, nil
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return nil, err
	}

	if s.policy == FailurePolicyClosed {
		s.log.Error("Availability check failed, rejecting", zap.Error(err))
		return nil, apperror.Server(err)
	}

	s.log.Warn("Availability check failed, reporting no conflict", zap.Error(err))
	return &ConflictResult{
		Conflicts: []Conflict{},
		Warnings:  []string{"availability could not be verified, it is checked again at checkout"},
	}, nil
}

// validateItems checks the shape of each item without touching the datastore.
func validateItems(items []entity.LineItem) error {
	if len(items) == 0 {
		return apperror.Validation("at least one item is required", nil)
	}

	errs := make(map[string]string)
	for i, item := range items {
		switch it := item.(type) {
		case entity.RoomItem:
			if !it.Stay.Valid() {
				errs[fmt.Sprintf("items[%d].check_out", i)] = "Must be after check_in"
			}
			if it.Guests < 1 {
				errs[fmt.Sprintf("items[%d].guests", i)] = "Must be at least 1"
			}
		case entity.CampItem:
			if it.Guests < 1 {
				errs[fmt.Sprintf("items[%d].guests", i)] = "Must be at least 1"
			}
		case entity.AddOnItem:
			if it.Quantity < 1 {
				errs[fmt.Sprintf("items[%d].quantity", i)] = "Must be at least 1"
			}
		}
	}
	if len(errs) > 0 {
		return apperror.Validation("invalid items", errs)
	}
	return nil
}

// roomClash reports whether a room item and another holding in the same room
// exclude each other. Two different beds of a room can be held at once; a
// whole-room holding excludes everything else in the room.
func roomClash(item entity.RoomItem, otherBed *uuid.UUID) bool {
	return item.BedID == nil || otherBed == nil || *item.BedID == *otherBed
}

func roomResource(item entity.RoomItem) (ResourceType, uuid.UUID) {
	if item.BedID != nil {
		return ResourceBed, *item.BedID
	}
	return ResourceRoom, item.RoomID
}

// detectConflicts runs the overlap rules against repo. It is shared by the
// advisory check and the re-check inside the checkout transaction, where repo
// is bound to the transaction and the affected rows are locked.
//
// Plain errors are datastore failures; *apperror.Error values are caller faults.
func detectConflicts(ctx context.Context, repo *repository.Repository, cand Candidate) (*ConflictResult, error) {
	if err := validateItems(cand.Items); err != nil {
		return nil, err
	}

	res := &ConflictResult{Conflicts: []Conflict{}, Warnings: []string{}}
	sessions := make(map[uuid.UUID]*entity.CampSession)

	for i, item := range cand.Items {
		switch it := item.(type) {
		case entity.RoomItem:
			room, err := repo.Catalog.FindRoom(ctx, it.RoomID)
			if err != nil {
				return nil, err
			}
			if room == nil || !room.Active {
				return nil, apperror.NotFound("room %s not found", it.RoomID)
			}
			if it.BedID != nil {
				bed, err := repo.Catalog.FindBed(ctx, *it.BedID)
				if err != nil {
					return nil, err
				}
				if bed == nil || bed.RoomID != room.ID {
					return nil, apperror.NotFound("bed %s not found in room %s", *it.BedID, it.RoomID)
				}
			}

			resType, resID := roomResource(it)

			existing, err := repo.Reservation.FindOverlappingRooms(ctx, it.RoomID, it.Stay, cand.BookingID)
			if err != nil {
				return nil, err
			}
			for _, ex := range existing {
				if !roomClash(it, ex.BedID) {
					continue
				}
				holder := ex.BookingID
				res.Conflicts = append(res.Conflicts, Conflict{
					ItemIndex:        i,
					ResourceType:     resType,
					ResourceID:       resID,
					Start:            ex.CheckIn,
					End:              ex.CheckOut,
					HoldingBookingID: &holder,
					Reason:           clashReason(it, ex.BedID),
				})
			}

			for j := 0; j < i; j++ {
				prev, ok := cand.Items[j].(entity.RoomItem)
				if !ok || prev.RoomID != it.RoomID || !entity.Overlaps(prev.Stay, it.Stay) || !roomClash(it, prev.BedID) {
					continue
				}
				res.Conflicts = append(res.Conflicts, Conflict{
					ItemIndex:    i,
					ResourceType: resType,
					ResourceID:   resID,
					Start:        prev.Stay.Start,
					End:          prev.Stay.End,
					Reason:       fmt.Sprintf("overlaps item %d of the same request", j),
				})
			}

		case entity.CampItem:
			session, err := repo.Catalog.FindCampSession(ctx, it.CampSessionID)
			if err != nil {
				return nil, err
			}
			if session == nil {
				return nil, apperror.NotFound("camp session %s not found", it.CampSessionID)
			}
			sessions[session.ID] = session

			reserved, err := repo.Reservation.SumCampGuests(ctx, session.CampID, session.Range(), cand.BookingID)
			if err != nil {
				return nil, err
			}
			requested := it.Guests
			for j := 0; j < i; j++ {
				prev, ok := cand.Items[j].(entity.CampItem)
				if !ok {
					continue
				}
				other := sessions[prev.CampSessionID]
				if other != nil && other.CampID == session.CampID && entity.Overlaps(other.Range(), session.Range()) {
					requested += prev.Guests
				}
			}
			if reserved+requested > session.Capacity {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"camp session %s is over capacity: %d reserved, %d requested, capacity %d",
					session.Name, reserved, requested, session.Capacity,
				))
			}

		case entity.AddOnItem:
			// no time range
		}
	}

	res.HasConflict = len(res.Conflicts) > 0
	return res, nil
}

func clashReason(item entity.RoomItem, heldBed *uuid.UUID) string {
	switch {
	case heldBed == nil:
		return "room is reserved as a whole"
	case item.BedID == nil:
		return "room has a bed reserved"
	default:
		return "bed is already reserved"
	}
}
