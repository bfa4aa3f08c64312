package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"booking-engine/internal/data/entity"
	"booking-engine/internal/data/repository"
	"booking-engine/internal/dto/request"
	"booking-engine/internal/dto/response"
	"booking-engine/internal/gateway"
	"booking-engine/pkg/apperror"
	"booking-engine/pkg/database"
	"booking-engine/pkg/mq"
	"booking-engine/pkg/obs"
	"booking-engine/pkg/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

//go:generate mockgen -source=checkout_srv.go -destination=mocks/mock_checkout_srv.go -package=mocks

const compensationTimeout = 10 * time.Second

var errPromoExhausted = errors.New("promo code exhausted")

type CheckoutService interface {
	CreateCheckout(ctx context.Context, req *request.CheckoutRequest) (*response.CheckoutResponse, error)
}

type checkoutService struct {
	repo      *repository.Repository
	cfg       utils.GatewayConfig
	conflicts ConflictService
	pricing   PricingService
	gw        gateway.Gateway
	pub       mq.EventPublisher
	refs      ReferenceSource
	clock     func() time.Time
	log       *zap.Logger
}

func NewCheckoutService(repo *repository.Repository, cfg utils.GatewayConfig, conflicts ConflictService, pricing PricingService, deps Deps, log *zap.Logger) CheckoutService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	return &checkoutService{
		repo:      repo,
		cfg:       cfg,
		conflicts: conflicts,
		pricing:   pricing,
		gw:        deps.Gateway,
		pub:       deps.Publisher,
		refs:      deps.References,
		clock:     deps.Clock,
		log:       log.With(zap.String("service", "checkout")),
	}
}

func (s *checkoutService) CreateCheckout(ctx context.Context, req *request.CheckoutRequest) (*response.CheckoutResponse, error) {
	ctx, span := obs.StartSpan(ctx, "checkout.create")
	defer span.End()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Checkout validation failed", zap.Any("errors", errs))
		return nil, apperror.Validation("validation failed", errs)
	}
	items, errs := req.ToLineItems()
	if len(errs) > 0 {
		return nil, apperror.Validation("validation failed", errs)
	}

	now := s.clock()

	customer, err := s.repo.Customer.Upsert(ctx, &entity.Customer{
		Base:      entity.Base{ID: utils.GenerateUUID(), CreatedAt: now, UpdatedAt: now},
		Email:     strings.ToLower(strings.TrimSpace(req.Customer.Email)),
		FirstName: req.Customer.FirstName,
		LastName:  req.Customer.LastName,
		Phone:     req.Customer.Phone,
	})
	if err != nil {
		return nil, apperror.Server(err)
	}

	quote, err := s.pricing.Quote(ctx, QuoteRequest{Items: items, PromoCode: req.PromoCode})
	if err != nil {
		return nil, err
	}
	if quote.Expired(s.clock()) {
		s.log.Info("Quote expired before use, re-quoting")
		if quote, err = s.pricing.Quote(ctx, QuoteRequest{Items: items, PromoCode: req.PromoCode}); err != nil {
			return nil, err
		}
	}
	if req.ExpectedTotal != nil && *req.ExpectedTotal != quote.GrandTotal {
		return nil, apperror.Conflict("price changed", map[string]any{
			"expected_total": *req.ExpectedTotal,
			"grand_total":    quote.GrandTotal,
		})
	}

	cand := Candidate{Items: items}
	advisory, err := s.conflicts.CheckConflicts(ctx, cand)
	if err != nil {
		return nil, err
	}
	if advisory.HasConflict {
		return nil, apperror.Conflict("requested dates are no longer available", advisory.Conflicts)
	}

	booking := &entity.Booking{
		Base:          entity.Base{ID: utils.GenerateUUID(), CreatedAt: now, UpdatedAt: now},
		Reference:     s.refs.Next(),
		CustomerID:    customer.ID,
		Status:        entity.BookingStatusDraft,
		Subtotal:      quote.Subtotal,
		DiscountTotal: quote.DiscountTotal,
		TaxTotal:      quote.TaxTotal,
		TotalAmount:   quote.GrandTotal,
		Currency:      quote.Currency,
	}
	if quote.Stay != nil {
		booking.CheckIn = &quote.Stay.Start
		booking.CheckOut = &quote.Stay.End
	}
	expiresAt := now.Add(s.cfg.SessionTTL)
	booking.SessionExpiresAt = &expiresAt

	span.SetAttributes(attribute.String("booking.reference", booking.Reference))

	if err := s.createDraft(ctx, booking, items, quote, now); err != nil {
		return nil, err
	}

	// remote call happens outside any transaction
	gwCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	session, err := s.gw.CreateSession(gwCtx, gateway.SessionRequest{
		BookingID:     booking.ID,
		Reference:     booking.Reference,
		CustomerID:    customer.ID,
		CustomerEmail: customer.Email,
		Description:   fmt.Sprintf("Booking %s", booking.Reference),
		AmountTotal:   booking.TotalAmount,
		Currency:      booking.Currency,
		ExpiresAt:     expiresAt,
	})
	cancel()
	if err != nil {
		s.log.Error("Gateway session creation failed", zap.Error(err), zap.String("reference", booking.Reference))
		s.compensate(ctx, booking, quote.PromoCode)
		return nil, apperror.Gateway(err)
	}
	if !session.ExpiresAt.IsZero() {
		expiresAt = session.ExpiresAt
	}

	payment := &entity.Payment{
		Base:             entity.Base{ID: utils.GenerateUUID(), CreatedAt: now, UpdatedAt: now},
		BookingID:        booking.ID,
		Amount:           booking.TotalAmount,
		Currency:         booking.Currency,
		Status:           entity.PaymentStatusPending,
		GatewaySessionID: &session.ID,
	}
	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Payment.Create(ctx, payment); err != nil {
			return err
		}
		if err := tx.Booking.SetSession(ctx, booking.ID, session.ID, expiresAt); err != nil {
			return err
		}
		return tx.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusPendingPayment)
	})
	if err != nil {
		s.log.Error("Failed to record checkout session", zap.Error(err), zap.String("reference", booking.Reference))
		s.compensate(ctx, booking, quote.PromoCode)
		return nil, apperror.Gateway(err)
	}

	s.log.Info("Checkout created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.Int64("amount", booking.TotalAmount),
	)

	publishAll(ctx, s.pub, s.log, []outboundEvent{{
		key: KeyCheckoutCreated,
		payload: CheckoutCreatedEvent{
			BookingID:  booking.ID,
			Reference:  booking.Reference,
			SessionID:  session.ID,
			Amount:     booking.TotalAmount,
			Currency:   booking.Currency,
			OccurredAt: now,
		},
	}})

	resp := &response.CheckoutResponse{
		CheckoutURL:        session.URL,
		SessionID:          session.ID,
		BookingID:          booking.ID.String(),
		BookingReference:   booking.Reference,
		ExpiresAt:          expiresAt,
		AmountTotal:        booking.TotalAmount,
		AmountTotalDisplay: utils.FormatMinor(booking.TotalAmount),
		Currency:           booking.Currency,
	}
	resp.Warnings = append(resp.Warnings, quote.Warnings...)
	resp.Warnings = append(resp.Warnings, advisory.Warnings...)
	return resp, nil
}

// createDraft writes the booking and every child row in one transaction,
// with the affected inventory rows locked and availability checked again.
func (s *checkoutService) createDraft(ctx context.Context, booking *entity.Booking, items []entity.LineItem, quote *Quote, now time.Time) error {
	roomIDs, sessionIDs := lockTargets(items)
	amounts := lineAmounts(quote)

	err := s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Catalog.LockRooms(ctx, roomIDs); err != nil {
			return err
		}
		if err := tx.Catalog.LockCampSessions(ctx, sessionIDs); err != nil {
			return err
		}

		res, err := detectConflicts(ctx, tx, Candidate{Items: items})
		if err != nil {
			return err
		}
		if res.HasConflict {
			return apperror.Conflict("requested dates are no longer available", res.Conflicts)
		}

		if err := tx.Booking.Create(ctx, booking); err != nil {
			return err
		}

		var addOns []*entity.AddOnLine
		for i, item := range items {
			switch it := item.(type) {
			case entity.RoomItem:
				err = tx.Reservation.CreateRoomReservation(ctx, &entity.RoomReservation{
					BaseSimple: entity.BaseSimple{ID: utils.GenerateUUID(), CreatedAt: now},
					BookingID:  booking.ID,
					RoomID:     it.RoomID,
					BedID:      it.BedID,
					CheckIn:    it.Stay.Start,
					CheckOut:   it.Stay.End,
					Guests:     it.Guests,
					LineTotal:  amounts[i].Amount,
					Active:     true,
				})
			case entity.CampItem:
				session, findErr := tx.Catalog.FindCampSession(ctx, it.CampSessionID)
				if findErr != nil {
					return findErr
				}
				if session == nil {
					return apperror.NotFound("camp session %s not found", it.CampSessionID)
				}
				err = tx.Reservation.CreateCampRegistration(ctx, &entity.CampRegistration{
					BaseSimple:    entity.BaseSimple{ID: utils.GenerateUUID(), CreatedAt: now},
					BookingID:     booking.ID,
					CampSessionID: session.ID,
					CampID:        session.CampID,
					StartDate:     session.StartDate,
					EndDate:       session.EndDate,
					Guests:        it.Guests,
					LineTotal:     amounts[i].Amount,
					Active:        true,
				})
			case entity.AddOnItem:
				addOns = append(addOns, &entity.AddOnLine{
					BaseSimple: entity.BaseSimple{ID: utils.GenerateUUID(), CreatedAt: now},
					BookingID:  booking.ID,
					AddOnID:    it.AddOnID,
					Quantity:   it.Quantity,
					UnitPrice:  amounts[i].UnitAmount,
					LineTotal:  amounts[i].Amount,
				})
			}
			if err != nil {
				return err
			}
		}

		if len(addOns) > 0 {
			if err := tx.AddOnLine.CreateBatch(ctx, addOns); err != nil {
				return err
			}
		}

		if quote.PromoCode != "" {
			ok, err := tx.Promo.IncrementUsage(ctx, quote.PromoCode)
			if err != nil {
				return err
			}
			if !ok {
				return errPromoExhausted
			}
			if err := tx.Promo.Apply(ctx, &entity.PromoApplication{
				BaseSimple:     entity.BaseSimple{ID: utils.GenerateUUID(), CreatedAt: now},
				BookingID:      booking.ID,
				PromoCode:      quote.PromoCode,
				Kind:           quote.PromoKind,
				Value:          quote.PromoValue,
				DiscountAmount: quote.DiscountTotal,
			}); err != nil {
				return err
			}
		}

		return nil
	})

	var appErr *apperror.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, errPromoExhausted):
		return apperror.Conflict("price changed", map[string]string{"promo_code": "promo code is no longer available"})
	case database.IsExclusionViolation(err):
		s.log.Info("Exclusion constraint rejected draft booking", zap.String("reference", booking.Reference))
		return apperror.Conflict("requested dates are no longer available", nil)
	default:
		s.log.Error("Failed to create draft booking", zap.Error(err), zap.String("reference", booking.Reference))
		return apperror.Server(err)
	}
}

// compensate removes a draft whose checkout could not be completed and gives
// back the promo use. It survives cancellation of the caller's context.
func (s *checkoutService) compensate(ctx context.Context, booking *entity.Booking, promoCode string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	err := s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Booking.Delete(ctx, booking.ID); err != nil {
			return err
		}
		if promoCode != "" {
			return tx.Promo.DecrementUsage(ctx, promoCode)
		}
		return nil
	})
	if err != nil {
		// the reaper cancels the draft once its session deadline passes
		s.log.Error("Compensation failed", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		return
	}
	s.log.Info("Draft booking rolled back", zap.String("reference", booking.Reference))
}

// lockTargets returns the room and camp session ids in a stable order so
// concurrent checkouts take row locks in the same sequence.
func lockTargets(items []entity.LineItem) ([]uuid.UUID, []uuid.UUID) {
	rooms := make(map[uuid.UUID]struct{})
	sessions := make(map[uuid.UUID]struct{})
	for _, item := range items {
		switch it := item.(type) {
		case entity.RoomItem:
			rooms[it.RoomID] = struct{}{}
		case entity.CampItem:
			sessions[it.CampSessionID] = struct{}{}
		}
	}
	return sortedIDs(rooms), sortedIDs(sessions)
}

func sortedIDs(set map[uuid.UUID]struct{}) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func lineAmounts(q *Quote) map[int]QuoteLine {
	out := make(map[int]QuoteLine, len(q.Lines))
	for _, line := range q.Lines {
		out[line.ItemIndex] = line
	}
	return out
}
