package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"booking-engine/internal/data/entity"
	"booking-engine/internal/data/repository"
	"booking-engine/pkg/apperror"
	"booking-engine/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=pricing_srv.go -destination=mocks/mock_pricing_srv.go -package=mocks

type QuoteRequest struct {
	Items     []entity.LineItem
	PromoCode string
}

type QuoteLine struct {
	ItemIndex   int       `json:"item_index"`
	Kind        string    `json:"kind"`
	ResourceID  uuid.UUID `json:"resource_id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	Nights      int       `json:"nights"`
	UnitAmount  int64     `json:"unit_amount"`
	Amount      int64     `json:"amount"`
}

type TaxLine struct {
	Name    string `json:"name"`
	RateBps int64  `json:"rate_bps"`
	Amount  int64  `json:"amount"`
}

// Quote is a priced set of line items. All amounts are minor units and
// GrandTotal == Subtotal - DiscountTotal + TaxTotal.
type Quote struct {
	Lines         []QuoteLine       `json:"lines"`
	Subtotal      int64             `json:"subtotal"`
	PromoCode     string            `json:"promo_code,omitempty"`
	PromoKind     entity.PromoKind  `json:"promo_kind,omitempty"`
	PromoValue    int64             `json:"promo_value,omitempty"`
	DiscountTotal int64             `json:"discount_total"`
	Taxes         []TaxLine         `json:"taxes"`
	TaxTotal      int64             `json:"tax_total"`
	GrandTotal    int64             `json:"grand_total"`
	Currency      string            `json:"currency"`
	ValidUntil    time.Time         `json:"valid_until"`
	Warnings      []string          `json:"warnings"`
	Stay          *entity.DateRange `json:"-"`
}

func (q *Quote) Expired(now time.Time) bool {
	return !now.Before(q.ValidUntil)
}

type PricingService interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
}

type pricingService struct {
	repo     *repository.Repository
	cfg      utils.PricingConfig
	rounding utils.RoundingMode
	clock    func() time.Time
	log      *zap.Logger
}

func NewPricingService(repo *repository.Repository, cfg utils.PricingConfig, clock func() time.Time, log *zap.Logger) PricingService {
	log = log.With(zap.String("service", "pricing"))

	mode, err := utils.ParseRoundingMode(cfg.RoundingMode)
	if err != nil {
		log.Warn("Unknown tax rounding mode, using half_up", zap.String("mode", cfg.RoundingMode))
		mode = utils.RoundHalfUp
	}
	if cfg.RoundingIncrement < 1 {
		cfg.RoundingIncrement = 1
	}
	if cfg.QuoteTTL <= 0 {
		cfg.QuoteTTL = 30 * time.Minute
	}

	return &pricingService{
		repo:     repo,
		cfg:      cfg,
		rounding: mode,
		clock:    clock,
		log:      log,
	}
}

func (s *pricingService) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	now := s.clock()
	q := &Quote{
		Lines:    make([]QuoteLine, 0, len(req.Items)),
		Taxes:    make([]TaxLine, 0, len(s.cfg.TaxRates)),
		Currency: s.cfg.Currency,
		Warnings: []string{},
	}

	// room and camp lines first; per-night add-ons need the stay span
	var addOns []int
	for i, item := range req.Items {
		switch it := item.(type) {
		case entity.RoomItem:
			line, err := s.priceRoom(ctx, i, it)
			if err != nil {
				return nil, err
			}
			q.Lines = append(q.Lines, *line)
			q.extendStay(it.Stay)

		case entity.CampItem:
			session, err := s.repo.Catalog.FindCampSession(ctx, it.CampSessionID)
			if err != nil {
				s.log.Error("Failed to load camp session", zap.Error(err))
				return nil, apperror.Server(err)
			}
			if session == nil {
				return nil, apperror.NotFound("camp session %s not found", it.CampSessionID)
			}
			q.Lines = append(q.Lines, QuoteLine{
				ItemIndex:   i,
				Kind:        "camp",
				ResourceID:  session.ID,
				Description: session.Name,
				Quantity:    it.Guests,
				Nights:      session.Range().Nights(),
				UnitAmount:  session.PricePerGuest,
				Amount:      session.PricePerGuest * int64(it.Guests),
			})
			q.extendStay(session.Range())

		case entity.AddOnItem:
			addOns = append(addOns, i)
		}
	}

	for _, i := range addOns {
		it := req.Items[i].(entity.AddOnItem)
		addOn, err := s.repo.Catalog.FindAddOn(ctx, it.AddOnID)
		if err != nil {
			s.log.Error("Failed to load add-on", zap.Error(err))
			return nil, apperror.Server(err)
		}
		if addOn == nil || !addOn.Active {
			return nil, apperror.NotFound("add-on %s not found", it.AddOnID)
		}

		nights := 1
		if addOn.PerNight && q.Stay != nil {
			nights = q.Stay.Nights()
		}
		q.Lines = append(q.Lines, QuoteLine{
			ItemIndex:   i,
			Kind:        "add_on",
			ResourceID:  addOn.ID,
			Description: addOn.Name,
			Quantity:    it.Quantity,
			Nights:      nights,
			UnitAmount:  addOn.UnitPrice,
			Amount:      addOn.UnitPrice * int64(it.Quantity) * int64(nights),
		})
	}

	for _, line := range q.Lines {
		q.Subtotal += line.Amount
	}

	if code := strings.TrimSpace(req.PromoCode); code != "" {
		if err := s.applyPromo(ctx, q, code, now); err != nil {
			return nil, err
		}
	}

	taxable := q.Subtotal - q.DiscountTotal
	for _, rate := range s.cfg.TaxRates {
		amount := utils.ApplyBps(taxable, rate.RateBps, s.cfg.RoundingIncrement, s.rounding)
		q.Taxes = append(q.Taxes, TaxLine{Name: rate.Name, RateBps: rate.RateBps, Amount: amount})
		q.TaxTotal += amount
	}

	q.GrandTotal = q.Subtotal - q.DiscountTotal + q.TaxTotal
	q.ValidUntil = now.Add(s.cfg.QuoteTTL)

	return q, nil
}

func (s *pricingService) priceRoom(ctx context.Context, index int, it entity.RoomItem) (*QuoteLine, error) {
	room, err := s.repo.Catalog.FindRoom(ctx, it.RoomID)
	if err != nil {
		s.log.Error("Failed to load room", zap.Error(err))
		return nil, apperror.Server(err)
	}
	if room == nil || !room.Active {
		return nil, apperror.NotFound("room %s not found", it.RoomID)
	}

	rate := room.NightlyRate
	description := room.Name
	resourceID := room.ID
	if it.BedID != nil {
		bed, err := s.repo.Catalog.FindBed(ctx, *it.BedID)
		if err != nil {
			s.log.Error("Failed to load bed", zap.Error(err))
			return nil, apperror.Server(err)
		}
		if bed == nil || bed.RoomID != room.ID {
			return nil, apperror.NotFound("bed %s not found in room %s", *it.BedID, it.RoomID)
		}
		rate = bed.NightlyRate
		description = fmt.Sprintf("%s, bed %s", room.Name, bed.Label)
		resourceID = bed.ID
	} else if room.MaxOccupancy > 0 && it.Guests > room.MaxOccupancy {
		return nil, apperror.Validation("too many guests", map[string]string{
			fmt.Sprintf("items[%d].guests", index): fmt.Sprintf("Maximum is %d", room.MaxOccupancy),
		})
	}

	unit := applyModifier(rate, room.RateModifierBps)
	nights := it.Stay.Nights()
	amount := unit * int64(nights)

	if it.BedID == nil && it.Guests > room.BaseOccupancy {
		extra := int64(it.Guests - room.BaseOccupancy)
		amount += extra * room.ExtraGuestFee * int64(nights)
	}

	return &QuoteLine{
		ItemIndex:   index,
		Kind:        "room",
		ResourceID:  resourceID,
		Description: description,
		Quantity:    1,
		Nights:      nights,
		UnitAmount:  unit,
		Amount:      amount,
	}, nil
}

// applyModifier adjusts a nightly rate by bps (negative for discounts),
// rounding half up to the minor unit.
func applyModifier(rate, bps int64) int64 {
	switch {
	case bps > 0:
		return rate + utils.ApplyBps(rate, bps, 1, utils.RoundHalfUp)
	case bps < 0:
		adjusted := rate - utils.ApplyBps(rate, -bps, 1, utils.RoundHalfUp)
		if adjusted < 0 {
			return 0
		}
		return adjusted
	}
	return rate
}

// applyPromo never fails the quote for an unusable code; it adds a warning instead.
func (s *pricingService) applyPromo(ctx context.Context, q *Quote, code string, now time.Time) error {
	promo, err := s.repo.Promo.FindByCode(ctx, code)
	if err != nil {
		s.log.Error("Failed to load promo code", zap.Error(err), zap.String("code", code))
		return apperror.Server(err)
	}
	if promo == nil {
		q.Warnings = append(q.Warnings, fmt.Sprintf("promo code %s not found", strings.ToUpper(code)))
		return nil
	}
	if reason := promo.Unusable(now); reason != "" {
		q.Warnings = append(q.Warnings, fmt.Sprintf("%s: %s", promo.Code, reason))
		return nil
	}

	var discount int64
	switch promo.Kind {
	case entity.PromoKindPercent:
		discount = utils.ApplyBps(q.Subtotal, promo.Value, 1, utils.RoundHalfUp)
	case entity.PromoKindFixed:
		discount = promo.Value
	}
	if discount > q.Subtotal {
		discount = q.Subtotal
	}
	if discount < 0 {
		discount = 0
	}

	q.PromoCode = promo.Code
	q.PromoKind = promo.Kind
	q.PromoValue = promo.Value
	q.DiscountTotal = discount
	return nil
}

func (q *Quote) extendStay(rng entity.DateRange) {
	if q.Stay == nil {
		stay := rng
		q.Stay = &stay
		return
	}
	span := entity.Span(*q.Stay, rng)
	q.Stay = &span
}
