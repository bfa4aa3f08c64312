package adaptor

import (
	"encoding/json"
	"net/http"

	"booking-engine/internal/dto/request"
	"booking-engine/internal/usecase"
	"booking-engine/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingHandler serves the public, unauthenticated booking flow.
type BookingHandler struct {
	conflicts usecase.ConflictService
	pricing   usecase.PricingService
	checkout  usecase.CheckoutService
	log       *zap.Logger
}

func NewBookingHandler(conflicts usecase.ConflictService, pricing usecase.PricingService, checkout usecase.CheckoutService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		conflicts: conflicts,
		pricing:   pricing,
		checkout:  checkout,
		log:       log.With(zap.String("handler", "booking")),
	}
}

// CheckAvailability handles POST /api/availability
func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req request.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}
	items, itemErrors := req.ToLineItems()
	if len(itemErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", itemErrors)
		return
	}

	cand := usecase.Candidate{Items: items}
	if req.BookingID != nil {
		id := uuid.MustParse(*req.BookingID)
		cand.BookingID = &id
	}

	result, err := h.conflicts.CheckConflicts(r.Context(), cand)
	if err != nil {
		handleServiceError(h.log, w, err, "check availability")
		return
	}

	utils.ResponseSuccess(w, "success", toAvailabilityResponse(result))
}

// Quote handles POST /api/quotes
func (h *BookingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req request.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}
	items, itemErrors := req.ToLineItems()
	if len(itemErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", itemErrors)
		return
	}

	quote, err := h.pricing.Quote(r.Context(), usecase.QuoteRequest{Items: items, PromoCode: req.PromoCode})
	if err != nil {
		handleServiceError(h.log, w, err, "quote")
		return
	}

	utils.ResponseSuccess(w, "success", toQuoteResponse(quote))
}

// CreateCheckout handles POST /api/checkout
func (h *BookingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req request.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	// the service validates the request itself
	checkout, err := h.checkout.CreateCheckout(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create checkout")
		return
	}

	utils.ResponseCreated(w, "success", checkout)
}
