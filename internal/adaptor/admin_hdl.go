package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"booking-engine/internal/dto/request"
	"booking-engine/internal/usecase"
	"booking-engine/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler serves operator endpoints. Routes are guarded by JWT and a
// per-operation permission.
type AdminHandler struct {
	bookings  usecase.BookingService
	reconcile usecase.ReconcileService
	webhooks  usecase.WebhookService
	reaper    usecase.ReaperService
	clock     func() time.Time
	log       *zap.Logger
}

func NewAdminHandler(
	bookings usecase.BookingService,
	reconcile usecase.ReconcileService,
	webhooks usecase.WebhookService,
	reaper usecase.ReaperService,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		bookings:  bookings,
		reconcile: reconcile,
		webhooks:  webhooks,
		reaper:    reaper,
		clock:     func() time.Time { return time.Now().UTC() },
		log:       log.With(zap.String("handler", "admin")),
	}
}

// ListBookings handles GET /api/admin/bookings
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ListBookingsRequest{
		PageRequest: request.PageFromQuery(query),
		Status:      query.Get("status"),
	}

	bookings, err := h.bookings.ListBookings(r.Context(), req)
	if err != nil {
		handleServiceError(h.log, w, err, "list bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetBooking handles GET /api/admin/bookings/{id}
func (h *AdminHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	booking, err := h.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		handleServiceError(h.log, w, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// RunReconciliation handles POST /api/admin/reconciliations
func (h *AdminHandler) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	var req request.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	// both parse: the validator checked the layout
	from, _ := time.Parse(time.RFC3339, req.DateFrom)
	to, _ := time.Parse(time.RFC3339, req.DateTo)

	report, err := h.reconcile.Reconcile(r.Context(), usecase.ReconcileParams{
		DateFrom:    from,
		DateTo:      to,
		Limit:       req.Limit,
		AutoCorrect: req.AutoCorrect,
		Actor:       utils.ActorFromContext(r.Context()),
	})
	if err != nil {
		handleServiceError(h.log, w, err, "run reconciliation")
		return
	}

	h.log.Info("Reconciliation requested",
		zap.String("actor", utils.ActorFromContext(r.Context())),
		zap.String("run_id", report.RunID.String()),
	)
	utils.ResponseSuccess(w, "success", report)
}

// ReplayWebhooks handles POST /api/admin/webhooks/replay
func (h *AdminHandler) ReplayWebhooks(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLimit(w, r)
	if !ok {
		return
	}

	report, err := h.webhooks.ReplayPending(r.Context(), req.Limit)
	if err != nil {
		handleServiceError(h.log, w, err, "replay webhooks")
		return
	}

	utils.ResponseSuccess(w, "success", report)
}

// ReapCheckouts handles POST /api/admin/checkouts/reap
func (h *AdminHandler) ReapCheckouts(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLimit(w, r)
	if !ok {
		return
	}

	report, err := h.reaper.ReapExpiredCheckouts(r.Context(), h.clock(), req.Limit)
	if err != nil {
		handleServiceError(h.log, w, err, "reap checkouts")
		return
	}

	utils.ResponseSuccess(w, "success", report)
}

// decodeLimit reads an optional {"limit": n} body; an empty body means the default.
func (h *AdminHandler) decodeLimit(w http.ResponseWriter, r *http.Request) (request.LimitRequest, bool) {
	var req request.LimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return req, false
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return req, false
	}
	return req, true
}
