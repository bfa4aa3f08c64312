package wire

import (
	"net/http"

	"booking-engine/internal/adaptor"
	"booking-engine/pkg/authz"
	"booking-engine/pkg/middleware"
	"booking-engine/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	adminHandler *adaptor.AdminHandler,
	policy authz.Policy,
	config *utils.Config,
	log *zap.Logger,
) {
	can := func(perm authz.Permission) func(http.Handler) http.Handler {
		return middleware.RequirePermission(policy, perm, log)
	}

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.JWT(config.JWT, log))

		// GET /api/admin/bookings - list bookings, optional ?status=
		r.With(can(authz.BookingRead)).Get("/bookings", adminHandler.ListBookings)

		// GET /api/admin/bookings/{id} - booking with payment, reservations and add-ons
		r.With(can(authz.BookingRead)).Get("/bookings/{id}", adminHandler.GetBooking)

		// POST /api/admin/reconciliations - sweep a window against the gateway
		r.With(can(authz.ReconciliationRun)).Post("/reconciliations", adminHandler.RunReconciliation)

		// POST /api/admin/webhooks/replay - re-drive deferred webhook events
		r.With(can(authz.WebhookReplay)).Post("/webhooks/replay", adminHandler.ReplayWebhooks)

		// POST /api/admin/checkouts/reap - cancel abandoned checkouts
		r.With(can(authz.CheckoutReap)).Post("/checkouts/reap", adminHandler.ReapCheckouts)
	})
}
