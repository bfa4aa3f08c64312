package wire

import (
	"booking-engine/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler) {
	// public: the storefront calls these without credentials
	r.Post("/api/availability", bookingHandler.CheckAvailability)
	r.Post("/api/quotes", bookingHandler.Quote)
	r.Post("/api/checkout", bookingHandler.CreateCheckout)
}
