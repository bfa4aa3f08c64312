package adaptor

import (
	"booking-engine/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking *BookingHandler
	Webhook *WebhookHandler
	Admin   *AdminHandler
}

func NewHandler(service *usecase.Service, webhookBodyLimit int64, log *zap.Logger) *Handler {
	return &Handler{
		Booking: NewBookingHandler(service.Conflict, service.Pricing, service.Checkout, log),
		Webhook: NewWebhookHandler(service.Webhook, webhookBodyLimit, log),
		Admin:   NewAdminHandler(service.Booking, service.Reconcile, service.Webhook, service.Reaper, log),
	}
}
