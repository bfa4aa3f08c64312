package wire

import (
	"booking-engine/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireWebhook(r chi.Router, webhookHandler *adaptor.WebhookHandler) {
	// authenticated by the payload signature, not a bearer token
	r.Post("/api/webhooks/gateway", webhookHandler.Receive)
	r.Post("/api/webhooks/mercadopago", webhookHandler.ReceiveNotification)
}
