package adaptor

import (
	"errors"
	"io"
	"net/http"

	"booking-engine/internal/gateway"
	"booking-engine/internal/usecase"
	"booking-engine/pkg/utils"

	"go.uber.org/zap"
)

const defaultWebhookBodyLimit = 1 << 20

type WebhookHandler struct {
	service   usecase.WebhookService
	bodyLimit int64
	log       *zap.Logger
}

func NewWebhookHandler(service usecase.WebhookService, bodyLimit int64, log *zap.Logger) *WebhookHandler {
	if bodyLimit <= 0 {
		bodyLimit = defaultWebhookBodyLimit
	}
	return &WebhookHandler{
		service:   service,
		bodyLimit: bodyLimit,
		log:       log.With(zap.String("handler", "webhook")),
	}
}

// readBody reads the raw request body within the size limit. It writes the
// error response itself and reports false when the body is unusable.
func (h *WebhookHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.bodyLimit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ResponseJSON(w, http.StatusRequestEntityTooLarge, false, "Payload too large", nil, nil)
			return nil, false
		}
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return nil, false
	}
	return body, true
}

// Receive handles POST /api/webhooks/gateway. The signature covers the raw
// bytes, so the body is read untouched before anything parses it.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), body, r.Header.Get(gateway.SignatureHeader))
	if err != nil {
		handleServiceError(h.log, w, err, "handle webhook")
		return
	}

	utils.ResponseSuccess(w, string(result.Outcome), result)
}

// ReceiveNotification handles POST /api/webhooks/mercadopago.
func (h *WebhookHandler) ReceiveNotification(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	result, err := h.service.HandleNotification(r.Context(), gateway.NotificationRequest{
		Body:      body,
		Signature: r.Header.Get(gateway.NotificationSignatureHeader),
		RequestID: r.Header.Get(gateway.NotificationRequestIDHeader),
		DataID:    r.URL.Query().Get("data.id"),
	})
	if err != nil {
		handleServiceError(h.log, w, err, "handle notification")
		return
	}

	utils.ResponseSuccess(w, string(result.Outcome), result)
}
