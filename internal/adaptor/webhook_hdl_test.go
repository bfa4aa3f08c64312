package adaptor

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booking-engine/internal/gateway"
	"booking-engine/internal/usecase"
	"booking-engine/internal/usecase/mocks"
	"booking-engine/pkg/apperror"

	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestWebhookReceive(t *testing.T) {
	raw := []byte(`{"id":"evt_1","type":"payment.succeeded","data":{"session_id":"s1"}}`)

	deliver := func(h *WebhookHandler, body []byte, sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/gateway", bytes.NewReader(body))
		if sig != "" {
			req.Header.Set(gateway.SignatureHeader, sig)
		}
		rec := httptest.NewRecorder()
		h.Receive(rec, req)
		return rec
	}

	t.Run("passes raw body and header", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockWebhookService(ctrl)
		h := NewWebhookHandler(svc, 0, zap.NewNop())

		svc.EXPECT().HandleWebhook(gomock.Any(), raw, "t=1,v1=abc").
			Return(&usecase.WebhookResult{EventID: "evt_1", Kind: "payment.succeeded", Outcome: usecase.OutcomeProcessed}, nil)

		rec := deliver(h, raw, "t=1,v1=abc")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Message != "processed" {
			t.Fatalf("unexpected message %q", env.Message)
		}
	})

	t.Run("acknowledged outcomes", func(t *testing.T) {
		for _, outcome := range []usecase.WebhookOutcome{usecase.OutcomeDuplicate, usecase.OutcomeRejected, usecase.OutcomeDeferred, usecase.OutcomeIgnored} {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockWebhookService(ctrl)
			h := NewWebhookHandler(svc, 0, zap.NewNop())
			svc.EXPECT().HandleWebhook(gomock.Any(), gomock.Any(), gomock.Any()).Return(&usecase.WebhookResult{Outcome: outcome}, nil)

			if rec := deliver(h, raw, "sig"); rec.Code != http.StatusOK {
				t.Fatalf("%s: expected 200, got %d", outcome, rec.Code)
			}
		}
	})

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad signature", apperror.Signature(gateway.ErrSignatureMismatch), http.StatusBadRequest},
		{"bad payload", apperror.Validation("invalid event payload", nil), http.StatusBadRequest},
		{"in flight", apperror.Conflict("event is being processed", nil), http.StatusConflict},
		{"store down", apperror.Server(errors.New("connection refused")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockWebhookService(ctrl)
			h := NewWebhookHandler(svc, 0, zap.NewNop())
			svc.EXPECT().HandleWebhook(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.err)

			if rec := deliver(h, raw, "sig"); rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	t.Run("oversized body", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockWebhookService(ctrl)
		h := NewWebhookHandler(svc, 16, zap.NewNop())

		rec := deliver(h, []byte(strings.Repeat("x", 64)), "sig")
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", rec.Code)
		}
	})
}

func TestWebhookReceiveNotification(t *testing.T) {
	raw := []byte(`{"type":"payment","action":"payment.updated","data":{"id":"123"}}`)

	t.Run("passes headers and query", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockWebhookService(ctrl)
		h := NewWebhookHandler(svc, 0, zap.NewNop())

		svc.EXPECT().HandleNotification(gomock.Any(), gateway.NotificationRequest{
			Body:      raw,
			Signature: "ts=1,v1=abc",
			RequestID: "req-9",
			DataID:    "123",
		}).Return(&usecase.WebhookResult{EventID: "mp_123_approved_0", Outcome: usecase.OutcomeProcessed}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago?data.id=123&type=payment", bytes.NewReader(raw))
		req.Header.Set(gateway.NotificationSignatureHeader, "ts=1,v1=abc")
		req.Header.Set(gateway.NotificationRequestIDHeader, "req-9")
		rec := httptest.NewRecorder()
		h.ReceiveNotification(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("provider lookup failure asks for a retry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockWebhookService(ctrl)
		h := NewWebhookHandler(svc, 0, zap.NewNop())
		svc.EXPECT().HandleNotification(gomock.Any(), gomock.Any()).Return(nil, apperror.Gateway(errors.New("timeout")))

		rec := httptest.NewRecorder()
		h.ReceiveNotification(rec, httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", bytes.NewReader(raw)))
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
	})
}
