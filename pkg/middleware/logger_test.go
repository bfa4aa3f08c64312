package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerUsesRoutePatternAndStatusLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Logger(zap.New(core)))
	r.Get("/api/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("{}"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		path  string
		level zapcore.Level
		route string
		code  int64
	}{
		{"/api/bookings/42", zapcore.InfoLevel, "/api/bookings/{id}", 200},
		{"/api/bookings/missing", zapcore.WarnLevel, "/api/bookings/{id}", 404},
		{"/boom", zapcore.ErrorLevel, "/boom", 502},
		{"/health", zapcore.DebugLevel, "/health", 200},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			entries := logs.TakeAll()
			if len(entries) != 1 {
				t.Fatalf("expected one entry, got %d", len(entries))
			}
			e := entries[0]
			fields := e.ContextMap()
			if e.Level != tt.level {
				t.Fatalf("level = %s, want %s", e.Level, tt.level)
			}
			if fields["route"] != tt.route || fields["status"] != tt.code {
				t.Fatalf("unexpected fields %v", fields)
			}
			if fields["request_id"] == "" || fields["request_id"] == nil {
				t.Fatalf("request id missing: %v", fields)
			}
		})
	}
}
