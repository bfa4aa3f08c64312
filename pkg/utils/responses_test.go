package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booking-engine/pkg/apperror"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestResponseErrorHidesServerCause(t *testing.T) {
	rec := httptest.NewRecorder()
	ResponseError(rec, apperror.Server(errors.New("pq: password authentication failed")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := rec.Body.String(); strings.Contains(got, "password") {
		t.Fatalf("response leaked internal cause: %s", got)
	}
	body := decodeResponse(t, rec)
	if body["status"] != false {
		t.Fatalf("expected status false, got %v", body["status"])
	}
}

func TestResponseErrorConflictDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	ResponseError(rec, apperror.Conflict("resource unavailable", []string{"bed-1"}))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	errs, ok := body["errors"].(map[string]any)
	if !ok {
		t.Fatalf("expected errors object, got %v", body["errors"])
	}
	if errs["code"] != string(apperror.CodeConflict) {
		t.Fatalf("expected CONFLICT code, got %v", errs["code"])
	}
	if details, ok := errs["details"].([]any); !ok || len(details) != 1 {
		t.Fatalf("expected one detail, got %v", errs["details"])
	}
}

func TestResponseErrorPlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	ResponseError(rec, errors.New("boom"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
