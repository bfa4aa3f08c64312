package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{name: "direct", err: Conflict("taken", nil), want: CodeConflict},
		{name: "wrapped", err: fmt.Errorf("checkout: %w", NotFound("room %s", "r1")), want: CodeNotFound},
		{name: "plain error", err: errors.New("boom"), want: CodeServer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeOf(tc.err); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation: http.StatusBadRequest,
		CodeSignature:  http.StatusBadRequest,
		CodeConflict:   http.StatusConflict,
		CodeNotFound:   http.StatusNotFound,
		CodeGateway:    http.StatusBadGateway,
		CodeServer:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatus(code); got != want {
			t.Fatalf("%s: expected %d, got %d", code, want, got)
		}
	}
}

func TestErrorUnwrapAndRetryable(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Gateway(cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
	if !err.Retryable() {
		t.Fatalf("gateway errors must be retryable")
	}
	if Signature(cause).Retryable() {
		t.Fatalf("signature errors must not be retryable")
	}
}
