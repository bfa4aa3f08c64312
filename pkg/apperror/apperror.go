package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers and for the HTTP layer.
type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodeConflict   Code = "CONFLICT"
	CodeNotFound   Code = "NOT_FOUND"
	CodeGateway    Code = "GATEWAY_ERROR"
	CodeSignature  Code = "SIGNATURE_ERROR"
	CodeServer     Code = "SERVER_ERROR"
)

// Error is the typed error returned by usecases.
//
// Details is caller-facing (field errors, conflicting intervals). Err is the
// internal cause and is never rendered to HTTP clients.
type Error struct {
	Code    Code
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may retry the same request.
func (e *Error) Retryable() bool {
	return e.Code == CodeGateway || e.Code == CodeServer
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func Validation(message string, details any) *Error {
	return &Error{Code: CodeValidation, Message: message, Details: details}
}

func Conflict(message string, details any) *Error {
	return &Error{Code: CodeConflict, Message: message, Details: details}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Gateway(err error) *Error {
	return &Error{Code: CodeGateway, Message: "payment provider unavailable, please retry", Err: err}
}

func Signature(err error) *Error {
	return &Error{Code: CodeSignature, Message: "invalid signature", Err: err}
}

func Server(err error) *Error {
	return &Error{Code: CodeServer, Message: "internal server error", Err: err}
}

// CodeOf returns the code of the first *Error in the chain, or CodeServer.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServer
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeSignature:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
