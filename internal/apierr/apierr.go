// Package apierr defines the error kinds the HTTP layer knows how to map to
// status codes. Services return these; handlers never inspect raw store errors.
package apierr

import (
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "VALIDATION_FAILURE"
	KindAuth       Kind = "AUTH_FAILURE"
	KindForbidden  Kind = "FORBIDDEN"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindInternal   Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Message string
	// Fields carries per-field validation messages, nil otherwise.
	Fields map[string]string
	// Err is the wrapped cause, kept for logging, never serialized.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds a field-level validation error.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid request", Fields: fields}
}

var (
	ErrUnauthorized = New(KindAuth, "authentication required")
	ErrNotFound     = New(KindNotFound, "resource not found")
	ErrInternal     = New(KindInternal, "internal server error")
)
