// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Kind classifies a failure for the transport layer.
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindInternal        Kind = "internal"
)

// Error is the tagged result every service returns on failure.
// Message is safe to show to callers; Cause is logged only.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Map converts repo/infra errors into the service taxonomy.
// Already-tagged errors pass through unchanged.
func Map(err error) *Error {
	if err == nil {
		return nil
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Message: "record not found", Cause: err}

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindInternal, Message: "request timed out", Cause: err}

	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindInternal, Message: "request was canceled", Cause: err}

	default:
		return &Error{Kind: KindInternal, Message: "internal error", Cause: err}
	}
}

// Is reports whether err maps to the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return Map(err).Kind == kind
}

// InvalidInput is returned for malformed payloads and rejected files.
func InvalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// Forbidden is returned when the caller's role or ownership does not allow the operation.
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Internal wraps a store or filesystem failure behind a generic message.
func Internal(cause error) error {
	return &Error{Kind: KindInternal, Message: "internal error", Cause: cause}
}

// NotFoundOr translates gorm.ErrRecordNotFound into a NotFound error with msg
// and leaves other errors to Map.
func NotFoundOr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Kind: KindNotFound, Message: msg, Cause: err}
	}
	return Map(err)
}
