// Package apperr defines the error taxonomy surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status mapping and metrics.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindRateLimited         Kind = "rate_limited"
	KindConfiguration       Kind = "configuration"
	KindUpstreamUnreachable Kind = "upstream_unreachable"
	KindUpstreamTimeout     Kind = "upstream_timeout"
	KindUpstreamRejected    Kind = "upstream_rejected"
	KindUpstreamEmpty       Kind = "upstream_empty"
	KindInternal            Kind = "internal"
)

// Error carries the HTTP status and the client-safe message. Cause is logged
// but never serialised.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Kind, e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message}
}

func RateLimited() *Error {
	return &Error{
		Kind:    KindRateLimited,
		Status:  http.StatusTooManyRequests,
		Message: "Too many requests. Please slow down and try again shortly.",
	}
}

func Configuration(message string) *Error {
	return &Error{Kind: KindConfiguration, Status: http.StatusInternalServerError, Message: message}
}

func Internal(cause error) *Error {
	return &Error{
		Kind:    KindInternal,
		Status:  http.StatusInternalServerError,
		Message: "An unexpected error occurred. Please try again later.",
		Cause:   cause,
	}
}

// From returns err as an *Error, wrapping anything unrecognised as Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
