package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorKind is the outcome class of a failed upstream call.
type ErrorKind int

const (
	// KindRejected means the provider answered with a non-2xx status.
	KindRejected ErrorKind = iota
	// KindUnreachable means no response was received.
	KindUnreachable
	// KindTimeout means the call exceeded its deadline.
	KindTimeout
	// KindEmpty means a 2xx response carried no usable completion.
	KindEmpty
)

func (k ErrorKind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Error is returned by every provider call that did not yield a completion.
type Error struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q %s (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// transportError classifies a failure that happened before any HTTP response
// was read.
func transportError(ctx context.Context, provider string, err error) *Error {
	if isTimeout(ctx, err) {
		return &Error{Provider: provider, Kind: KindTimeout, Message: "request timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Provider: provider, Kind: KindUnreachable, Message: "request cancelled", Cause: err}
	}
	return &Error{Provider: provider, Kind: KindUnreachable, Message: "provider unreachable", Cause: err}
}

// isTransport reports whether err happened before a response was received.
func isTransport(ctx context.Context, err error) bool {
	if isTimeout(ctx, err) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
