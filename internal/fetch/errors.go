package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed page load.
type Kind string

const (
	// KindConnectivity: the source could not be reached.
	KindConnectivity Kind = "connectivity"

	// KindClientStatus: the source answered with a 4xx status.
	KindClientStatus Kind = "client_status"

	// KindServerStatus: the source answered with a 5xx status.
	KindServerStatus Kind = "server_status"

	// KindMalformed: the response body could not be decoded or is invalid.
	KindMalformed Kind = "malformed"

	// KindUnexpected: anything else.
	KindUnexpected Kind = "unexpected"
)

// ErrSuperseded is returned by Load when a newer Load or Retry started
// before this one finished. The result was discarded.
var ErrSuperseded = errors.New("fetch: request superseded")

// ErrNothingToRetry is returned by Retry before any Load.
var ErrNothingToRetry = errors.New("fetch: no request to retry")

// Error is a classified page-load failure.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status for status kinds, 0 otherwise
	Message string // detail from the source, if any
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("fetch %s (%d): %s", e.Kind, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("fetch %s (%d)", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying may succeed. Every page-load failure
// is retryable.
func (e *Error) Retryable() bool {
	return true
}

// UserMessage is the text shown next to the retry control.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindConnectivity:
		return "Unable to reach the server. Check your connection and try again."
	case KindClientStatus:
		switch e.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "You are not allowed to view these records."
		case http.StatusNotFound:
			return "The record list could not be found."
		case http.StatusTooManyRequests:
			return "Too many requests. Wait a moment and try again."
		default:
			return fmt.Sprintf("The request for this page was rejected (HTTP %d).", e.Status)
		}
	case KindServerStatus:
		switch e.Status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return "The server is temporarily unavailable. Try again shortly."
		default:
			return fmt.Sprintf("The server failed to load records (HTTP %d).", e.Status)
		}
	case KindMalformed:
		return "The server sent a response that could not be read."
	default:
		return "Something went wrong while loading records."
	}
}

// Classify returns err as a *Error, wrapping unclassified errors as
// KindUnexpected. Returns nil for nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Kind: KindUnexpected, Err: err}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}

// statusError classifies a non-2xx response status.
func statusError(status int, message string) *Error {
	kind := KindUnexpected
	switch {
	case status >= 400 && status < 500:
		kind = KindClientStatus
	case status >= 500 && status < 600:
		kind = KindServerStatus
	}
	return &Error{Kind: kind, Status: status, Message: message}
}
