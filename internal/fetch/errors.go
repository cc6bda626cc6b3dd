package fetch

import (
	"fmt"
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors for each failure kind. A *FetchError matches its kind's
// sentinel through errors.Is.
var (
	// ErrTransport indicates the request never produced an HTTP response
	// (DNS, connection, or context cancellation).
	ErrTransport = constError("transport failure")

	// ErrResponse indicates the backend answered with a non-2xx status.
	ErrResponse = constError("unsuccessful response")

	// ErrMalformedPayload indicates the body was not a valid record array.
	ErrMalformedPayload = constError("malformed payload")

	// ErrInvalidRequest indicates the page request could not be built.
	ErrInvalidRequest = constError("invalid page request")
)

// FailureKind classifies why a page fetch produced no records.
type FailureKind int

const (
	// FailureNone means the fetch succeeded.
	FailureNone FailureKind = iota
	// TransportFailure means the network exchange itself failed.
	TransportFailure
	// ResponseFailure means the status code indicated non-success.
	ResponseFailure
	// MalformedPayload means the body could not be read as a record array.
	MalformedPayload
	// InvalidRequest means no request was sent because the arguments were invalid.
	InvalidRequest
)

// String returns the outcome label used in logs and metrics.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "ok"
	case TransportFailure:
		return "transport"
	case ResponseFailure:
		return "response"
	case MalformedPayload:
		return "malformed"
	case InvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

func (k FailureKind) sentinel() error {
	switch k {
	case TransportFailure:
		return ErrTransport
	case ResponseFailure:
		return ErrResponse
	case MalformedPayload:
		return ErrMalformedPayload
	case InvalidRequest:
		return ErrInvalidRequest
	case FailureNone:
		return nil
	default:
		return nil
	}
}

// FetchError describes a failed page fetch.
//
//nolint:revive // FetchError reads better than Error at call sites (fetch.FetchError).
type FetchError struct {
	Kind       FailureKind
	Page       int
	StatusCode int
	Err        error
}

// Error implements error.
func (e *FetchError) Error() string {
	msg := fmt.Sprintf("page %d: %s", e.Page, e.Kind.sentinel())
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *FetchError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}
