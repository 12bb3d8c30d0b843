package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/httpkit/resilience"
)

// Sentinel errors.
var (
	// ErrUnsupportedContent indicates a body content type outside
	// json, form, text and blob. It is raised before any network attempt.
	ErrUnsupportedContent = errors.New("client: unsupported content type")

	// ErrInvalidBody indicates body data that does not fit its content type.
	ErrInvalidBody = errors.New("client: invalid body")

	// ErrInvalidConfig indicates a configuration value out of range.
	ErrInvalidConfig = errors.New("client: invalid config")

	// ErrInvalidRequest indicates a request that could not be constructed,
	// such as a malformed URL.
	ErrInvalidRequest = errors.New("client: invalid request")

	// ErrTransport matches every *TransportError via errors.Is.
	ErrTransport = errors.New("client: transport failure")

	// ErrStatus matches every *StatusError via errors.Is.
	ErrStatus = errors.New("client: unexpected status")

	// ErrDecode indicates a 2xx response body that is not valid JSON for the
	// requested type. It is always wrapped in a *TransportError.
	ErrDecode = errors.New("client: decode response")
)

// TransportError reports an attempt that produced no usable response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("client: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap exposes both ErrTransport and the underlying cause.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Status string // e.g. "404 Not Found"
	Body   string // response body text
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d", e.Code)
	}
	if e.Body == "" {
		return fmt.Sprintf("client: %s %s: %s", e.Method, e.URL, status)
	}
	return fmt.Sprintf("client: %s %s: %s: %s", e.Method, e.URL, status, e.Body)
}

// StatusCode returns the HTTP status code.
func (e *StatusError) StatusCode() int { return e.Code }

func (e *StatusError) Unwrap() error { return ErrStatus }

// IsRetryable reports whether err belongs to the retryable class.
// Transport failures and per-attempt timeouts are retryable; status failures,
// configuration errors and caller cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, resilience.ErrTimeout) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrTransport)
}
