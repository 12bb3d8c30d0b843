package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrRetriesExhausted is returned if the retry loop ends without an
	// explicit outcome. It is not reachable through the normal state machine.
	ErrRetriesExhausted = errors.New("resilience: retries exhausted")

	// ErrRateLimitExceeded is returned when waiting for a rate-limit token fails.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrTimeout is returned when an attempt exceeds its time limit.
	ErrTimeout = errors.New("resilience: operation timed out")
)
