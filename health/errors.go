package health

import "errors"

var (
	// ErrCheckFailed indicates one or more checks reported Unhealthy.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a check did not finish before the deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
