package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration of one attempt.
	// Zero or negative disables the limit.
	Timeout time.Duration
}

// Timeout bounds a single attempt.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	return &Timeout{config: config}
}

// Execute runs op with a deadline derived from ctx. The operation is expected
// to honor ctx; a deadline hit is reported as ErrTimeout wrapping the context
// error so callers can still match context.DeadlineExceeded.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	if t.config.Timeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	err := op(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	return err
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout is a convenience function to run an operation with timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}
