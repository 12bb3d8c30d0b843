package resilience

import (
	"context"
	"time"
)

// Executor composes the resilience patterns around one operation.
type Executor struct {
	retry       *Retry
	rateLimiter *RateLimiter
	timeout     *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithTimeout adds a per-attempt timeout to the executor.
// A zero or negative timeout leaves attempts unbounded.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		if timeout > 0 {
			e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
		}
	}
}

// Execute runs the operation through all configured resilience patterns.
//
// The execution order is:
// 1. Retry (if configured) - outermost, re-runs everything below
// 2. Rate Limiter (if configured) - one token per attempt
// 3. Timeout (if configured) - bounds each attempt
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}
