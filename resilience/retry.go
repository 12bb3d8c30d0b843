package resilience

import (
	"context"
	"time"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	// Total attempts are between 1 and MaxRetries+1. Negative values mean 0.
	MaxRetries int

	// Delay is the fixed pause between attempts. Negative values mean 0.
	Delay time.Duration

	// RetryIf determines if an error should trigger a retry.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called before each delay, with the 1-based number of the
	// attempt that just failed. A panic in OnRetry is not recovered.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Sleep waits for d or until ctx is done.
	// Default: a timer raced against ctx.Done().
	Sleep func(ctx context.Context, d time.Duration) error
}

// Retry implements a bounded retry loop with a fixed delay.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.Delay < 0 {
		config.Delay = 0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}
	if config.Sleep == nil {
		config.Sleep = sleepContext
	}

	return &Retry{config: config}
}

// Execute runs the operation with retry logic.
//
// The loop ends on the first success, on the first error RetryIf rejects, or
// after MaxRetries+1 attempts, returning the last error. If ctx is cancelled
// during a delay, ctx.Err() is returned.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		if !r.config.RetryIf(err) {
			return err
		}

		// Budget spent: surface the last error.
		if attempt == r.config.MaxRetries {
			return err
		}

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, r.config.Delay)
		}

		if serr := r.config.Sleep(ctx, r.config.Delay); serr != nil {
			return serr
		}
	}

	return ErrRetriesExhausted
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
