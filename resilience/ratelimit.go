package resilience

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of attempts allowed per second.
	// Zero or negative means unlimited.
	Rate float64

	// Burst is the maximum burst size.
	// Default: 1
	Burst int
}

// RateLimiter paces operations with a token bucket.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Burst <= 0 {
		config.Burst = 1
	}

	limit := rate.Inf
	if config.Rate > 0 {
		limit = rate.Limit(config.Rate)
	}

	return &RateLimiter{
		config:  config,
		limiter: rate.NewLimiter(limit, config.Burst),
	}
}

// Allow reports whether an operation may run now without waiting.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := rl.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrRateLimitExceeded, err)
	}
	return nil
}

// Execute waits for a token, then runs op.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := rl.Wait(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// Config returns the rate limiter configuration.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}
