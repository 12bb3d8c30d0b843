// Package resilience provides the retry and pacing patterns used around a
// single HTTP attempt.
//
// # Patterns
//
//   - Retry: re-runs a failed operation a bounded number of times with a
//     fixed delay between attempts. Only errors accepted by RetryIf are
//     retried; anything else ends the loop immediately.
//
//   - Rate Limiter: paces attempts with a token bucket
//     (golang.org/x/time/rate), waiting for a token rather than failing.
//
//   - Timeout: bounds a single attempt.
//
// # Usage
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxRetries: 3,
//	    Delay:      time.Second,
//	    RetryIf:    isTransient,
//	})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRetry(retry),
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 10})),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return doAttempt(ctx)
//	})
package resilience
