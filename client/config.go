package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/httpkit/cache"
	"github.com/jonwraymond/httpkit/observe"
)

// Defaults applied by DefaultConfig.
const (
	DefaultRetryDelay = time.Second
	DefaultMaxAge     = cache.DefaultMaxAge
	DefaultMaxEntries = cache.DefaultMaxEntries
)

// RetryConfig bounds the retry loop.
type RetryConfig struct {
	// Count is the number of additional attempts after the first.
	Count int

	// Delay is the fixed pause between attempts.
	Delay time.Duration

	// OnRetry is called before each delay. A panic is not recovered.
	OnRetry func()
}

// CacheConfig controls the GET response cache.
type CacheConfig struct {
	Enabled    bool
	MaxAge     time.Duration
	MaxEntries int
}

// Config holds client configuration. It is copied by New and immutable
// afterwards.
type Config struct {
	// Debug enables debug log lines for cache hits, cache cleanups and retries.
	Debug bool

	Retry RetryConfig
	Cache CacheConfig

	// Timeout bounds each attempt. Zero leaves it to the transport.
	Timeout time.Duration

	// RateLimit is the sustained attempts per second. Zero is unlimited.
	RateLimit float64
	RateBurst int

	// DefaultHeaders are sent with every request. Per-request headers win.
	DefaultHeaders http.Header

	// Transport performs the network call. Nil means a plain *http.Client.
	Transport Doer

	// Observer supplies tracing, metrics and logging. Nil means no-op.
	Observer observe.Observer

	// Clock stamps cache entries. Nil means time.Now.
	Clock func() time.Time

	// Sleep waits between retry attempts. Nil means a timer honoring ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		Retry: RetryConfig{
			Count: 0,
			Delay: DefaultRetryDelay,
		},
		Cache: CacheConfig{
			Enabled:    false,
			MaxAge:     DefaultMaxAge,
			MaxEntries: DefaultMaxEntries,
		},
	}
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.Retry.Count < 0:
		return fmt.Errorf("%w: retry count must be non-negative, got %d", ErrInvalidConfig, c.Retry.Count)
	case c.Retry.Delay < 0:
		return fmt.Errorf("%w: retry delay must be non-negative, got %v", ErrInvalidConfig, c.Retry.Delay)
	case c.Cache.MaxAge < 0:
		return fmt.Errorf("%w: cache max age must be non-negative, got %v", ErrInvalidConfig, c.Cache.MaxAge)
	case c.Cache.Enabled && c.Cache.MaxEntries < 1:
		return fmt.Errorf("%w: cache max entries must be positive, got %d", ErrInvalidConfig, c.Cache.MaxEntries)
	case c.Timeout < 0:
		return fmt.Errorf("%w: timeout must be non-negative, got %v", ErrInvalidConfig, c.Timeout)
	case c.RateLimit < 0:
		return fmt.Errorf("%w: rate limit must be non-negative, got %v", ErrInvalidConfig, c.RateLimit)
	case c.RateBurst < 0:
		return fmt.Errorf("%w: rate burst must be non-negative, got %d", ErrInvalidConfig, c.RateBurst)
	}
	return nil
}

// Option configures a Client.
type Option func(*Config)

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// WithDebug toggles debug logging.
func WithDebug(enabled bool) Option {
	return func(c *Config) { c.Debug = enabled }
}

// WithRetry sets the retry budget and the delay between attempts.
func WithRetry(count int, delay time.Duration) Option {
	return func(c *Config) {
		c.Retry.Count = count
		c.Retry.Delay = delay
	}
}

// WithOnRetry registers a hook called before each retry delay.
func WithOnRetry(fn func()) Option {
	return func(c *Config) { c.Retry.OnRetry = fn }
}

// WithCache enables the GET cache with the given age and capacity.
// Zero values keep the defaults; use WithCacheMaxAge for a zero max age.
func WithCache(maxAge time.Duration, maxEntries int) Option {
	return func(c *Config) {
		c.Cache.Enabled = true
		if maxAge != 0 {
			c.Cache.MaxAge = maxAge
		}
		if maxEntries != 0 {
			c.Cache.MaxEntries = maxEntries
		}
	}
}

// WithCacheMaxAge enables the GET cache and sets its max age exactly, zero
// included. A zero max age serves an entry only at the instant it was stored.
func WithCacheMaxAge(d time.Duration) Option {
	return func(c *Config) {
		c.Cache.Enabled = true
		c.Cache.MaxAge = d
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRateLimit limits attempts to limit per second with the given burst.
func WithRateLimit(limit float64, burst int) Option {
	return func(c *Config) {
		c.RateLimit = limit
		c.RateBurst = burst
	}
}

// WithDefaultHeader adds a header sent with every request.
func WithDefaultHeader(key, value string) Option {
	return func(c *Config) {
		if c.DefaultHeaders == nil {
			c.DefaultHeaders = make(http.Header)
		}
		c.DefaultHeaders.Add(key, value)
	}
}

// WithTransport sets the network transport.
func WithTransport(d Doer) Option {
	return func(c *Config) { c.Transport = d }
}

// WithObserver sets the telemetry observer.
func WithObserver(obs observe.Observer) Option {
	return func(c *Config) { c.Observer = obs }
}

// WithClock replaces time.Now for cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Config) { c.Clock = now }
}

// WithSleep replaces the wait between retry attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Config) { c.Sleep = sleep }
}
