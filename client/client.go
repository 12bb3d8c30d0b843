package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/jonwraymond/httpkit/cache"
	"github.com/jonwraymond/httpkit/observe"
	"github.com/jonwraymond/httpkit/resilience"
)

// ErrNilClient is returned by the package-level verbs when given a nil Client.
var ErrNilClient = errors.New("client: client is nil")

// Client issues HTTP requests through the retry and cache pipeline.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: every call honors ctx for the network attempt and retry delay.
//   - Errors: request failures are reported through Outcome, never panics.
//     A panic raised by the OnRetry hook is not recovered.
type Client struct {
	cfg       Config
	doer      Doer
	store     *cache.MemoryCache // nil when caching is disabled
	cacheMW   *cache.CacheMiddleware
	limiter   *resilience.RateLimiter
	telemetry *observe.Middleware
	metrics   observe.Metrics
	debug     observe.Logger
}

// New creates a Client. Options are applied on top of DefaultConfig.
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.DefaultHeaders = cfg.DefaultHeaders.Clone()

	c := &Client{cfg: cfg, doer: cfg.Transport}
	if c.doer == nil {
		c.doer = &http.Client{}
	}

	obs := cfg.Observer
	if obs == nil {
		obs = observe.NewNoopObserver()
		if cfg.Debug {
			obs = observe.WithLogger(obs, observe.NewLogger("debug"))
		}
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, err
	}
	c.telemetry = mw
	c.metrics = mw.Metrics()

	c.debug = observe.NoopLogger()
	if cfg.Debug {
		c.debug = obs.Logger()
	}

	if cfg.Cache.Enabled {
		policy := cache.Policy{
			Enabled:    true,
			MaxAge:     cfg.Cache.MaxAge,
			MaxEntries: cfg.Cache.MaxEntries,
		}
		c.store = cache.NewMemoryCache(policy,
			cache.WithClock(cfg.Clock),
			cache.WithSweepHook(c.onSweep),
		)
		c.cacheMW = cache.NewCacheMiddleware(c.store, cache.NewDefaultKeyer(), policy, nil).
			OnLookup(c.onLookup)
	}

	if cfg.RateLimit > 0 {
		c.limiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:  cfg.RateLimit,
			Burst: cfg.RateBurst,
		})
	}

	return c, nil
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	cfg := c.cfg
	cfg.DefaultHeaders = cfg.DefaultHeaders.Clone()
	return cfg
}

// Stats is a snapshot of the client's cache counters.
type Stats = cache.Stats

// Stats returns cache counters. All fields are zero when caching is disabled.
func (c *Client) Stats() Stats {
	if c.store == nil {
		return Stats{}
	}
	return c.store.Stats()
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	if c.store != nil {
		c.store.Clear()
	}
}

// Request describes a call for Do.
type Request struct {
	Method string // defaults to GET
	URL    string
	Header http.Header
	Body   Body // nil for no body
}

// Do runs r through the pipeline and returns the raw response body.
// GET responses are cached like Fetch.
func (c *Client) Do(ctx context.Context, r Request) Outcome[[]byte] {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var (
		req request
		err error
	)
	if r.Body != nil {
		req, err = c.newBodyRequest(method, r.URL, r.Header, r.Body)
		if err != nil {
			return Failure[[]byte](err)
		}
	} else {
		req = c.newRequest(method, r.URL, r.Header)
	}

	data, err := c.execute(ctx, req, func([]byte) error { return nil })
	if err != nil {
		return Failure[[]byte](err)
	}
	// Cached slices are shared; callers get their own copy.
	return Success(bytes.Clone(data))
}

// Fetch performs a GET and decodes the JSON response into T. With caching
// enabled, a fresh cached response is returned without a network call.
func Fetch[T any](ctx context.Context, c *Client, url string, headers http.Header) Outcome[T] {
	if c == nil {
		return Failure[T](ErrNilClient)
	}
	return send[T](ctx, c, c.newRequest(http.MethodGet, url, headers))
}

// Submit performs a POST with body and decodes the JSON response into T.
func Submit[T any](ctx context.Context, c *Client, url string, body Body) Outcome[T] {
	return sendBody[T](ctx, c, http.MethodPost, url, body)
}

// Replace performs a PUT with body and decodes the JSON response into T.
func Replace[T any](ctx context.Context, c *Client, url string, body Body) Outcome[T] {
	return sendBody[T](ctx, c, http.MethodPut, url, body)
}

// Remove performs a DELETE and decodes the JSON response into T. The cache is
// never consulted or written.
func Remove[T any](ctx context.Context, c *Client, url string, headers http.Header) Outcome[T] {
	if c == nil {
		return Failure[T](ErrNilClient)
	}
	return send[T](ctx, c, c.newRequest(http.MethodDelete, url, headers))
}

func sendBody[T any](ctx context.Context, c *Client, method, url string, body Body) Outcome[T] {
	if c == nil {
		return Failure[T](ErrNilClient)
	}
	req, err := c.newBodyRequest(method, url, nil, body)
	if err != nil {
		return Failure[T](err)
	}
	return send[T](ctx, c, req)
}

// send decodes into a fresh T on every attempt so a failed decode never leaves
// partial data behind.
func send[T any](ctx context.Context, c *Client, req request) Outcome[T] {
	var out T
	_, err := c.execute(ctx, req, func(data []byte) error {
		var v T
		if err := decodeJSON(data, &v); err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return Failure[T](err)
	}
	return Success(out)
}

// newRequest merges default headers under the per-request ones.
func (c *Client) newRequest(method, url string, headers http.Header) request {
	merged := c.cfg.DefaultHeaders.Clone()
	if merged == nil {
		merged = make(http.Header, len(headers))
	}
	for k, v := range headers {
		merged[http.CanonicalHeaderKey(k)] = slices.Clone(v)
	}
	return request{method: method, url: url, header: merged}
}

// newBodyRequest encodes body and sets Content-Type from its kind. Encoding
// errors surface before any network attempt.
func (c *Client) newBodyRequest(method, url string, headers http.Header, body Body) (request, error) {
	data, err := encodeBody(body)
	if err != nil {
		return request{}, err
	}
	req := c.newRequest(method, url, headers)
	req.header.Set("Content-Type", body.ContentType())
	req.body = data
	return req, nil
}

// execute runs req through observe, cache and resilience layers. decode
// validates a payload; on a network path it runs inside the retried attempt.
// A cached payload that fails decode is dropped and refetched.
func (c *Client) execute(ctx context.Context, req request, decode func([]byte) error) ([]byte, error) {
	call := c.telemetry.Wrap(func(ctx context.Context, meta observe.RequestMeta) ([]byte, error) {
		fetch := func(ctx context.Context) ([]byte, error) {
			var payload []byte
			err := c.executorFor(ctx, meta).Execute(ctx, func(ctx context.Context) error {
				data, err := attempt(ctx, c.doer, req)
				if err != nil {
					return err
				}
				if err := decode(data); err != nil {
					return &TransportError{Method: req.method, URL: req.url, Err: err}
				}
				payload = data
				return nil
			})
			if err != nil {
				return nil, err
			}
			return payload, nil
		}

		if c.cacheMW == nil {
			return fetch(ctx)
		}
		return c.cacheMW.ExecuteValidated(ctx, req.method, req.url, req.header, fetch, decode)
	})

	return call(ctx, observe.NewRequestMeta(req.method, req.url))
}

// executorFor builds the per-call executor. Retry state is per call; the rate
// limiter is shared by the client.
func (c *Client) executorFor(ctx context.Context, meta observe.RequestMeta) *resilience.Executor {
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxRetries: c.cfg.Retry.Count,
		Delay:      c.cfg.Retry.Delay,
		RetryIf:    IsRetryable,
		Sleep:      c.cfg.Sleep,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			c.metrics.RecordRetry(ctx, meta)
			c.debug.WithRequest(meta).Debug(ctx, "retrying request",
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
				observe.Field{Key: "error", Value: err.Error()},
			)
			if c.cfg.Retry.OnRetry != nil {
				c.cfg.Retry.OnRetry()
			}
		},
	})

	opts := []resilience.ExecutorOption{
		resilience.WithRetry(retry),
		resilience.WithTimeout(c.cfg.Timeout),
	}
	if c.limiter != nil {
		opts = append(opts, resilience.WithRateLimiter(c.limiter))
	}
	return resilience.NewExecutor(opts...)
}

func (c *Client) onLookup(ctx context.Context, key string, hit bool) {
	c.metrics.RecordCacheLookup(ctx, hit)
	if hit {
		c.debug.Debug(ctx, "cache hit", observe.Field{Key: "key", Value: key})
	}
}

// onSweep runs under the cache lock.
func (c *Client) onSweep(removed, remaining int) {
	ctx := context.Background()
	c.metrics.RecordEviction(ctx, removed)
	c.debug.Debug(ctx, "cache cleanup",
		observe.Field{Key: "removed", Value: removed},
		observe.Field{Key: "remaining", Value: remaining},
	)
}
