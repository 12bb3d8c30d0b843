package cache

import (
	"bytes"
	"context"
	"net/http"
	"strings"
)

// FetchFunc performs the uncached request and returns the raw payload.
type FetchFunc func(ctx context.Context) ([]byte, error)

// SkipRule determines whether to skip caching for a request method.
// Returns true if caching should be skipped.
type SkipRule func(method string) bool

// CacheableMethods are the methods whose responses may be cached.
var CacheableMethods = []string{http.MethodGet}

// DefaultSkipRule skips caching for every method except GET.
// Method matching is case-insensitive.
func DefaultSkipRule(method string) bool {
	for _, m := range CacheableMethods {
		if strings.EqualFold(method, m) {
			return false
		}
	}
	return true
}

// HitFunc observes a cache lookup. hit is false on miss.
type HitFunc func(ctx context.Context, key string, hit bool)

// CacheMiddleware wraps request execution with caching.
type CacheMiddleware struct {
	cache    Cache
	keyer    Keyer
	policy   Policy
	skipRule SkipRule
	onLookup HitFunc
}

// NewCacheMiddleware creates a new cache middleware.
// If skipRule is nil, DefaultSkipRule is used.
func NewCacheMiddleware(cache Cache, keyer Keyer, policy Policy, skipRule SkipRule) *CacheMiddleware {
	if skipRule == nil {
		skipRule = DefaultSkipRule
	}
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &CacheMiddleware{
		cache:    cache,
		keyer:    keyer,
		policy:   policy,
		skipRule: skipRule,
	}
}

// OnLookup registers fn to observe every cache lookup.
func (m *CacheMiddleware) OnLookup(fn HitFunc) *CacheMiddleware {
	m.onLookup = fn
	return m
}

// Execute runs the request with caching.
// On cache hit, returns cached payload without calling fetch.
// On cache miss, calls fetch and caches the payload.
// Errors and JSON null payloads are NOT cached.
func (m *CacheMiddleware) Execute(
	ctx context.Context,
	method string,
	rawURL string,
	headers http.Header,
	fetch FetchFunc,
) ([]byte, error) {
	return m.ExecuteValidated(ctx, method, rawURL, headers, fetch, nil)
}

// ExecuteValidated is Execute with an accept check on cache hits. A cached
// payload that accept rejects is deleted and the lookup counts as a miss, so
// fetch runs instead. A nil accept takes every hit.
func (m *CacheMiddleware) ExecuteValidated(
	ctx context.Context,
	method string,
	rawURL string,
	headers http.Header,
	fetch FetchFunc,
	accept func([]byte) error,
) ([]byte, error) {
	if m.cache == nil || !m.policy.ShouldCache() || m.skipRule(method) {
		return fetch(ctx)
	}

	key, err := m.keyer.Key(rawURL, headers)
	if err != nil {
		// Key generation failed - execute without caching
		return fetch(ctx)
	}

	cached, ok := m.cache.Get(ctx, key)
	if ok && accept != nil {
		if err := accept(cached); err != nil {
			_ = m.cache.Delete(ctx, key)
			ok = false
		}
	}
	if m.onLookup != nil {
		m.onLookup(ctx, key, ok)
	}
	if ok {
		return cached, nil
	}

	result, err := fetch(ctx)
	if err != nil {
		return result, err
	}

	if cacheable(result) {
		_ = m.cache.Set(ctx, key, result)
	}
	return result, nil
}

// cacheable rejects empty and JSON null payloads.
func cacheable(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
