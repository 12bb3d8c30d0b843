package cache

import "time"

// Default policy values.
const (
	DefaultMaxAge     = 5 * time.Minute
	DefaultMaxEntries = 5000
)

// Policy configures caching behavior.
type Policy struct {
	// Enabled turns caching on. When false the cache is bypassed entirely:
	// no lookup and no write.
	Enabled bool

	// MaxAge is how long an entry stays fresh after it was stored.
	// An entry whose age exceeds MaxAge is treated as absent.
	MaxAge time.Duration

	// MaxEntries bounds the store size. Reaching it triggers an eviction sweep
	// before the next insert.
	MaxEntries int
}

// DefaultPolicy returns the default caching policy.
// Enabled: true, MaxAge: 5 minutes, MaxEntries: 5000
func DefaultPolicy() Policy {
	return Policy{
		Enabled:    true,
		MaxAge:     DefaultMaxAge,
		MaxEntries: DefaultMaxEntries,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{
		Enabled:    false,
		MaxAge:     DefaultMaxAge,
		MaxEntries: DefaultMaxEntries,
	}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.Enabled
}

// Expired reports whether an entry created at createdAt is stale at now.
func (p Policy) Expired(createdAt, now time.Time) bool {
	return now.Sub(createdAt) > p.MaxAge
}

// normalized fills unset bounds with defaults.
func (p Policy) normalized() Policy {
	if p.MaxAge < 0 {
		p.MaxAge = 0
	}
	if p.MaxEntries <= 0 {
		p.MaxEntries = DefaultMaxEntries
	}
	return p
}
