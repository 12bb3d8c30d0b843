// Package cache provides bounded, time-aware memoization of HTTP GET payloads.
//
// It provides a Cache interface with a memory implementation, SHA-256-based
// request fingerprints (URL plus header set), age-based lazy expiry, and a
// batch eviction sweep that drops the oldest quarter of entries once the
// store reaches capacity.
package cache
