package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Keyer generates deterministic cache keys (fingerprints) for requests.
//
// Contract:
// - Determinism: same URL and header set must produce the same key,
//   regardless of header insertion order or map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key from a request URL and its headers.
	Key(rawURL string, headers http.Header) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: http:<hash>
// where hash is the first 16 characters of
// SHA-256(canonical JSON({"headers": ..., "url": ...})).
func (k *DefaultKeyer) Key(rawURL string, headers http.Header) (string, error) {
	u, err := normalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	canonical, err := canonicalize(map[string]any{
		"url":     u,
		"headers": normalizeHeaders(headers),
	})
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize request: %w", err)
	}

	hash := sha256.Sum256(canonical)
	hashStr := hex.EncodeToString(hash[:8]) // First 8 bytes = 16 hex chars

	return "http:" + hashStr, nil
}

// normalizeURL lowercases scheme and host and sorts query parameters.
func normalizeURL(rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", ErrInvalidURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}
	return u.String(), nil
}

// normalizeHeaders canonicalizes header names. Value order within one header is
// kept since it is significant on the wire.
func normalizeHeaders(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for name, values := range h {
		key := http.CanonicalHeaderKey(name)
		prev, _ := out[key].([]any)
		for _, v := range values {
			prev = append(prev, v)
		}
		out[key] = prev
	}
	return out
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
