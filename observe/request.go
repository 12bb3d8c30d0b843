package observe

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// RequestMeta describes one client call for telemetry purposes.
type RequestMeta struct {
	ID     string // Correlation ID, generated when empty
	Method string // HTTP method (required)
	URL    string // Request URL as given by the caller
}

// NewRequestMeta builds metadata for a call and assigns it a fresh ID.
func NewRequestMeta(method, rawURL string) RequestMeta {
	return RequestMeta{
		ID:     uuid.NewString(),
		Method: strings.ToUpper(method),
		URL:    rawURL,
	}
}

// SpanName returns the deterministic span name for this request.
// Format: http.client.<METHOD>
func (m RequestMeta) SpanName() string {
	return "http.client." + strings.ToUpper(m.Method)
}

// Host returns the URL host, or "" for relative or malformed URLs.
func (m RequestMeta) Host() string {
	u, err := url.Parse(m.URL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Route returns the URL without query string or fragment, which keeps metric
// attribute cardinality bounded by path.
func (m RequestMeta) Route() string {
	u, err := url.Parse(m.URL)
	if err != nil {
		return m.URL
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}
