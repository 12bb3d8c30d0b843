package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Doer performs one HTTP round trip. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// request is one prepared call: headers already merged, body already encoded.
type request struct {
	method string
	url    string
	header http.Header
	body   []byte
}

// attempt performs exactly one network call and classifies the result.
//
// Connection failures and unreadable bodies return *TransportError. A non-2xx
// status returns *StatusError carrying the body text. Otherwise the raw body
// is returned.
func attempt(ctx context.Context, doer Doer, req request) ([]byte, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	httpReq.Header = req.header.Clone()
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}

	resp, err := doer.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: req.method, URL: req.url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.method, URL: req.url, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{
			Method: req.method,
			URL:    req.url,
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   string(data),
		}
	}

	return data, nil
}

// decodeJSON unmarshals data into out. An empty body leaves out at its zero
// value.
func decodeJSON(data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
