package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

var errConnRefused = errors.New("connection refused")

// recordedRequest is what fakeDoer saw for one call.
type recordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// fakeDoer answers requests through respond, counting calls.
type fakeDoer struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(call int, req *http.Request) (*http.Response, error)
}

func (d *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}

	d.mu.Lock()
	d.requests = append(d.requests, recordedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})
	call := len(d.requests)
	d.mu.Unlock()

	return d.respond(call, req)
}

func (d *fakeDoer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

func (d *fakeDoer) Last() recordedRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests[len(d.requests)-1]
}

func respondWith(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// staticDoer always answers with the same status and body.
func staticDoer(code int, body string) *fakeDoer {
	return &fakeDoer{respond: func(int, *http.Request) (*http.Response, error) {
		return respondWith(code, body), nil
	}}
}

// failingDoer fails the first n calls with a transport error, then answers body.
func failingDoer(n int, body string) *fakeDoer {
	return &fakeDoer{respond: func(call int, _ *http.Request) (*http.Response, error) {
		if call <= n {
			return nil, errConnRefused
		}
		return respondWith(http.StatusOK, body), nil
	}}
}

// recordingSleep captures retry delays without waiting.
type recordingSleep struct {
	mu    sync.Mutex
	calls int
	total time.Duration
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls++
	s.total += d
	s.mu.Unlock()
	return ctx.Err()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type post struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func mustNew(t testing.TB, opts ...Option) *Client {
	t.Helper()
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

// exclusive reports whether o populates exactly one of data and error, for
// pointer-free payloads where the zero value means "no data".
func exclusive[T comparable](o Outcome[T]) bool {
	var zero T
	hasData := o.Data != zero
	hasErr := o.Err != nil
	return hasData != hasErr
}
