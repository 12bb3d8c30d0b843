package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ProbeFunc issues one request against target and reports its failure.
type ProbeFunc func(ctx context.Context, target string) error

// statusCoder is implemented by errors that carry an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// EndpointChecker checks one URL through a ProbeFunc.
type EndpointChecker struct {
	name   string
	target string
	probe  ProbeFunc
	slow   time.Duration
	now    func() time.Time
}

// EndpointOption configures an EndpointChecker.
type EndpointOption func(*EndpointChecker)

// WithName overrides the checker name, which defaults to the target URL.
func WithName(name string) EndpointOption {
	return func(c *EndpointChecker) { c.name = name }
}

// WithSlowThreshold marks successful probes slower than d as Degraded.
// Zero disables the threshold.
func WithSlowThreshold(d time.Duration) EndpointOption {
	return func(c *EndpointChecker) { c.slow = d }
}

// WithNow replaces time.Now for measuring probe duration.
func WithNow(now func() time.Time) EndpointOption {
	return func(c *EndpointChecker) { c.now = now }
}

// NewEndpointChecker creates a checker that probes target.
func NewEndpointChecker(target string, probe ProbeFunc, opts ...EndpointOption) *EndpointChecker {
	c := &EndpointChecker{
		name:   target,
		target: target,
		probe:  probe,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the checker name.
func (c *EndpointChecker) Name() string { return c.name }

// Target returns the probed URL.
func (c *EndpointChecker) Target() string { return c.target }

// Check probes the endpoint once and classifies the outcome.
func (c *EndpointChecker) Check(ctx context.Context) Result {
	start := c.now()
	err := c.probe(ctx, c.target)
	elapsed := c.now().Sub(start)

	var r Result
	var sc statusCoder
	switch {
	case err == nil && c.slow > 0 && elapsed > c.slow:
		r = Degraded(fmt.Sprintf("slow response: %s > %s", elapsed.Round(time.Millisecond), c.slow), nil)
	case err == nil:
		r = Healthy("ok")
	case errors.As(err, &sc) && sc.StatusCode() < http.StatusInternalServerError:
		r = Degraded(fmt.Sprintf("status %d", sc.StatusCode()), err)
	case errors.As(err, &sc):
		r = Unhealthy(fmt.Sprintf("status %d", sc.StatusCode()), err)
	default:
		r = Unhealthy("unreachable", err)
	}
	r.Timestamp = start
	return r.WithDuration(elapsed)
}

var _ Checker = (*EndpointChecker)(nil)
