package observe

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricRequests       = "http.client.requests"
	MetricErrors         = "http.client.errors"
	MetricDuration       = "http.client.duration_ms"
	MetricRetries        = "http.client.retries"
	MetricCacheHits      = "http.client.cache.hits"
	MetricCacheMisses    = "http.client.cache.misses"
	MetricCacheEvictions = "http.client.cache.evictions"
)

// Metrics records client request metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records one completed client call with its duration and
	// error status.
	RecordRequest(ctx context.Context, meta RequestMeta, duration time.Duration, err error)

	// RecordRetry records that a failed attempt is about to be retried.
	RecordRetry(ctx context.Context, meta RequestMeta)

	// RecordCacheLookup records a cache hit or miss.
	RecordCacheLookup(ctx context.Context, hit bool)

	// RecordEviction records entries removed by an eviction sweep.
	RecordEviction(ctx context.Context, removed int)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	retryCount   metric.Int64Counter
	hitCount     metric.Int64Counter
	missCount    metric.Int64Counter
	evictCount   metric.Int64Counter
}

// NewMetrics creates a Metrics instance registering its instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	if m.totalCount, err = meter.Int64Counter(MetricRequests,
		metric.WithDescription("Total number of client requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.errorCount, err = meter.Int64Counter(MetricErrors,
		metric.WithDescription("Total number of failed client requests"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.durationHist, err = meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Client request duration in milliseconds, retries included"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.retryCount, err = meter.Int64Counter(MetricRetries,
		metric.WithDescription("Total number of retried attempts"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, err
	}

	if m.hitCount, err = meter.Int64Counter(MetricCacheHits,
		metric.WithDescription("Response cache hits"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}

	if m.missCount, err = meter.Int64Counter(MetricCacheMisses,
		metric.WithDescription("Response cache misses"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}

	if m.evictCount, err = meter.Int64Counter(MetricCacheEvictions,
		metric.WithDescription("Response cache entries removed by eviction sweeps"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func requestAttrs(meta RequestMeta, err error) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", meta.Method),
	}
	if host := meta.Host(); host != "" {
		attrs = append(attrs, attribute.String("server.address", host))
	}
	if code := statusOf(err); code != 0 {
		attrs = append(attrs, attribute.String("http.response.status_code", strconv.Itoa(code)))
	}
	return attrs
}

// RecordRequest records metrics for a client call.
func (m *metricsImpl) RecordRequest(ctx context.Context, meta RequestMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(requestAttrs(meta, err)...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordRetry(ctx context.Context, meta RequestMeta) {
	m.retryCount.Add(ctx, 1, metric.WithAttributes(requestAttrs(meta, nil)...))
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, hit bool) {
	if hit {
		m.hitCount.Add(ctx, 1)
		return
	}
	m.missCount.Add(ctx, 1)
}

func (m *metricsImpl) RecordEviction(ctx context.Context, removed int) {
	if removed > 0 {
		m.evictCount.Add(ctx, int64(removed))
	}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NoopMetrics returns a Metrics that records nothing.
func NoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordRequest(context.Context, RequestMeta, time.Duration, error) {}
func (noopMetrics) RecordRetry(context.Context, RequestMeta)                         {}
func (noopMetrics) RecordCacheLookup(context.Context, bool)                          {}
func (noopMetrics) RecordEviction(context.Context, int)                              {}
