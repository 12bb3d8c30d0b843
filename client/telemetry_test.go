package client

import (
	"context"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/httpkit/observe"
)

// recordingObserver exposes in-memory tracer and meter providers.
type recordingObserver struct {
	tracer trace.Tracer
	meter  metric.Meter
}

func (o *recordingObserver) Tracer() trace.Tracer           { return o.tracer }
func (o *recordingObserver) Meter() metric.Meter            { return o.meter }
func (o *recordingObserver) Logger() observe.Logger         { return observe.NoopLogger() }
func (o *recordingObserver) Shutdown(context.Context) error { return nil }

func counterTotal(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: unexpected data %T", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestTelemetry_SpansAndMetrics(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	obs := &recordingObserver{tracer: tp.Tracer("test"), meter: mp.Meter("test")}
	c := mustNew(t,
		WithObserver(obs),
		WithTransport(failingDoer(1, testPost)),
		WithRetry(2, 0),
		WithSleep((&recordingSleep{}).sleep),
		WithCache(0, 1),
	)
	ctx := context.Background()

	Fetch[post](ctx, c, "https://api.example.com/posts/1", nil)
	Fetch[post](ctx, c, "https://api.example.com/posts/1", nil)
	Fetch[post](ctx, c, "https://api.example.com/posts/2", nil)

	ended := spans.Ended()
	if len(ended) != 3 {
		t.Fatalf("spans = %d, want one per call", len(ended))
	}
	for _, s := range ended {
		if s.Name() != "http.client."+http.MethodGet {
			t.Errorf("span name = %q", s.Name())
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	want := map[string]int64{
		observe.MetricRequests:       3,
		observe.MetricRetries:        1,
		observe.MetricCacheHits:      1,
		observe.MetricCacheMisses:    2,
		observe.MetricCacheEvictions: 1,
	}
	for name, n := range want {
		if got := counterTotal(t, rm, name); got != n {
			t.Errorf("%s = %d, want %d", name, got, n)
		}
	}
}
