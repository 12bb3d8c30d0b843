package observe

import (
	"context"
	"time"
)

// ExecuteFunc is the signature of one instrumented client call.
type ExecuteFunc func(ctx context.Context, meta RequestMeta) ([]byte, error)

// Middleware wraps client calls with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger { return m.logger }

// Wrap wraps an ExecuteFunc with tracing, metrics, and logging.
// Successful calls log at debug level, failures at warn.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta RequestMeta) ([]byte, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordRequest(ctx, meta, duration, err)

		reqLogger := m.logger.WithRequest(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}

		if err != nil {
			if code := statusOf(err); code != 0 {
				fields = append(fields, Field{Key: "status", Value: code})
			}
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			reqLogger.Warn(ctx, "request failed", fields...)
		} else {
			fields = append(fields, Field{Key: "bytes", Value: len(result)})
			reqLogger.Debug(ctx, "request completed", fields...)
		}

		return result, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
