package cli

import (
	"context"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/jonwraymond/httpkit/observe"
)

// newLogger creates a new logger with timestamp formatting.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// charmLogger adapts a charmbracelet logger to observe.Logger. Request
// fields are passed on every call instead of through log.With: derived charm
// loggers get their own lock, and concurrent requests share one writer.
type charmLogger struct {
	l    *log.Logger
	base []any
}

// newObserveLogger wraps l so the client pipeline can log through it.
func newObserveLogger(l *log.Logger) observe.Logger {
	return charmLogger{l: l}
}

func (c charmLogger) Info(_ context.Context, msg string, fields ...observe.Field) {
	c.l.Info(msg, c.keyvals(fields)...)
}

func (c charmLogger) Warn(_ context.Context, msg string, fields ...observe.Field) {
	c.l.Warn(msg, c.keyvals(fields)...)
}

func (c charmLogger) Error(_ context.Context, msg string, fields ...observe.Field) {
	c.l.Error(msg, c.keyvals(fields)...)
}

func (c charmLogger) Debug(_ context.Context, msg string, fields ...observe.Field) {
	c.l.Debug(msg, c.keyvals(fields)...)
}

func (c charmLogger) WithRequest(meta observe.RequestMeta) observe.Logger {
	base := slices.Clone(c.base)
	base = append(base, "method", meta.Method, "url", meta.Route())
	if meta.ID != "" {
		base = append(base, "request_id", meta.ID)
	}
	return charmLogger{l: c.l, base: base}
}

// keyvals prepends the request fields and flattens fields into alternating
// key/value pairs, redacting sensitive keys.
func (c charmLogger) keyvals(fields []observe.Field) []any {
	kv := make([]any, 0, len(c.base)+len(fields)*2)
	kv = append(kv, c.base...)
	for _, f := range fields {
		if slices.Contains(observe.RedactedFields, f.Key) {
			kv = append(kv, f.Key, "[REDACTED]")
			continue
		}
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

var _ observe.Logger = charmLogger{}
