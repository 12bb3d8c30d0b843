package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/jonwraymond/httpkit/observe"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	logger.Info("test message")
	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestObserveLogger_Levels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(observe.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l observe.Logger) { l.Info(context.Background(), "m") }, true},
		{"debug at info level", log.InfoLevel, func(l observe.Logger) { l.Debug(context.Background(), "m") }, false},
		{"debug at debug level", log.DebugLevel, func(l observe.Logger) { l.Debug(context.Background(), "m") }, true},
		{"warn at info level", log.InfoLevel, func(l observe.Logger) { l.Warn(context.Background(), "m") }, true},
		{"error at info level", log.InfoLevel, func(l observe.Logger) { l.Error(context.Background(), "m") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newObserveLogger(newLogger(&buf, tt.level)))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v (output %q)", got, tt.wantLog, buf.String())
			}
		})
	}
}

func TestObserveLogger_FieldsAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := newObserveLogger(newLogger(&buf, log.DebugLevel))

	l.Debug(context.Background(), "cache cleanup",
		observe.Field{Key: "removed", Value: 3},
		observe.Field{Key: "Authorization", Value: "Bearer secret"},
	)

	out := buf.String()
	if !strings.Contains(out, "cache cleanup") || !strings.Contains(out, "removed=3") {
		t.Errorf("missing message or field: %q", out)
	}
	if strings.Contains(out, "secret") || !strings.Contains(out, "[REDACTED]") {
		t.Errorf("Authorization not redacted: %q", out)
	}
}

func TestObserveLogger_WithRequest(t *testing.T) {
	var buf bytes.Buffer
	l := newObserveLogger(newLogger(&buf, log.InfoLevel))

	meta := observe.RequestMeta{ID: "abc", Method: "GET", URL: "https://api.example.com/posts?page=2"}
	l.WithRequest(meta).Info(context.Background(), "request failed")

	out := buf.String()
	for _, want := range []string{"method=GET", "url=https://api.example.com/posts", "request_id=abc"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "page=2") {
		t.Errorf("query string leaked into log: %q", out)
	}
}

func TestObserveLogger_WithRequestKeepsParentClean(t *testing.T) {
	var buf bytes.Buffer
	parent := newObserveLogger(newLogger(&buf, log.InfoLevel))

	_ = parent.WithRequest(observe.RequestMeta{ID: "child", Method: "GET", URL: "https://a.example/x"})
	parent.Info(context.Background(), "plain")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("parent picked up request fields: %q", buf.String())
	}
}

func TestObserveLogger_ConcurrentRequestLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := newObserveLogger(newLogger(&buf, log.InfoLevel))

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			meta := observe.RequestMeta{Method: "GET", URL: "https://a.example/x"}
			l.WithRequest(meta).Warn(context.Background(), "request failed", observe.Field{Key: "n", Value: i})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != n {
		t.Fatalf("lines = %d, want %d", len(lines), n)
	}
	for _, line := range lines {
		if !strings.Contains(line, "request failed") || !strings.Contains(line, "method=GET") {
			t.Errorf("interleaved line %q", line)
		}
	}
}
