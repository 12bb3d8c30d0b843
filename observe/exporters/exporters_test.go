package exporters

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func env(values map[string]string) Option {
	return WithGetenv(func(k string) string { return values[k] })
}

func TestTracingExporter_InvalidName(t *testing.T) {
	_, err := NewTracingExporter(context.Background(), "invalid")
	if !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("expected ErrUnknownExporter, got: %v", err)
	}
}

func TestTracingExporter_Stdout(t *testing.T) {
	var buf bytes.Buffer
	exp, err := NewTracingExporter(context.Background(), "stdout", WithWriter(&buf))
	if err != nil {
		t.Fatalf("failed to create stdout tracing exporter: %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
}

func TestTracingExporter_Endpoints(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		env     map[string]string
		wantErr error
	}{
		{"otlp missing", "otlp", nil, ErrEndpointNotConfigured},
		{"otlp generic endpoint", "otlp", map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "http://localhost:4317"}, nil},
		{"otlp traces endpoint", "otlp", map[string]string{"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT": "http://localhost:4317"}, nil},
		{"jaeger missing", "jaeger", nil, ErrEndpointNotConfigured},
		{"jaeger endpoint", "jaeger", map[string]string{"OTEL_EXPORTER_JAEGER_ENDPOINT": "localhost:4317"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := NewTracingExporter(context.Background(), tt.kind, env(tt.env))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if exp == nil {
				t.Fatal("expected non-nil exporter")
			}
		})
	}
}

func TestTracingExporter_None(t *testing.T) {
	for _, name := range []string{"none", ""} {
		if _, err := NewTracingExporter(context.Background(), name); err != nil {
			t.Errorf("NewTracingExporter(%q) error = %v", name, err)
		}
	}
}

func TestMetricsReader_Stdout(t *testing.T) {
	var buf bytes.Buffer
	reader, err := NewMetricsReader(context.Background(), "stdout", WithWriter(&buf))
	if err != nil {
		t.Fatalf("failed to create stdout metrics reader: %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
}

func TestMetricsReader_OtlpMissingEndpoint(t *testing.T) {
	_, err := NewMetricsReader(context.Background(), "otlp", env(nil))
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("expected ErrEndpointNotConfigured, got: %v", err)
	}
}

func TestMetricsReader_Prometheus(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "prometheus")
	if err != nil {
		t.Fatalf("failed to create Prometheus reader: %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
}

func TestMetricsReader_None(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "none")
	if err != nil {
		t.Fatalf("failed to create none metrics reader: %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
}

func TestMetricsReader_InvalidName(t *testing.T) {
	_, err := NewMetricsReader(context.Background(), "badvalue")
	if !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("expected ErrUnknownExporter, got: %v", err)
	}
}
