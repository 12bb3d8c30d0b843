// Package observe provides observability primitives for outgoing HTTP requests.
//
// It is a pure instrumentation library: no transport and no I/O beyond
// exporter setup. The client package wires an Observer into its request
// pipeline; the Observer hands out an OpenTelemetry tracer and meter plus a
// structured JSON logger.
package observe
