// Package metric provides Prometheus metrics for the collector and the sink.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, metric helpers and HTTP handler
//   - collector.go: outbox collector reporting journal counts per status
//
// Metrics include:
//
//   - Commit outcomes and latency
//   - Dataset appends and upload attempts
//   - Capture results
//   - Sink request counters, latency and stored bytes
//
// The sink exposes them at /metrics.
package metric
