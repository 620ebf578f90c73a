// Package main provides the entry point for uicollector-sink.
//
// The sink is the HTTP receiver for annotation uploads:
//
//   - POST /upload/ stores the screenshot and both datasets
//   - GET /health checks that the uploads directory is writable
//   - GET /metrics exposes Prometheus metrics
//
// Usage:
//
//	uicollector-sink [flags]
//	uicollector-sink -config /path/to/config.yaml -addr 0.0.0.0:8000
package main
