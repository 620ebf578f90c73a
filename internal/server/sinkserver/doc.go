// Package sinkserver is the passive upload sink: it receives the
// screenshot and both datasets from the collector and stores each upload
// under a millisecond timestamp prefix.
//
// Routes:
//
//	GET  /         liveness message
//	POST /upload/  multipart upload (image, annotations, center_points)
//	GET  /health   status and uploads directory
//	GET  /metrics  Prometheus metrics
package sinkserver
