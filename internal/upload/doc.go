// Package upload sends committed annotations to the remote sink.
//
// Each request is a multipart form with three file parts: "image" (the
// screenshot), "annotations" (the full cube dataset) and "center_points"
// (the full center point dataset). Transient failures (transport errors,
// 408, 429, 5xx) are retried with capped exponential backoff; any other
// 4xx is a rejection and is not retried.
package upload
