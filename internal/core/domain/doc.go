// Package domain defines the core domain models for the collector.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Point: normalized image coordinate and centroid helper
//   - CubeAnnotation / CenterPointAnnotation: the two dataset entry types
//   - IDs: ULID-based draft and commit identifiers
//   - Errors: domain error codes shared by every layer
package domain
