// Package buildinfo exposes build information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//
// Usage:
//
//	go build -ldflags "-X github.com/johnmalek312/android-ui-collector/internal/infra/buildinfo.Version=v1.0.0"
//
// Commit falls back to the VCS revision recorded by the Go toolchain.
package buildinfo
