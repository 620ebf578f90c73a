// Package config defines the configuration of the collector and the
// upload sink.
//
//   - spec.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation
//   - sanitize.go: Log sanitization (hide the API keys)
//   - build.go: Conversion into component configurations
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
