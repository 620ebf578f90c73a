// Package logger configures structured logging on top of log/slog.
//
//   - logger.go: handler construction and the dynamic level
//   - context.go: context-scoped loggers and request IDs
//   - redact.go: sensitive data redaction
//
// Attributes whose key looks sensitive (api_key, secret, token...) are
// replaced before they reach the output, and registered secrets such as
// the configured API keys are masked wherever they appear in a string
// value.
package logger
