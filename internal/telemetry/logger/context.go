package logger

import (
	"context"
	"log/slog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
	commitKey
)

// commitRef correlates log lines of one commit across the pipeline.
type commitRef struct {
	id         string
	screenshot string
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns slog.Default() if none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// WithRequestID adds a sink request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCommit tags the context with the commit being processed.
func WithCommit(ctx context.Context, commitID, screenshot string) context.Context {
	return context.WithValue(ctx, commitKey, commitRef{id: commitID, screenshot: screenshot})
}

// CommitFromContext returns the commit ID and screenshot set by WithCommit.
func CommitFromContext(ctx context.Context) (commitID, screenshot string) {
	ref, _ := ctx.Value(commitKey).(commitRef)
	return ref.id, ref.screenshot
}

// Enrich adds the correlation attributes carried by ctx to l.
func Enrich(ctx context.Context, l *slog.Logger) *slog.Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		l = l.With("request_id", id)
	}
	if id, shot := CommitFromContext(ctx); id != "" {
		l = l.With("commit_id", id)
		if shot != "" {
			l = l.With("screenshot", shot)
		}
	}
	return l
}

// L returns the context logger enriched with its correlation attributes.
func L(ctx context.Context) *slog.Logger {
	return Enrich(ctx, FromContext(ctx))
}
