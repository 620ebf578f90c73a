package sinkserver

import (
	"log/slog"
	"net/http"

	"github.com/johnmalek312/android-ui-collector/internal/server/sinkserver/handler"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/metric"
)

// RouterConfig holds configuration for the sink router.
type RouterConfig struct {
	// Store receives accepted uploads. Required.
	Store *handler.Store

	// Metrics records request metrics and serves /metrics when set.
	Metrics *metric.Registry

	Logger *slog.Logger

	// APIKey, when set, is required on POST /upload/.
	APIKey string

	// Limiter throttles uploads per client IP. Nil disables throttling.
	Limiter *ClientLimiter

	MaxBodyBytes int64
}

// NewRouter builds the sink routes:
//
//	GET  /         liveness banner
//	POST /upload/  screenshot plus both datasets
//	GET  /health   uploads directory check
//	GET  /metrics  Prometheus exposition
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(handler.Config{
		Store:        cfg.Store,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Metrics:      cfg.Metrics,
		Logger:       log,
	})

	common := func(route string, extra ...Middleware) []Middleware {
		mws := []Middleware{
			RequestID(),
			ContextLogger(log),
			AccessLog(log, cfg.Metrics, route),
			Recover(log),
		}
		return append(mws, extra...)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", Chain(http.HandlerFunc(h.Root), common("/")...))
	mux.Handle("GET /health", Chain(http.HandlerFunc(h.Health), common("/health")...))

	var uploadMW []Middleware
	if cfg.Limiter != nil {
		uploadMW = append(uploadMW, RateLimit(cfg.Limiter, cfg.Metrics))
	}
	uploadMW = append(uploadMW, APIKey(cfg.APIKey))
	mux.Handle("POST /upload/{$}", Chain(http.HandlerFunc(h.Upload), common("/upload/", uploadMW...)...))

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}
	return mux
}
