package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/johnmalek312/android-ui-collector/internal/telemetry/metric"
)

// DefaultMaxBodyBytes bounds an upload request body.
const DefaultMaxBodyBytes = 64 << 20

// multipartMemory is the part of a form kept in memory; the rest spills
// to temp files.
const multipartMemory = 8 << 20

// Config configures a Handler.
type Config struct {
	Store        *Store
	MaxBodyBytes int64
	Metrics      *metric.Registry
	Logger       *slog.Logger
}

// Handler serves the sink endpoints.
type Handler struct {
	store   *Store
	maxBody int64
	metrics *metric.Registry
	logger  *slog.Logger
}

// New creates a Handler.
func New(cfg Config) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		store:   cfg.Store,
		maxBody: cfg.MaxBodyBytes,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Screenshot Annotation Upload Server is running",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, ErrorResponse{Detail: detail})
}
