package handler

import "net/http"

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Check(); err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:     "unhealthy",
			UploadsDir: h.store.Dir(),
			Error:      err.Error(),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "healthy",
		UploadsDir: h.store.Dir(),
	})
}
