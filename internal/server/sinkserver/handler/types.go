package handler

// Multipart part names.
const (
	PartImage        = "image"
	PartAnnotations  = "annotations"
	PartCenterPoints = "center_points"
)

// UploadResponse is the body returned by POST /upload/.
type UploadResponse struct {
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
	Files     map[string]string `json:"files"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	UploadsDir string `json:"uploads_dir"`
	Error      string `json:"error,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
