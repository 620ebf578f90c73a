package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/johnmalek312/android-ui-collector/internal/telemetry/logger"
)

var (
	imageExts = []string{".png", ".jpg", ".jpeg"}
	jsonExts  = []string{".json"}
)

// uploadPart describes one expected multipart file.
type uploadPart struct {
	name    string
	exts    []string
	invalid string
	isJSON  bool
}

var uploadParts = []uploadPart{
	{PartImage, imageExts, "Image file must be PNG, JPG, or JPEG", false},
	{PartAnnotations, jsonExts, "Annotations file must be JSON", true},
	{PartCenterPoints, jsonExts, "Center points file must be JSON", true},
}

// Upload handles POST /upload/.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.L(r.Context())

	if r.ContentLength > h.maxBody {
		h.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", h.maxBody))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", h.maxBody))
			return
		}
		h.writeError(w, http.StatusBadRequest, "Request must be multipart/form-data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := make([]File, len(uploadParts))
	for i, part := range uploadParts {
		f, status, detail := readPart(r.MultipartForm, part)
		if status != 0 {
			log.Warn("upload rejected", "part", part.name, "detail", detail)
			h.writeError(w, status, detail)
			return
		}
		files[i] = f
	}

	stored, err := h.store.Save(r.Context(), &Upload{
		Image:        files[0],
		Annotations:  files[1],
		CenterPoints: files[2],
	})
	if err != nil {
		log.Error("upload failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Upload failed: "+err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.AddStoredBytes(stored.Bytes)
	}

	log.Info("upload stored", "timestamp", stored.Timestamp, "bytes", stored.Bytes)
	h.writeJSON(w, http.StatusOK, UploadResponse{
		Message:   "Files uploaded successfully",
		Timestamp: stored.Timestamp,
		Files:     stored.Paths,
	})
}

// readPart returns the part contents, or a non-zero status and detail.
func readPart(form *multipart.Form, part uploadPart) (File, int, string) {
	headers := form.File[part.name]
	if len(headers) == 0 {
		return File{}, http.StatusUnprocessableEntity, "Missing file part: " + part.name
	}
	fh := headers[0]

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !hasExt(ext, part.exts) {
		return File{}, http.StatusBadRequest, part.invalid
	}

	f, err := fh.Open()
	if err != nil {
		return File{}, http.StatusBadRequest, "Cannot read file part: " + part.name
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return File{}, http.StatusBadRequest, "Cannot read file part: " + part.name
	}
	if part.isJSON && !json.Valid(data) {
		return File{}, http.StatusBadRequest, fmt.Sprintf("File part %s is not valid JSON", part.name)
	}
	return File{Ext: ext, Data: data}, 0, ""
}

func hasExt(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
