package sinkserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johnmalek312/android-ui-collector/internal/server/sinkserver/handler"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/logger"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/metric"
)

type part struct {
	field, filename string
	data            []byte
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write(p.data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func validParts() []part {
	return []part{
		{handler.PartImage, "screenshot_1700000000.png", []byte("\x89PNG fake")},
		{handler.PartAnnotations, "cube_annotations.json", []byte(`[{"description":"Button A"}]`)},
		{handler.PartCenterPoints, "center_points.json", []byte(`[{"description":"Center A"}]`)},
	}
}

func newTestRouter(t *testing.T, mutate func(*RouterConfig)) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := handler.NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	cfg := &RouterConfig{
		Store:   store,
		Metrics: metric.NewRegistry(),
		Logger:  logger.Discard(),
	}
	if mutate != nil {
		mutate(cfg)
	}
	return NewRouter(cfg), dir
}

func TestRouter_Root(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["message"] != "Screenshot Annotation Upload Server is running" {
		t.Errorf("message = %q", body["message"])
	}
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Error("missing request id header")
	}
}

func TestRouter_Health(t *testing.T) {
	r, dir := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body handler.HealthResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.Status != "healthy" || body.UploadsDir != dir {
		t.Errorf("body = %+v", body)
	}
}

func TestRouter_Upload(t *testing.T) {
	r, dir := newTestRouter(t, nil)

	body, ctype := multipartBody(t, validParts()...)
	req := httptest.NewRequest(http.MethodPost, "/upload/", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp handler.UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Files uploaded successfully" {
		t.Errorf("message = %q", resp.Message)
	}

	want := map[string]string{
		handler.PartImage:        resp.Timestamp + "_screenshot.png",
		handler.PartAnnotations:  resp.Timestamp + "_annotations.json",
		handler.PartCenterPoints: resp.Timestamp + "_center_points.json",
	}
	for key, name := range want {
		if got := resp.Files[key]; got != filepath.Join(dir, name) {
			t.Errorf("files[%s] = %q, want %q", key, got, filepath.Join(dir, name))
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("stored file %s: %v", name, err)
		}
	}

	data, _ := os.ReadFile(filepath.Join(dir, want[handler.PartAnnotations]))
	if string(data) != `[{"description":"Button A"}]` {
		t.Errorf("annotations content = %s", data)
	}
}

func TestRouter_UploadRejections(t *testing.T) {
	valid := validParts()

	tests := []struct {
		name       string
		parts      []part
		wantStatus int
		wantDetail string
	}{
		{
			name:       "bad image extension",
			parts:      []part{{handler.PartImage, "shot.gif", []byte("GIF")}, valid[1], valid[2]},
			wantStatus: http.StatusBadRequest,
			wantDetail: "Image file must be PNG, JPG, or JPEG",
		},
		{
			name:       "bad annotations extension",
			parts:      []part{valid[0], {handler.PartAnnotations, "a.txt", []byte("[]")}, valid[2]},
			wantStatus: http.StatusBadRequest,
			wantDetail: "Annotations file must be JSON",
		},
		{
			name:       "bad center extension",
			parts:      []part{valid[0], valid[1], {handler.PartCenterPoints, "c.csv", []byte("[]")}},
			wantStatus: http.StatusBadRequest,
			wantDetail: "Center points file must be JSON",
		},
		{
			name:       "invalid json",
			parts:      []part{valid[0], {handler.PartAnnotations, "a.json", []byte("{nope")}, valid[2]},
			wantStatus: http.StatusBadRequest,
			wantDetail: "File part annotations is not valid JSON",
		},
		{
			name:       "missing part",
			parts:      []part{valid[0], valid[1]},
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "Missing file part: center_points",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, dir := newTestRouter(t, nil)
			body, ctype := multipartBody(t, tt.parts...)
			req := httptest.NewRequest(http.MethodPost, "/upload/", body)
			req.Header.Set("Content-Type", ctype)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := decodeDetail(t, rec); got != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got, tt.wantDetail)
			}
			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("rejected upload left %d files", len(entries))
			}
		})
	}
}

func TestRouter_UploadNotMultipart(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRouter_UploadTooLarge(t *testing.T) {
	r, _ := newTestRouter(t, func(c *RouterConfig) { c.MaxBodyBytes = 64 })

	body, ctype := multipartBody(t, validParts()...)
	req := httptest.NewRequest(http.MethodPost, "/upload/", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestRouter_UploadRequiresAPIKey(t *testing.T) {
	r, _ := newTestRouter(t, func(c *RouterConfig) { c.APIKey = "sink-secret" })

	send := func(key string) int {
		body, ctype := multipartBody(t, validParts()...)
		req := httptest.NewRequest(http.MethodPost, "/upload/", body)
		req.Header.Set("Content-Type", ctype)
		if key != "" {
			req.Header.Set(HeaderAPIKey, key)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := send(""); got != http.StatusUnauthorized {
		t.Errorf("without key status = %d, want 401", got)
	}
	if got := send("sink-secret"); got != http.StatusOK {
		t.Errorf("with key status = %d, want 200", got)
	}
}

func TestRouter_UploadRateLimited(t *testing.T) {
	r, _ := newTestRouter(t, func(c *RouterConfig) { c.Limiter = NewClientLimiter(0.001, 1) })

	codes := make([]int, 2)
	for i := range codes {
		body, ctype := multipartBody(t, validParts()...)
		req := httptest.NewRequest(http.MethodPost, "/upload/", body)
		req.Header.Set("Content-Type", ctype)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	body, ctype := multipartBody(t, validParts()...)
	req := httptest.NewRequest(http.MethodPost, "/upload/", body)
	req.Header.Set("Content-Type", ctype)
	r.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(out), "uicollector_") {
		t.Error("metrics output missing uicollector namespace")
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
