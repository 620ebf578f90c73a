package metric

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/johnmalek312/android-ui-collector/internal/storage/outbox"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.registry == nil {
		t.Fatal("registry field is nil")
	}
	if r.CommitsTotal == nil || r.RequestsTotal == nil || r.RequestDuration == nil {
		t.Error("metrics not initialized")
	}
}

func TestGlobal(t *testing.T) {
	if Global() != Global() {
		t.Error("Global() should return the same instance")
	}
}

func TestHandler(t *testing.T) {
	body := scrape(t, Handler())

	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	if !strings.Contains(body, "process_") {
		t.Error("expected process metrics")
	}
}

func TestCommitMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordCommit("success", 0.2)
	r.RecordCommit("success", 0.3)
	r.RecordCommit("local_only", 1.0)
	r.RecordAppend("cube_annotations", true)
	r.RecordAppend("center_points", false)
	r.RecordUpload("transient", 2.5)
	r.RecordCapture("ok")
	r.SetQueueDepth(3)

	body := scrape(t, r.Handler())
	for _, want := range []string{
		`uicollector_commits_total{status="success"} 2`,
		`uicollector_commits_total{status="local_only"} 1`,
		`uicollector_commit_duration_seconds_count 3`,
		`uicollector_dataset_appends_total{dataset="cube_annotations",result="ok"} 1`,
		`uicollector_dataset_appends_total{dataset="center_points",result="error"} 1`,
		`uicollector_uploads_total{result="transient"} 1`,
		`uicollector_upload_duration_seconds_count 1`,
		`uicollector_captures_total{result="ok"} 1`,
		`uicollector_commit_queue_depth 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
}

func TestSinkMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordRequest("POST", "/upload/", "200", 0.01)
	r.RecordRequest("GET", "/health", "200", 0.001)
	r.AddStoredBytes(1024)
	r.AddStoredBytes(2048)
	r.IncRateLimited()

	body := scrape(t, r.Handler())
	for _, want := range []string{
		`uicollector_sink_requests_total{method="POST",path="/upload/",status="200"} 1`,
		`uicollector_sink_request_duration_seconds_count{method="GET",path="/health"} 1`,
		`uicollector_sink_stored_bytes_total 3072`,
		`uicollector_sink_rate_limited_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
}

type fakeOutbox struct {
	counts map[outbox.Status]int
	err    error
}

func (f *fakeOutbox) Counts(ctx context.Context) (map[outbox.Status]int, error) {
	return f.counts, f.err
}

func TestOutboxCollector(t *testing.T) {
	r := NewRegistry()
	src := &fakeOutbox{counts: map[outbox.Status]int{outbox.StatusPending: 2, outbox.StatusUploaded: 5}}
	if err := r.Register(NewOutboxCollector(src)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	body := scrape(t, r.Handler())
	if !strings.Contains(body, `uicollector_outbox_records{status="pending"} 2`) {
		t.Error("expected pending count")
	}
	if !strings.Contains(body, `uicollector_outbox_records{status="uploaded"} 5`) {
		t.Error("expected uploaded count")
	}
}

func TestOutboxCollector_Error(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewOutboxCollector(&fakeOutbox{err: errors.New("closed")})); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 on collector error", rec.Code)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordCommit("success", 0.001)
				r.RecordRequest("POST", "/upload/", "200", 0.001)
				r.AddStoredBytes(1)
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	body := scrape(t, r.Handler())
	if !strings.Contains(body, `uicollector_commits_total{status="success"} 1000`) {
		t.Error("expected 1000 commits")
	}
}
