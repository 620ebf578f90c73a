package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/johnmalek312/android-ui-collector/internal/capture"
	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/core/service"
	"github.com/johnmalek312/android-ui-collector/internal/core/session"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/logger"
)

type fakeSource struct{}

func (fakeSource) Capture(ctx context.Context) (*capture.Frame, error) {
	return &capture.Frame{Data: []byte("png"), Format: capture.FormatPNG, Width: 1000, Height: 1000}, nil
}

type fakePipeline struct {
	mu   sync.Mutex
	reqs []*domain.CommitRequest
}

func (p *fakePipeline) Submit(ctx context.Context, req *domain.CommitRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
	return nil
}

type fakeRetrier struct {
	summary *service.RetrySummary
	err     error
}

func (f *fakeRetrier) RetryPending(ctx context.Context) (*service.RetrySummary, error) {
	return f.summary, f.err
}

func newTestREPL(t *testing.T, input string, uploads UploadRetrier) (*REPL, *fakePipeline, *bytes.Buffer) {
	t.Helper()
	p := &fakePipeline{}
	clock := time.Unix(1_700_000_000, 0)
	sess := session.New(p, session.Config{Now: func() time.Time { return clock }, Logger: logger.Discard()})
	out := &bytes.Buffer{}
	r := New(Config{
		Session: sess,
		Source:  fakeSource{},
		Uploads: uploads,
		Input:   strings.NewReader(input),
		Output:  out,
		Logger:  logger.Discard(),
	})
	return r, p, out
}

func TestREPL_FullCycle(t *testing.T) {
	script := strings.Join([]string{
		"capture",
		"click 100 100",
		"click 500 100",
		"click 500 500",
		"click 100 500",
		"desc Button A",
		"confirm",
		"desc Center A",
		"quit",
		"capture",
	}, "\n")

	r, p, out := newTestREPL(t, script, nil)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(p.reqs) != 1 {
		t.Fatalf("submitted %d commits, want 1\n%s", len(p.reqs), out.String())
	}
	pair := p.reqs[0].Pair
	if pair.Cube.Description != "Button A" || pair.Center.Description != "Center A" {
		t.Errorf("pair = %+v", pair)
	}
	if pair.Center.CenterPoint != (domain.Point{X: 0.3, Y: 0.3}) {
		t.Errorf("center = %v", pair.Center.CenterPoint)
	}
	if r.sess.State() != session.StateCommitting {
		t.Errorf("state = %s, want committing", r.sess.State())
	}
	if !strings.Contains(out.String(), "commit "+p.reqs[0].ID+" submitted") {
		t.Errorf("output missing submit line:\n%s", out.String())
	}
}

func TestREPL_DuplicateDescriptionNeedsConfirm(t *testing.T) {
	r, p, out := newTestREPL(t, "", nil)
	ctx := context.Background()

	run := func(lines ...string) {
		t.Helper()
		for _, l := range lines {
			if err := r.Execute(ctx, l); err != nil {
				t.Fatalf("Execute(%q) error = %v", l, err)
			}
		}
	}
	square := []string{"click 100 100", "click 500 100", "click 500 500", "click 100 500"}

	run("capture")
	run(square...)
	run("desc Button A", "confirm", "desc Center A")
	r.sess.HandleResult(&domain.CommitResult{ID: p.reqs[0].ID, Status: domain.CommitSuccess, Appended: []string{"a", "b"}})

	run("again")
	run(square...)
	run("desc Button A")
	if got := r.sess.State(); got != session.StateCubeDescriptionPending {
		t.Fatalf("state after duplicate = %s", got)
	}
	if !strings.Contains(out.String(), "type confirm to keep it") {
		t.Errorf("missing duplicate warning:\n%s", out.String())
	}
	run("confirm")
	if got := r.sess.State(); got != session.StateCenterPending {
		t.Errorf("state after confirm = %s, want center_pending", got)
	}
}

func TestREPL_ExecuteErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr string
	}{
		{"unknown with suggestion", "captur", `did you mean "capture"`},
		{"unknown", "xyz", "type help"},
		{"wrong arity", "click 1", "usage: click X Y"},
		{"extra args", "undo 3", "usage: undo"},
		{"bad number", "click a b", `invalid number "a"`},
		{"bad zoom", "zoom sideways", "usage: zoom"},
		{"click while idle", "click 1 1", "placement rejected"},
		{"retry uploads disabled", "retry uploads", "upload disabled"},
		{"desc while idle", "desc hello", "no description expected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestREPL(t, "", nil)
			err := r.Execute(context.Background(), tt.line)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute(%q) error = %v, want containing %q", tt.line, err, tt.wantErr)
			}
		})
	}
}

func TestREPL_UndoRedoAndCancel(t *testing.T) {
	r, _, out := newTestREPL(t, "", nil)
	ctx := context.Background()
	for _, l := range []string{"capture", "click 100 100", "click 200 200", "undo", "redo", "delete 0", "cancel"} {
		if err := r.Execute(ctx, l); err != nil {
			t.Fatalf("Execute(%q) error = %v", l, err)
		}
	}
	if r.sess.State() != session.StateIdle {
		t.Errorf("state = %s, want idle", r.sess.State())
	}
	for _, want := range []string{"undid add[1]", "redid add[1]", "draft discarded"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestREPL_RetryUploads(t *testing.T) {
	retrier := &fakeRetrier{summary: &service.RetrySummary{Attempted: 2, Uploaded: 1, Failed: 1}, err: domain.ErrUploadTransient}
	r, _, out := newTestREPL(t, "", retrier)

	err := r.Execute(context.Background(), "retry uploads")
	if !errors.Is(err, domain.ErrUploadTransient) {
		t.Errorf("error = %v, want ErrUploadTransient", err)
	}
	if !strings.Contains(out.String(), "attempted") {
		t.Errorf("summary not printed:\n%s", out.String())
	}
}

func TestREPL_Status(t *testing.T) {
	r, _, out := newTestREPL(t, "", nil)
	if err := r.Execute(context.Background(), "capture"); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := r.Execute(context.Background(), "status"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "placing_cube_point[0]") {
		t.Errorf("status output:\n%s", out.String())
	}
}

func TestREPL_Notify(t *testing.T) {
	tests := []struct {
		res  *domain.CommitResult
		want string
	}{
		{&domain.CommitResult{ID: "uccm-1", Status: domain.CommitSuccess}, "saved and uploaded"},
		{&domain.CommitResult{ID: "uccm-2", Status: domain.CommitLocalOnly}, "upload pending: upload disabled"},
		{&domain.CommitResult{ID: "uccm-3", Status: domain.CommitPartial, Appended: []string{"cube_annotations"}, Err: domain.ErrPartialCommit}, "partially saved (cube_annotations)"},
		{&domain.CommitResult{ID: "uccm-4", Status: domain.CommitFailed, Err: domain.ErrPersistence}, "draft kept for retry"},
		{&domain.CommitResult{ID: "uccm-5", Status: domain.CommitLocalOnly, Err: domain.ErrUploadTransient}, "hint: data is saved locally"},
	}
	for _, tt := range tests {
		r, _, out := newTestREPL(t, "", nil)
		r.Notify(tt.res)
		if !strings.Contains(out.String(), tt.want) {
			t.Errorf("Notify(%s) = %q, want %q", tt.res.Status, out.String(), tt.want)
		}
	}
}

func TestREPL_RunEndsAtEOF(t *testing.T) {
	r, _, out := newTestREPL(t, "\n\nhelp\n", nil)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "drag X1 Y1 X2 Y2") {
		t.Errorf("help output missing:\n%s", out.String())
	}
}
