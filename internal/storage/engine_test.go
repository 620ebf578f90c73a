package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/storage/outbox"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	cfg.Outbox.GCInterval = 0
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_New(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing data_dir")
	}

	e := newTestEngine(t)
	if e.Outbox() == nil {
		t.Error("outbox should be enabled by default")
	}
	if _, err := os.Stat(filepath.Join(e.cfg.DataDir, DefaultImagesDir)); err != nil {
		t.Errorf("images dir not created: %v", err)
	}
}

func TestEngine_WithoutOutbox(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.DisableOutbox = true
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if e.Outbox() != nil {
		t.Error("outbox should be disabled")
	}
	if err := e.Journal(context.Background(), &outbox.Record{ID: "x"}); err != nil {
		t.Errorf("Journal() without outbox = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Error(err)
	}
}

func TestEngine_Images(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	data := []byte("\x89PNG fake")

	path, err := e.SaveImage(ctx, "screenshot_1.png", data)
	if err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}
	if path != e.ImagePath("screenshot_1.png") {
		t.Errorf("path = %s", path)
	}
	got, err := e.LoadImage(ctx, "screenshot_1.png")
	if err != nil || !bytes.Equal(got, data) {
		t.Fatalf("LoadImage() = %q, %v", got, err)
	}

	for _, name := range []string{"", "../x.png", "a/b.png", ".hidden"} {
		if _, err := e.SaveImage(ctx, name, data); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("SaveImage(%q) error = %v", name, err)
		}
	}
	if _, err := e.LoadImage(ctx, "missing.png"); !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("LoadImage(missing) error = %v", err)
	}
}

func TestEngine_AppendAndSnapshot(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	pair := &domain.AnnotationPair{
		Cube: domain.CubeAnnotation{
			Screenshot: "screenshot_5.png", Timestamp: 5,
			Points:      []domain.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
			Description: "cube",
		},
		Center: domain.CenterPointAnnotation{
			Screenshot: "screenshot_5.png", Timestamp: 5,
			CenterPoint: domain.Point{X: 0.5, Y: 0.5}, Description: "center",
		},
	}
	appended, err := e.AppendPair(ctx, pair)
	if err != nil || len(appended) != 2 {
		t.Fatalf("AppendPair() = %v, %v", appended, err)
	}

	snap, err := e.Snapshot(ctx, domain.DatasetCenter)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(snap, []byte(`"center_point"`)) {
		t.Errorf("snapshot = %s", snap)
	}
}
