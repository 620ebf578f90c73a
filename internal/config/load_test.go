package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uicollector.yaml")
	content := `
storage:
  data_dir: /srv/data
upload:
  timeout: 5s
sink:
  addr: 0.0.0.0:9000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("UICOLLECTOR_UPLOAD_MAX_ATTEMPTS", "9")
	t.Setenv("UICOLLECTOR_SINK_ADDR", "127.0.0.1:7000")

	cfg, err := Load(path, map[string]any{"storage.data_dir": "/override"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.DataDir != "/override" {
		t.Errorf("DataDir = %q, want override", cfg.Storage.DataDir)
	}
	if cfg.Upload.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s from file", cfg.Upload.Timeout)
	}
	if cfg.Upload.MaxAttempts != 9 {
		t.Errorf("MaxAttempts = %d, want 9 from env", cfg.Upload.MaxAttempts)
	}
	if cfg.Sink.Addr != "127.0.0.1:7000" {
		t.Errorf("Sink.Addr = %q, env should beat the file", cfg.Sink.Addr)
	}
	if cfg.Session.MinZoom != DefaultMinZoom {
		t.Errorf("MinZoom = %v, want default", cfg.Session.MinZoom)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
