package config

import (
	"strings"
	"testing"
	"time"

	"github.com/johnmalek312/android-ui-collector/internal/capture"
	"github.com/johnmalek312/android-ui-collector/internal/infra/confloader"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
	if err := VerifySink(cfg); err != nil {
		t.Errorf("VerifySink(Default()) error = %v", err)
	}
	if cfg.Storage.CubeName != "cube_annotations" || cfg.Storage.CenterName != "center_points" {
		t.Errorf("dataset names = %q, %q", cfg.Storage.CubeName, cfg.Storage.CenterName)
	}
	if cfg.Upload.Path != "/upload/" {
		t.Errorf("Upload.Path = %q", cfg.Upload.Path)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zoom step", func(c *Config) { c.Session.ZoomStep = 1 }, "session.zoom_step"},
		{"zoom bounds", func(c *Config) { c.Session.MaxZoom = 0.1 }, "session.max_zoom"},
		{"queue", func(c *Config) { c.Session.QueueSize = 0 }, "session.queue_size"},
		{"data dir", func(c *Config) { c.Storage.DataDir = "" }, "storage.data_dir"},
		{"dataset path", func(c *Config) { c.Storage.CubeName = "a/b" }, "storage.cube_name"},
		{"same datasets", func(c *Config) { c.Storage.CenterName = c.Storage.CubeName }, "must differ"},
		{"endpoint", func(c *Config) { c.Upload.Endpoint = "localhost:8000" }, "upload.endpoint"},
		{"scheme", func(c *Config) { c.Upload.Endpoint = "ftp://host" }, "scheme"},
		{"attempts", func(c *Config) { c.Upload.MaxAttempts = 0 }, "upload.max_attempts"},
		{"backoff", func(c *Config) { c.Upload.BackoffMax = time.Millisecond }, "upload.backoff_max"},
		{"capture source", func(c *Config) { c.Capture.Source = "usb" }, "capture.source"},
		{"capture file", func(c *Config) { c.Capture.Source = CaptureFile }, "capture.file"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_UploadDisabledSkipsEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Upload.Enabled = false
	cfg.Upload.Endpoint = ""
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Storage.DataDir = ""
	cfg.Log.Level = "loud"
	err := Verify(cfg)
	if err == nil {
		t.Fatal("Verify() should fail")
	}
	for _, want := range []string{"storage.data_dir", "log.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestVerifySink(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"addr", func(c *Config) { c.Sink.Addr = "8000" }},
		{"uploads dir", func(c *Config) { c.Sink.UploadsDir = "" }},
		{"burst", func(c *Config) { c.Sink.RateBurst = 0 }},
		{"body", func(c *Config) { c.Sink.MaxBodyBytes = 0 }},
		{"cert without key", func(c *Config) { c.Sink.TLSCertFile = "sink.crt" }},
		{"key without cert", func(c *Config) { c.Sink.TLSKeyFile = "sink.key" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := VerifySink(cfg); err == nil {
				t.Error("VerifySink() should fail")
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Upload.APIKey = "super-secret-key-1234567890"
	cfg.Sink.APIKey = "abc"

	sanitized := Sanitize(cfg)

	if cfg.Upload.APIKey != "super-secret-key-1234567890" {
		t.Error("Original config should not be modified")
	}
	if sanitized.Upload.APIKey != "su***********************90" {
		t.Errorf("Upload.APIKey = %q", sanitized.Upload.APIKey)
	}
	if sanitized.Sink.APIKey != "****" {
		t.Errorf("Sink.APIKey = %q", sanitized.Sink.APIKey)
	}
	if Sanitize(Default()).Upload.APIKey != "" {
		t.Error("Empty key should remain empty")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a", "****"},
		{"abcd", "****"},
		{"abcde", "ab*de"},
		{"1234567890", "12******90"},
	}

	for _, tt := range tests {
		if got := maskSecret(tt.input); got != tt.expected {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLoadThroughConfloader(t *testing.T) {
	t.Setenv("UICOLLECTOR_UPLOAD_API_KEY", "k-123456")
	t.Setenv("UICOLLECTOR_STORAGE_OUTBOX_ENABLED", "false")
	t.Setenv("UICOLLECTOR_SINK_RATE_LIMIT", "2.5")

	cfg := Default()
	l := confloader.NewLoader(confloader.WithOverrides(map[string]any{
		"capture.source": CaptureFile,
		"capture.file":   "shot.png",
	}))
	if err := l.Load(cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Upload.APIKey != "k-123456" {
		t.Errorf("Upload.APIKey = %q", cfg.Upload.APIKey)
	}
	if cfg.Storage.Outbox.Enabled {
		t.Error("outbox should be disabled by env")
	}
	if cfg.Sink.RateLimit != 2.5 {
		t.Errorf("Sink.RateLimit = %v", cfg.Sink.RateLimit)
	}
	if cfg.Upload.Timeout != DefaultUploadTimeout {
		t.Errorf("Upload.Timeout = %v, default lost", cfg.Upload.Timeout)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestBuild(t *testing.T) {
	cfg := Default()

	vp := cfg.Session.Viewport()
	if vp.ZoomStep != DefaultZoomStep || vp.GrabRadius != DefaultGrabRadius {
		t.Errorf("Viewport() = %+v", vp)
	}

	eng := cfg.Storage.Engine(nil)
	if eng.DisableOutbox || eng.Outbox.Dir != DefaultOutboxDir || !eng.Outbox.SyncWrites {
		t.Errorf("Engine() = %+v", eng)
	}

	up := cfg.Upload.Client()
	if up.Endpoint != DefaultUploadEndpoint || up.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("Client() = %+v", up)
	}

	if _, ok := cfg.Capture.NewSource(nil).(*capture.ADBSource); !ok {
		t.Error("default source should be adb")
	}
	cfg.Capture.Source, cfg.Capture.File = CaptureFile, "x.png"
	fs, ok := cfg.Capture.NewSource(nil).(*capture.FileSource)
	if !ok || fs.Path != "x.png" {
		t.Errorf("NewSource() = %#v", fs)
	}
}
