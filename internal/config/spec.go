package config

import "time"

// Config is the root configuration shared by uicollector and
// uicollector-sink.
type Config struct {
	Session SessionSection `koanf:"session" yaml:"session" json:"session"`
	Storage StorageSection `koanf:"storage" yaml:"storage" json:"storage"`
	Upload  UploadSection  `koanf:"upload" yaml:"upload" json:"upload"`
	Capture CaptureSection `koanf:"capture" yaml:"capture" json:"capture"`
	Sink    SinkSection    `koanf:"sink" yaml:"sink" json:"sink"`
	Log     LogSection     `koanf:"log" yaml:"log" json:"log"`
}

// SessionSection configures the interactive annotation session.
type SessionSection struct {
	MinZoom  float64 `koanf:"min_zoom" yaml:"min_zoom" json:"min_zoom"`
	MaxZoom  float64 `koanf:"max_zoom" yaml:"max_zoom" json:"max_zoom"`
	ZoomStep float64 `koanf:"zoom_step" yaml:"zoom_step" json:"zoom_step"`

	// GrabRadius is the drag hit-test tolerance in screen pixels.
	GrabRadius float64 `koanf:"grab_radius" yaml:"grab_radius" json:"grab_radius"`

	// HistoryLimit bounds each undo lane. 0 means unbounded.
	HistoryLimit int `koanf:"history_limit" yaml:"history_limit" json:"history_limit"`

	// QueueSize bounds commits waiting for the background worker.
	QueueSize int `koanf:"queue_size" yaml:"queue_size" json:"queue_size"`

	// HistoryFile stores shell command history. Empty disables it.
	HistoryFile string `koanf:"history_file" yaml:"history_file" json:"history_file"`
}

// StorageSection configures local persistence.
type StorageSection struct {
	DataDir    string `koanf:"data_dir" yaml:"data_dir" json:"data_dir"`
	ImagesDir  string `koanf:"images_dir" yaml:"images_dir" json:"images_dir"`
	CubeName   string `koanf:"cube_name" yaml:"cube_name" json:"cube_name"`
	CenterName string `koanf:"center_name" yaml:"center_name" json:"center_name"`

	Outbox OutboxSection `koanf:"outbox" yaml:"outbox" json:"outbox"`
}

// OutboxSection configures the upload journal.
type OutboxSection struct {
	Enabled    bool          `koanf:"enabled" yaml:"enabled" json:"enabled"`
	Dir        string        `koanf:"dir" yaml:"dir" json:"dir"`
	SyncWrites bool          `koanf:"sync_writes" yaml:"sync_writes" json:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval" yaml:"gc_interval" json:"gc_interval"`
}

// UploadSection configures the upload client.
type UploadSection struct {
	Enabled  bool   `koanf:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint string `koanf:"endpoint" yaml:"endpoint" json:"endpoint"`
	Path     string `koanf:"path" yaml:"path" json:"path"`
	APIKey   string `koanf:"api_key" yaml:"api_key" json:"api_key"`

	Timeout     time.Duration `koanf:"timeout" yaml:"timeout" json:"timeout"`
	MaxAttempts int           `koanf:"max_attempts" yaml:"max_attempts" json:"max_attempts"`
	BackoffBase time.Duration `koanf:"backoff_base" yaml:"backoff_base" json:"backoff_base"`
	BackoffMax  time.Duration `koanf:"backoff_max" yaml:"backoff_max" json:"backoff_max"`

	// RateLimit caps upload attempts per second. 0 means unlimited.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit" json:"rate_limit"`

	// CAFile is an extra PEM bundle trusted for https endpoints.
	CAFile string `koanf:"ca_file" yaml:"ca_file" json:"ca_file"`
}

// CaptureSection configures where screenshots come from.
type CaptureSection struct {
	// Source is "adb" or "file".
	Source string `koanf:"source" yaml:"source" json:"source"`

	ADBPath string `koanf:"adb_path" yaml:"adb_path" json:"adb_path"`
	Serial  string `koanf:"serial" yaml:"serial" json:"serial"`

	// File is the image read by the file source.
	File string `koanf:"file" yaml:"file" json:"file"`

	// BlankThreshold is the luminance spread under which a frame counts
	// as blank. Negative disables the check.
	BlankThreshold int `koanf:"blank_threshold" yaml:"blank_threshold" json:"blank_threshold"`
}

// SinkSection configures uicollector-sink.
type SinkSection struct {
	Addr       string `koanf:"addr" yaml:"addr" json:"addr"`
	UploadsDir string `koanf:"uploads_dir" yaml:"uploads_dir" json:"uploads_dir"`

	// APIKey, when set, is required in the X-API-Key header.
	APIKey string `koanf:"api_key" yaml:"api_key" json:"api_key"`

	// RateLimit is requests per second per client. 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
	RateBurst int     `koanf:"rate_burst" yaml:"rate_burst" json:"rate_burst"`

	MaxBodyBytes    int64         `koanf:"max_body_bytes" yaml:"max_body_bytes" json:"max_body_bytes"`

	// TLSCertFile and TLSKeyFile switch the sink to HTTPS. The pair is
	// reloaded when either file changes.
	TLSCertFile string `koanf:"tls_cert_file" yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" yaml:"tls_key_file" json:"tls_key_file"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`

	// File receives log lines instead of stderr when set.
	File string `koanf:"file" yaml:"file" json:"file"`
}
