package config

import "time"

// Default configuration values.
const (
	DefaultMinZoom      = 0.2
	DefaultMaxZoom      = 5.0
	DefaultZoomStep     = 1.25
	DefaultGrabRadius   = 8.0
	DefaultHistoryLimit = 256
	DefaultQueueSize    = 16

	DefaultDataDir    = "./data"
	DefaultImagesDir  = "images"
	DefaultCubeName   = "cube_annotations"
	DefaultCenterName = "center_points"
	DefaultOutboxDir  = "outbox"

	DefaultUploadEndpoint = "http://localhost:8000"
	DefaultUploadPath     = "/upload/"
	DefaultUploadTimeout  = 30 * time.Second
	DefaultMaxAttempts    = 4
	DefaultBackoffBase    = 500 * time.Millisecond
	DefaultBackoffMax     = 8 * time.Second

	DefaultCaptureSource  = CaptureADB
	DefaultADBPath        = "adb"
	DefaultBlankThreshold = 8

	DefaultSinkAddr        = "127.0.0.1:8000"
	DefaultUploadsDir      = "./uploads"
	DefaultSinkRateLimit   = 10.0
	DefaultSinkRateBurst   = 20
	DefaultMaxBodyBytes    = 64 << 20
	DefaultShutdownTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Capture sources.
const (
	CaptureADB  = "adb"
	CaptureFile = "file"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Session: SessionSection{
			MinZoom:      DefaultMinZoom,
			MaxZoom:      DefaultMaxZoom,
			ZoomStep:     DefaultZoomStep,
			GrabRadius:   DefaultGrabRadius,
			HistoryLimit: DefaultHistoryLimit,
			QueueSize:    DefaultQueueSize,
		},
		Storage: StorageSection{
			DataDir:    DefaultDataDir,
			ImagesDir:  DefaultImagesDir,
			CubeName:   DefaultCubeName,
			CenterName: DefaultCenterName,
			Outbox: OutboxSection{
				Enabled:    true,
				Dir:        DefaultOutboxDir,
				SyncWrites: true,
				GCInterval: 10 * time.Minute,
			},
		},
		Upload: UploadSection{
			Enabled:     true,
			Endpoint:    DefaultUploadEndpoint,
			Path:        DefaultUploadPath,
			Timeout:     DefaultUploadTimeout,
			MaxAttempts: DefaultMaxAttempts,
			BackoffBase: DefaultBackoffBase,
			BackoffMax:  DefaultBackoffMax,
		},
		Capture: CaptureSection{
			Source:         DefaultCaptureSource,
			ADBPath:        DefaultADBPath,
			BlankThreshold: DefaultBlankThreshold,
		},
		Sink: SinkSection{
			Addr:            DefaultSinkAddr,
			UploadsDir:      DefaultUploadsDir,
			RateLimit:       DefaultSinkRateLimit,
			RateBurst:       DefaultSinkRateBurst,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
