package config

import (
	"log/slog"

	"github.com/johnmalek312/android-ui-collector/internal/capture"
	"github.com/johnmalek312/android-ui-collector/internal/core/viewport"
	"github.com/johnmalek312/android-ui-collector/internal/storage"
	"github.com/johnmalek312/android-ui-collector/internal/storage/outbox"
	"github.com/johnmalek312/android-ui-collector/internal/upload"
)

// Viewport returns the zoom policy.
func (s *SessionSection) Viewport() viewport.Config {
	return viewport.Config{
		MinZoom:    s.MinZoom,
		MaxZoom:    s.MaxZoom,
		ZoomStep:   s.ZoomStep,
		GrabRadius: s.GrabRadius,
	}
}

// Engine returns the storage engine configuration.
func (s *StorageSection) Engine(logger *slog.Logger) storage.Config {
	ob := outbox.DefaultConfig(s.Outbox.Dir)
	ob.SyncWrites = s.Outbox.SyncWrites
	ob.GCInterval = s.Outbox.GCInterval
	return storage.Config{
		DataDir:       s.DataDir,
		ImagesDir:     s.ImagesDir,
		CubeName:      s.CubeName,
		CenterName:    s.CenterName,
		Outbox:        ob,
		DisableOutbox: !s.Outbox.Enabled,
		Logger:        logger,
	}
}

// Client returns the upload client configuration.
func (u *UploadSection) Client() upload.Config {
	return upload.Config{
		Endpoint:    u.Endpoint,
		Path:        u.Path,
		APIKey:      u.APIKey,
		Timeout:     u.Timeout,
		MaxAttempts: u.MaxAttempts,
		BackoffBase: u.BackoffBase,
		BackoffMax:  u.BackoffMax,
		RateLimit:   u.RateLimit,
		CAFile:      u.CAFile,
	}
}

// NewSource builds the configured capture source.
func (c *CaptureSection) NewSource(logger *slog.Logger) capture.Source {
	opts := capture.Options{BlankThreshold: c.BlankThreshold}
	if c.Source == CaptureFile {
		return &capture.FileSource{Path: c.File, Options: opts}
	}
	return capture.NewADBSource(c.ADBPath,
		capture.WithSerial(c.Serial),
		capture.WithOptions(opts),
		capture.WithLogger(logger),
	)
}
