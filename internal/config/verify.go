package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Verify validates the collector side of the configuration.
func Verify(cfg *Config) error {
	return errors.Join(
		verifySession(&cfg.Session),
		verifyStorage(&cfg.Storage),
		verifyUpload(&cfg.Upload),
		verifyCapture(&cfg.Capture),
		verifyLog(&cfg.Log),
	)
}

// VerifySink validates the settings used by uicollector-sink.
func VerifySink(cfg *Config) error {
	s := &cfg.Sink
	var errs []error
	if s.UploadsDir == "" {
		errs = append(errs, errors.New("sink.uploads_dir is required"))
	}
	if _, _, err := net.SplitHostPort(s.Addr); err != nil {
		errs = append(errs, fmt.Errorf("sink.addr %q: %w", s.Addr, err))
	}
	if s.RateLimit < 0 {
		errs = append(errs, errors.New("sink.rate_limit must not be negative"))
	}
	if s.RateLimit > 0 && s.RateBurst < 1 {
		errs = append(errs, errors.New("sink.rate_burst must be at least 1 when rate limiting"))
	}
	if s.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("sink.max_body_bytes must be positive"))
	}
	if (s.TLSCertFile == "") != (s.TLSKeyFile == "") {
		errs = append(errs, errors.New("sink.tls_cert_file and sink.tls_key_file must be set together"))
	}
	errs = append(errs, verifyLog(&cfg.Log))
	return errors.Join(errs...)
}

func verifySession(s *SessionSection) error {
	var errs []error
	if s.MinZoom <= 0 {
		errs = append(errs, errors.New("session.min_zoom must be positive"))
	}
	if s.MaxZoom < s.MinZoom {
		errs = append(errs, errors.New("session.max_zoom must not be below session.min_zoom"))
	}
	if s.ZoomStep <= 1 {
		errs = append(errs, errors.New("session.zoom_step must be greater than 1"))
	}
	if s.HistoryLimit < 0 {
		errs = append(errs, errors.New("session.history_limit must not be negative"))
	}
	if s.QueueSize < 1 {
		errs = append(errs, errors.New("session.queue_size must be at least 1"))
	}
	return errors.Join(errs...)
}

func verifyStorage(s *StorageSection) error {
	var errs []error
	if s.DataDir == "" {
		errs = append(errs, errors.New("storage.data_dir is required"))
	}
	for key, name := range map[string]string{"storage.cube_name": s.CubeName, "storage.center_name": s.CenterName} {
		if name == "" || strings.ContainsAny(name, `/\`) {
			errs = append(errs, fmt.Errorf("%s %q must be a plain file stem", key, name))
		}
	}
	if s.CubeName != "" && s.CubeName == s.CenterName {
		errs = append(errs, errors.New("storage.cube_name and storage.center_name must differ"))
	}
	if s.Outbox.Enabled && s.Outbox.Dir == "" {
		errs = append(errs, errors.New("storage.outbox.dir is required when the outbox is enabled"))
	}
	return errors.Join(errs...)
}

func verifyUpload(u *UploadSection) error {
	if !u.Enabled {
		return nil
	}
	var errs []error
	if ep, err := url.Parse(u.Endpoint); err != nil || ep.Scheme == "" || ep.Host == "" {
		errs = append(errs, fmt.Errorf("upload.endpoint %q must be an absolute URL", u.Endpoint))
	} else if ep.Scheme != "http" && ep.Scheme != "https" {
		errs = append(errs, fmt.Errorf("upload.endpoint scheme %q is not supported", ep.Scheme))
	}
	if u.Timeout <= 0 {
		errs = append(errs, errors.New("upload.timeout must be positive"))
	}
	if u.MaxAttempts < 1 {
		errs = append(errs, errors.New("upload.max_attempts must be at least 1"))
	}
	if u.BackoffMax < u.BackoffBase {
		errs = append(errs, errors.New("upload.backoff_max must not be below upload.backoff_base"))
	}
	if u.RateLimit < 0 {
		errs = append(errs, errors.New("upload.rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyCapture(c *CaptureSection) error {
	switch c.Source {
	case CaptureADB:
		if c.ADBPath == "" {
			return errors.New("capture.adb_path is required for the adb source")
		}
	case CaptureFile:
		if c.File == "" {
			return errors.New("capture.file is required for the file source")
		}
	default:
		return fmt.Errorf("capture.source %q must be %q or %q", c.Source, CaptureADB, CaptureFile)
	}
	return nil
}

func verifyLog(l *LogSection) error {
	var errs []error
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is invalid", l.Level))
	}
	switch strings.ToLower(l.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is invalid", l.Format))
	}
	return errors.Join(errs...)
}
