package capture

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
)

// DefaultADBPath is looked up on PATH.
const DefaultADBPath = "adb"

// ADBSource captures the screen of an Android device through adb.
type ADBSource struct {
	path   string
	serial string
	opts   Options
	logger *slog.Logger

	// run executes the command and returns stdout and stderr.
	run func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)
}

// ADBOption configures an ADBSource.
type ADBOption func(*ADBSource)

// WithSerial targets one device when several are attached.
func WithSerial(serial string) ADBOption {
	return func(s *ADBSource) { s.serial = serial }
}

// WithOptions sets frame validation options.
func WithOptions(opts Options) ADBOption {
	return func(s *ADBSource) { s.opts = opts }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ADBOption {
	return func(s *ADBSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewADBSource creates a source using the adb binary at path.
func NewADBSource(path string, opts ...ADBOption) *ADBSource {
	if path == "" {
		path = DefaultADBPath
	}
	s := &ADBSource{
		path:   path,
		logger: slog.Default(),
		run:    runCommand,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Args returns the adb arguments used for one capture.
func (s *ADBSource) Args() []string {
	var args []string
	if s.serial != "" {
		args = append(args, "-s", s.serial)
	}
	return append(args, "exec-out", "screencap", "-p")
}

// Capture implements Source.
func (s *ADBSource) Capture(ctx context.Context) (*Frame, error) {
	stdout, stderr, err := s.run(ctx, s.path, s.Args()...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.ErrDeviceUnavailable.WithCause(ctx.Err())
		}
		msg := strings.TrimSpace(string(stderr))
		s.logger.Warn("adb screencap failed", "serial", s.serial, "error", err, "stderr", msg)
		if msg == "" {
			msg = err.Error()
		}
		return nil, domain.ErrDeviceUnavailable.WithDetails(msg).WithCause(err)
	}

	frame, err := NewFrame(stdout, s.opts)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("frame captured", "serial", s.serial, "width", frame.Width, "height", frame.Height, "bytes", len(frame.Data))
	return frame, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if errors.Is(err, exec.ErrNotFound) {
		return nil, []byte(name + " not found on PATH"), err
	}
	return stdout.Bytes(), stderr.Bytes(), err
}
