package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/storage/dataset"
	"github.com/johnmalek312/android-ui-collector/internal/storage/outbox"
)

// Default layout below the data directory.
const (
	DefaultImagesDir = "images"
	DefaultOutboxDir = "outbox"
)

// Config configures the storage engine.
type Config struct {
	// DataDir is the base directory for all storage files.
	DataDir string

	// ImagesDir holds committed screenshots. Relative paths are resolved
	// against DataDir.
	ImagesDir string

	// Dataset names. Empty selects the defaults.
	CubeName   string
	CenterName string

	// Outbox configuration. Outbox.Dir is resolved like ImagesDir.
	Outbox outbox.Config

	// DisableOutbox runs without the commit journal.
	DisableOutbox bool

	// Logger is the structured logger.
	Logger *slog.Logger
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:    dataDir,
		ImagesDir:  DefaultImagesDir,
		CubeName:   domain.DatasetCube,
		CenterName: domain.DatasetCenter,
		Outbox:     outbox.DefaultConfig(DefaultOutboxDir),
		Logger:     slog.Default(),
	}
}

// Engine is the storage engine.
type Engine struct {
	cfg       Config
	imagesDir string
	datasets  *dataset.Store
	outbox    *outbox.Outbox
	logger    *slog.Logger
}

// New opens the engine and creates missing directories.
func New(cfg Config) (*Engine, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("storage: data_dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ImagesDir == "" {
		cfg.ImagesDir = DefaultImagesDir
	}

	imagesDir := resolve(cfg.DataDir, cfg.ImagesDir)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create images dir: %w", err)
	}

	datasets, err := dataset.Open(dataset.Config{
		Dir:        cfg.DataDir,
		CubeName:   cfg.CubeName,
		CenterName: cfg.CenterName,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		imagesDir: imagesDir,
		datasets:  datasets,
		logger:    cfg.Logger,
	}

	if !cfg.DisableOutbox {
		obCfg := cfg.Outbox
		if obCfg.Dir == "" {
			obCfg.Dir = DefaultOutboxDir
		}
		if !obCfg.InMemory {
			obCfg.Dir = resolve(cfg.DataDir, obCfg.Dir)
		}
		ob, err := outbox.Open(obCfg, cfg.Logger.With("component", "outbox"))
		if err != nil {
			return nil, err
		}
		e.outbox = ob
	}

	e.logger.Info("storage engine opened",
		"data_dir", cfg.DataDir,
		"images_dir", imagesDir,
		"outbox", e.outbox != nil)
	return e, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Datasets returns the cumulative dataset store.
func (e *Engine) Datasets() *dataset.Store { return e.datasets }

// Outbox returns the commit journal, or nil when disabled.
func (e *Engine) Outbox() *outbox.Outbox { return e.outbox }

// ImagePath returns the path of a stored screenshot.
func (e *Engine) ImagePath(name string) string {
	return filepath.Join(e.imagesDir, name)
}

func validateImageName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("invalid image name %q", name))
	}
	return nil
}

// SaveImage writes a screenshot atomically. Saving the same name twice
// overwrites it.
func (e *Engine) SaveImage(ctx context.Context, name string, data []byte) (string, error) {
	if err := validateImageName(name); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", domain.ErrInvalidArgument.WithDetails("image is empty")
	}
	path := e.ImagePath(name)
	if err := dataset.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", domain.ErrPersistence.WithDetails(path).WithCause(err)
	}
	return path, nil
}

// LoadImage reads a stored screenshot.
func (e *Engine) LoadImage(ctx context.Context, name string) ([]byte, error) {
	if err := validateImageName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(e.ImagePath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrPersistence.WithDetails(name + " not found").WithCause(err)
		}
		return nil, domain.ErrPersistence.WithCause(err)
	}
	return data, nil
}

// AppendPair appends the pair to both datasets, cube first.
func (e *Engine) AppendPair(ctx context.Context, pair *domain.AnnotationPair) ([]string, error) {
	return e.datasets.AppendPair(pair)
}

// Snapshot returns the current bytes of a dataset.
func (e *Engine) Snapshot(ctx context.Context, name string) ([]byte, error) {
	return e.datasets.Snapshot(name)
}

// Journal stores a commit record. It is a no-op without an outbox.
func (e *Engine) Journal(ctx context.Context, rec *outbox.Record) error {
	if e.outbox == nil {
		return nil
	}
	return e.outbox.Put(ctx, rec)
}

// Close closes the outbox.
func (e *Engine) Close() error {
	if e.outbox == nil {
		return nil
	}
	return e.outbox.Close()
}
