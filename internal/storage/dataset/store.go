package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
)

// FileExtension is appended to dataset names.
const FileExtension = ".json"

const filePerm = 0o644

// Config configures a Store.
type Config struct {
	// Dir holds the dataset files and is created if missing.
	Dir string

	// CubeName and CenterName name the two datasets.
	// Defaults: domain.DatasetCube, domain.DatasetCenter.
	CubeName   string
	CenterName string

	Logger *slog.Logger
}

// Store appends entries to the cumulative datasets. Appends to one Store
// are serialized.
type Store struct {
	cfg    Config
	logger *slog.Logger

	mu sync.Mutex

	// beforeRename is a test hook, see writeFileAtomic.
	beforeRename func(tmp string) error
}

// Open creates a Store rooted at cfg.Dir.
func Open(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("dataset dir is required")
	}
	if cfg.CubeName == "" {
		cfg.CubeName = domain.DatasetCube
	}
	if cfg.CenterName == "" {
		cfg.CenterName = domain.DatasetCenter
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	for _, name := range []string{cfg.CubeName, cfg.CenterName} {
		if err := validateName(name); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, domain.ErrPersistence.WithCause(err)
	}
	return &Store{cfg: cfg, logger: cfg.Logger}, nil
}

func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("invalid dataset name %q", name))
	}
	return nil
}

// Dir returns the dataset directory.
func (s *Store) Dir() string { return s.cfg.Dir }

// CubeName returns the cube dataset name.
func (s *Store) CubeName() string { return s.cfg.CubeName }

// CenterName returns the center point dataset name.
func (s *Store) CenterName() string { return s.cfg.CenterName }

// Path returns the file path of a dataset.
func (s *Store) Path(name string) string {
	return filepath.Join(s.cfg.Dir, name+FileExtension)
}

// Load returns the raw entries of a dataset. An absent file is an empty
// dataset.
func (s *Store) Load(name string) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(name)
}

func (s *Store) load(name string) ([]json.RawMessage, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.ErrPersistence.WithDetails(path).WithCause(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, domain.ErrMalformedDataset.WithDetails(path).WithCause(err)
	}
	return entries, nil
}

// Append adds entry to the end of a dataset.
func (s *Store) Append(name string, entry any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(name, entry)
}

func (s *Store) append(name string, entry any) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return domain.ErrInternal.WithDetails("encode entry").WithCause(err)
	}

	entries, err := s.load(name)
	if err != nil {
		return err
	}
	entries = append(entries, raw)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return domain.ErrInternal.WithDetails("encode dataset").WithCause(err)
	}

	path := s.Path(name)
	if err := writeFileAtomic(path, data, filePerm, s.beforeRename); err != nil {
		return domain.ErrPersistence.WithDetails(path).WithCause(err)
	}

	s.logger.Debug("dataset appended", "dataset", name, "entries", len(entries))
	return nil
}

// AppendPair appends the cube entry and then the center entry. If the
// center append fails the cube append stays in place and
// ErrPartialCommit names the dataset that was written.
// It returns the datasets appended, in order.
func (s *Store) AppendPair(pair *domain.AnnotationPair) ([]string, error) {
	if err := pair.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.append(s.cfg.CubeName, &pair.Cube); err != nil {
		return nil, err
	}
	appended := []string{s.cfg.CubeName}

	if err := s.append(s.cfg.CenterName, &pair.Center); err != nil {
		s.logger.Error("partial commit", "appended", s.cfg.CubeName, "failed", s.cfg.CenterName, "error", err)
		return appended, domain.ErrPartialCommit.
			WithDetails(fmt.Sprintf("%s appended, %s failed", s.cfg.CubeName, s.cfg.CenterName)).
			WithCause(err)
	}
	return append(appended, s.cfg.CenterName), nil
}

// Snapshot returns the current bytes of a dataset file, or an empty JSON
// array when it does not exist yet.
func (s *Store) Snapshot(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []byte("[]"), nil
		}
		return nil, domain.ErrPersistence.WithDetails(s.Path(name)).WithCause(err)
	}
	return data, nil
}

// Cubes decodes the cube dataset.
func (s *Store) Cubes() ([]domain.CubeAnnotation, error) {
	return decodeAll[domain.CubeAnnotation](s, s.cfg.CubeName)
}

// Centers decodes the center point dataset.
func (s *Store) Centers() ([]domain.CenterPointAnnotation, error) {
	return decodeAll[domain.CenterPointAnnotation](s, s.cfg.CenterName)
}

func decodeAll[T any](s *Store, name string) ([]T, error) {
	entries, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entries))
	for i, raw := range entries {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, domain.ErrMalformedDataset.WithDetails(fmt.Sprintf("%s entry %d", name, i)).WithCause(err)
		}
		out = append(out, v)
	}
	return out, nil
}
