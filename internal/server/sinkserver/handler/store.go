package handler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/johnmalek312/android-ui-collector/internal/storage/dataset"
)

// File suffixes appended after the timestamp prefix.
const (
	suffixImage        = "screenshot"
	suffixAnnotations  = "annotations"
	suffixCenterPoints = "center_points"
)

// File is one uploaded part.
type File struct {
	// Ext is the extension including the dot, e.g. ".png".
	Ext  string
	Data []byte
}

// Upload is the set of parts stored together.
type Upload struct {
	Image        File
	Annotations  File
	CenterPoints File
}

// Stored describes a saved upload.
type Stored struct {
	Timestamp string
	Paths     map[string]string
	Bytes     int64
}

// Store writes uploads into a directory.
type Store struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("uploads dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the uploads directory.
func (s *Store) Dir() string { return s.dir }

// Check verifies the uploads directory is still a directory.
func (s *Store) Check() error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

// Stamp formats t as YYYYMMDD_HHMMSS_mmm.
func Stamp(t time.Time) string {
	return fmt.Sprintf("%s_%03d", t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond))
}

// nextStamp returns a millisecond stamp strictly later than the previous
// one, so two uploads in the same millisecond never share a prefix.
func (s *Store) nextStamp() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now().Truncate(time.Millisecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	s.last = t
	return Stamp(t)
}

// Save writes the three parts under a fresh timestamp prefix.
func (s *Store) Save(ctx context.Context, u *Upload) (*Stored, error) {
	stamp := s.nextStamp()
	parts := []struct {
		key, suffix string
		file        File
	}{
		{PartImage, suffixImage, u.Image},
		{PartAnnotations, suffixAnnotations, u.Annotations},
		{PartCenterPoints, suffixCenterPoints, u.CenterPoints},
	}

	stored := &Stored{Timestamp: stamp, Paths: make(map[string]string, len(parts))}
	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.dir, stamp+"_"+p.suffix+p.file.Ext)
		if err := dataset.WriteFileAtomic(path, p.file.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
		stored.Paths[p.key] = path
		stored.Bytes += int64(len(p.file.Data))
	}
	return stored, nil
}
