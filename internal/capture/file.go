package capture

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
)

// FileSource serves a frame from an image file. Every Capture rereads
// the file.
type FileSource struct {
	Path    string
	Options Options
}

// Capture implements Source.
func (s *FileSource) Capture(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrDeviceUnavailable.WithCause(err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrDeviceUnavailable.WithDetails(s.Path + " does not exist")
		}
		return nil, domain.ErrDeviceUnavailable.WithCause(err)
	}
	return NewFrame(data, s.Options)
}
