package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // decoder registration
	_ "golang.org/x/image/webp" // decoder registration

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
)

// FormatPNG is the only format frames are handed out in.
const FormatPNG = "png"

// DefaultBlankThreshold is the luminance (0-255) at or below which every
// probed pixel must fall for a frame to count as blank.
const DefaultBlankThreshold = 8

// probeWidth is the width frames are downscaled to before the blank check.
const probeWidth = 64

// Frame is one captured screenshot.
type Frame struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Source produces frames.
type Source interface {
	Capture(ctx context.Context) (*Frame, error)
}

// Options tunes frame validation.
type Options struct {
	// BlankThreshold is the blank-frame luminance bound. A negative value
	// disables the check; zero selects DefaultBlankThreshold.
	BlankThreshold int
}

func (o Options) threshold() int {
	if o.BlankThreshold == 0 {
		return DefaultBlankThreshold
	}
	return o.BlankThreshold
}

// NewFrame decodes raw image bytes, rejects blank images and returns a
// PNG-encoded frame. PNG input is kept byte for byte.
func NewFrame(data []byte, opts Options) (*Frame, error) {
	if len(data) == 0 {
		return nil, domain.ErrCaptureBlocked.WithDetails("empty frame")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrCaptureDecode.WithCause(err)
	}

	if t := opts.threshold(); t >= 0 && IsBlank(img, uint8(min(t, 255))) {
		return nil, domain.ErrCaptureBlocked.WithDetails("frame is blank, content may be protected")
	}

	b := img.Bounds()
	frame := &Frame{
		Data:   data,
		Format: FormatPNG,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
	if format != FormatPNG {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode %s frame as png: %w", format, err)
		}
		frame.Data = buf.Bytes()
	}
	return frame, nil
}

// IsBlank reports whether every pixel of a downscaled grayscale copy of
// img has a luminance at or below threshold.
func IsBlank(img image.Image, threshold uint8) bool {
	b := img.Bounds()
	if b.Empty() {
		return true
	}

	probe := imaging.Grayscale(img)
	if b.Dx() > probeWidth {
		probe = imaging.Resize(probe, probeWidth, 0, imaging.Box)
	}

	pix := probe.Pix
	for i := 0; i < len(pix); i += 4 {
		if pix[i] > threshold {
			return false
		}
	}
	return true
}
