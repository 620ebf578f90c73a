// Package viewport maps between on-screen pixels and normalized image
// coordinates under the current zoom factor and pan offset.
package viewport

import (
	"math"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
)

// Default zoom policy.
const (
	DefaultMinZoom    = 0.2
	DefaultMaxZoom    = 5.0
	DefaultZoomStep   = 1.25
	DefaultGrabRadius = 8.0
)

// Config configures a Transformer.
type Config struct {
	MinZoom  float64
	MaxZoom  float64
	ZoomStep float64

	// GrabRadius is the hit-test tolerance in screen pixels.
	GrabRadius float64
}

// DefaultConfig returns the default zoom policy.
func DefaultConfig() Config {
	return Config{
		MinZoom:    DefaultMinZoom,
		MaxZoom:    DefaultMaxZoom,
		ZoomStep:   DefaultZoomStep,
		GrabRadius: DefaultGrabRadius,
	}
}

// Transformer converts interaction-space pixels to normalized points and back.
// Its only mutable state is the zoom factor and the pan offset.
type Transformer struct {
	cfg    Config
	width  float64
	height float64

	zoom float64
	offX float64
	offY float64
}

// New creates a Transformer for an image of the given pixel size at zoom 1.
func New(width, height int, cfg Config) *Transformer {
	applyDefaults(&cfg)
	return &Transformer{
		cfg:    cfg,
		width:  float64(max(width, 1)),
		height: float64(max(height, 1)),
		zoom:   clampZoom(1, cfg),
	}
}

func applyDefaults(cfg *Config) {
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = DefaultMinZoom
	}
	if cfg.MaxZoom < cfg.MinZoom {
		cfg.MaxZoom = math.Max(DefaultMaxZoom, cfg.MinZoom)
	}
	if cfg.ZoomStep <= 1 {
		cfg.ZoomStep = DefaultZoomStep
	}
	if cfg.GrabRadius <= 0 {
		cfg.GrabRadius = DefaultGrabRadius
	}
}

// ToNormalized maps a pixel position to a normalized point.
// Clicks outside the rendered image are clamped to its edge.
func (t *Transformer) ToNormalized(px, py float64) domain.Point {
	x := (px - t.offX) / (t.width * t.zoom)
	y := (py - t.offY) / (t.height * t.zoom)
	return domain.NewPoint(x, y)
}

// ToScreen maps a normalized point to its current pixel position.
func (t *Transformer) ToScreen(p domain.Point) (px, py float64) {
	px = p.X*t.width*t.zoom + t.offX
	py = p.Y*t.height*t.zoom + t.offY
	return px, py
}

// HitTest returns the index of the first point whose on-screen position
// lies within the grab radius of (px, py), or -1.
func (t *Transformer) HitTest(points []domain.Point, px, py float64) int {
	r := t.cfg.GrabRadius
	for i, p := range points {
		sx, sy := t.ToScreen(p)
		if math.Abs(sx-px) <= r && math.Abs(sy-py) <= r {
			return i
		}
	}
	return -1
}

// ZoomIn multiplies the zoom factor by the step. It reports whether the
// factor changed.
func (t *Transformer) ZoomIn() bool {
	return t.SetZoom(t.zoom * t.cfg.ZoomStep)
}

// ZoomOut divides the zoom factor by the step.
func (t *Transformer) ZoomOut() bool {
	return t.SetZoom(t.zoom / t.cfg.ZoomStep)
}

// SetZoom sets the zoom factor, bounded to [MinZoom, MaxZoom].
func (t *Transformer) SetZoom(z float64) bool {
	z = clampZoom(z, t.cfg)
	if math.Abs(z-t.zoom) < 1e-9 {
		return false
	}
	t.zoom = z
	return true
}

// Pan shifts the offset by (dx, dy) screen pixels. Pan is unconstrained.
func (t *Transformer) Pan(dx, dy float64) {
	t.offX += dx
	t.offY += dy
}

// Reset restores zoom 1 and a zero offset.
func (t *Transformer) Reset() {
	t.zoom = clampZoom(1, t.cfg)
	t.offX, t.offY = 0, 0
}

// Zoom returns the current zoom factor.
func (t *Transformer) Zoom() float64 { return t.zoom }

// Offset returns the current pan offset.
func (t *Transformer) Offset() (x, y float64) { return t.offX, t.offY }

// ImageSize returns the image size in pixels.
func (t *Transformer) ImageSize() (width, height int) {
	return int(t.width), int(t.height)
}

func clampZoom(z float64, cfg Config) float64 {
	return math.Min(math.Max(z, cfg.MinZoom), cfg.MaxZoom)
}
