package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// CubeCorners is the number of corners of a cube annotation.
const CubeCorners = 4

// coordinatePrecision is the number of decimals kept for stored coordinates.
const coordinatePrecision = 1e6

// Point is a position normalized to the image width and height.
// Both coordinates lie in [0, 1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint returns a point with both coordinates clamped to [0, 1]
// and rounded to six decimals.
func NewPoint(x, y float64) Point {
	return Point{X: Round(Clamp01(x)), Y: Round(Clamp01(y))}
}

// Valid reports whether both coordinates are finite and within [0, 1].
func (p Point) Valid() bool {
	return inUnit(p.X) && inUnit(p.Y)
}

// String renders the point with three decimals.
func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// Clamp01 clamps v into [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Round rounds v to six decimals.
func Round(v float64) float64 {
	return math.Round(v*coordinatePrecision) / coordinatePrecision
}

// Centroid returns the arithmetic mean of the given points.
// It returns the zero point for an empty slice.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return Point{X: Round(stat.Mean(xs, nil)), Y: Round(stat.Mean(ys, nil))}
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
