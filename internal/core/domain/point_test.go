package domain

import (
	"math"
	"testing"
)

func TestNewPoint_Clamps(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want Point
	}{
		{"inside", 0.25, 0.75, Point{0.25, 0.75}},
		{"negative", -0.5, 0.5, Point{0, 0.5}},
		{"over one", 1.5, 2, Point{1, 1}},
		{"nan", math.NaN(), 0.1, Point{0, 0.1}},
		{"rounded", 0.1234567, 0.9999994, Point{0.123457, 0.999999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPoint(tt.x, tt.y); got != tt.want {
				t.Errorf("NewPoint(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestPoint_Valid(t *testing.T) {
	if !(Point{0, 1}).Valid() {
		t.Error("bounds should be valid")
	}
	if (Point{-0.01, 0.5}).Valid() {
		t.Error("negative x should be invalid")
	}
	if (Point{0.5, math.Inf(1)}).Valid() {
		t.Error("infinite y should be invalid")
	}
}

func TestCentroid(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		want   Point
	}{
		{
			name:   "unit square",
			points: []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
			want:   Point{0.5, 0.5},
		},
		{
			name:   "inner square",
			points: []Point{{0.1, 0.1}, {0.5, 0.1}, {0.5, 0.5}, {0.1, 0.5}},
			want:   Point{0.3, 0.3},
		},
		{
			name:   "empty",
			points: nil,
			want:   Point{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Centroid(tt.points); got != tt.want {
				t.Errorf("Centroid() = %v, want %v", got, tt.want)
			}
		})
	}
}
