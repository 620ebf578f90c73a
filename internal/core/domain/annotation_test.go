package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func validPair() AnnotationPair {
	return AnnotationPair{
		Cube: CubeAnnotation{
			Screenshot:  ScreenshotName(1700000000),
			Timestamp:   1700000000,
			Points:      []Point{{0.1, 0.1}, {0.5, 0.1}, {0.5, 0.5}, {0.1, 0.5}},
			Description: "Button A",
		},
		Center: CenterPointAnnotation{
			Screenshot:  ScreenshotName(1700000000),
			Timestamp:   1700000000,
			CenterPoint: Point{0.3, 0.3},
			Description: "Center A",
		},
	}
}

func TestScreenshotName(t *testing.T) {
	if got := ScreenshotName(1700000000); got != "screenshot_1700000000.png" {
		t.Errorf("ScreenshotName() = %q", got)
	}
}

func TestAnnotationPair_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *AnnotationPair)
		wantErr string
	}{
		{name: "valid", mutate: func(p *AnnotationPair) {}},
		{
			name:    "three points",
			mutate:  func(p *AnnotationPair) { p.Cube.Points = p.Cube.Points[:3] },
			wantErr: "exactly 4 points",
		},
		{
			name:    "empty cube description",
			mutate:  func(p *AnnotationPair) { p.Cube.Description = "  " },
			wantErr: "description is required",
		},
		{
			name:    "center out of range",
			mutate:  func(p *AnnotationPair) { p.Center.CenterPoint = Point{1.2, 0} },
			wantErr: "center point out of range",
		},
		{
			name:    "mismatched timestamp",
			mutate:  func(p *AnnotationPair) { p.Center.Timestamp++ },
			wantErr: "share screenshot and timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPair()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
			if !IsDomainError(err, ErrInvalidArgument.Code) {
				t.Errorf("expected %s, got %s", ErrInvalidArgument.Code, GetErrorCode(err))
			}
		})
	}
}

func TestCubeAnnotation_JSONFieldNames(t *testing.T) {
	p := validPair()
	data, err := json.Marshal(p.Center)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{`"screenshot"`, `"timestamp"`, `"center_point"`, `"description"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("center JSON %s missing key %s", data, key)
		}
	}
}
