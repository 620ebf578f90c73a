package domain

import (
	"fmt"
	"strings"
)

// Dataset names. They double as file stems and as multipart part names
// on the sink side (cube dataset is sent as "annotations").
const (
	DatasetCube   = "cube_annotations"
	DatasetCenter = "center_points"
)

// MaxDescriptionLength bounds free-text descriptions.
const MaxDescriptionLength = 2048

// CubeAnnotation is a four-corner region placed on a screenshot.
// Points keep the order in which they were placed.
type CubeAnnotation struct {
	// Screenshot is the image file name the annotation refers to.
	Screenshot string `json:"screenshot"`

	// Timestamp is the capture time (Unix seconds), shared with the
	// sibling CenterPointAnnotation and the image file name.
	Timestamp int64 `json:"timestamp"`

	Points      []Point `json:"points"`
	Description string  `json:"description"`
}

// CenterPointAnnotation is the single adjustable point paired with a cube.
type CenterPointAnnotation struct {
	Screenshot  string `json:"screenshot"`
	Timestamp   int64  `json:"timestamp"`
	CenterPoint Point  `json:"center_point"`
	Description string `json:"description"`
}

// AnnotationPair is the unit committed to both datasets.
type AnnotationPair struct {
	Cube   CubeAnnotation
	Center CenterPointAnnotation
}

// ScreenshotName returns the deterministic image file name for a capture time.
func ScreenshotName(timestamp int64) string {
	return fmt.Sprintf("screenshot_%d.png", timestamp)
}

// Validate checks the cube invariants.
func (c *CubeAnnotation) Validate() error {
	var violations []string

	if c.Screenshot == "" {
		violations = append(violations, "screenshot is required")
	}
	if c.Timestamp <= 0 {
		violations = append(violations, "timestamp must be positive")
	}
	if len(c.Points) != CubeCorners {
		violations = append(violations, fmt.Sprintf("cube needs exactly %d points, got %d", CubeCorners, len(c.Points)))
	}
	for i, p := range c.Points {
		if !p.Valid() {
			violations = append(violations, fmt.Sprintf("point %d out of range: %s", i, p))
		}
	}
	violations = append(violations, validateDescription(c.Description)...)

	if len(violations) > 0 {
		return ErrInvalidArgument.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Validate checks the center point invariants.
func (c *CenterPointAnnotation) Validate() error {
	var violations []string

	if c.Screenshot == "" {
		violations = append(violations, "screenshot is required")
	}
	if c.Timestamp <= 0 {
		violations = append(violations, "timestamp must be positive")
	}
	if !c.CenterPoint.Valid() {
		violations = append(violations, fmt.Sprintf("center point out of range: %s", c.CenterPoint))
	}
	violations = append(violations, validateDescription(c.Description)...)

	if len(violations) > 0 {
		return ErrInvalidArgument.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Validate checks both halves and that they share screenshot and timestamp.
func (p *AnnotationPair) Validate() error {
	if err := p.Cube.Validate(); err != nil {
		return err
	}
	if err := p.Center.Validate(); err != nil {
		return err
	}
	if p.Cube.Screenshot != p.Center.Screenshot || p.Cube.Timestamp != p.Center.Timestamp {
		return ErrInvalidArgument.WithDetails("cube and center point must share screenshot and timestamp")
	}
	return nil
}

func validateDescription(desc string) []string {
	if strings.TrimSpace(desc) == "" {
		return []string{"description is required"}
	}
	if len(desc) > MaxDescriptionLength {
		return []string{fmt.Sprintf("description exceeds %d characters", MaxDescriptionLength)}
	}
	return nil
}
