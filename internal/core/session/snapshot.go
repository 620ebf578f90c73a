package session

import (
	"fmt"
	"slices"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
)

// ScreenPoint is a position in screen pixels.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	State State  `json:"-"`
	Tag   string `json:"state"`

	DraftID    string `json:"draft_id,omitempty"`
	Screenshot string `json:"screenshot,omitempty"`

	CubePoints      []domain.Point `json:"cube_points,omitempty"`
	CubeScreen      []ScreenPoint  `json:"cube_screen,omitempty"`
	CubeDescription string         `json:"cube_description,omitempty"`
	Center          *domain.Point  `json:"center,omitempty"`
	CenterScreen    *ScreenPoint   `json:"center_screen,omitempty"`

	CanUndo bool    `json:"can_undo"`
	CanRedo bool    `json:"can_redo"`
	Zoom    float64 `json:"zoom,omitempty"`

	// Pending counts commits still running; Retained counts failed drafts
	// waiting for RetryFailed.
	Pending  int `json:"pending"`
	Retained int `json:"retained"`

	LastResult *domain.CommitResult `json:"-"`
}

// Tag renders a state with the placed point count while placing cube
// points, e.g. "placing_cube_point[2]".
func Tag(state State, placed int) string {
	if state == StatePlacingCubePoint {
		return fmt.Sprintf("%s[%d]", state, placed)
	}
	return state.String()
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:      s.state,
		Tag:        Tag(s.state, 0),
		Pending:    len(s.inflight),
		Retained:   len(s.retained),
		LastResult: s.lastResult,
	}

	d := s.draft
	if d == nil {
		return snap
	}

	snap.Tag = Tag(s.state, len(d.cube))
	snap.DraftID = d.id
	snap.Screenshot = d.screenshot
	snap.CubeDescription = d.cubeDesc
	snap.CubePoints = slices.Clone([]domain.Point(d.cube))
	snap.Zoom = s.view.Zoom()
	for _, p := range d.cube {
		x, y := s.view.ToScreen(p)
		snap.CubeScreen = append(snap.CubeScreen, ScreenPoint{X: x, Y: y})
	}
	if c, ok := d.centerPoint(); ok {
		snap.Center = &c
		x, y := s.view.ToScreen(c)
		snap.CenterScreen = &ScreenPoint{X: x, Y: y}
	}
	if l, ok := s.activeLaneLocked(); ok {
		stack := s.laneLogLocked(l)
		snap.CanUndo = stack.CanUndo()
		snap.CanRedo = stack.CanRedo()
	}
	return snap
}
