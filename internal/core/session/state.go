package session

import "fmt"

// State is the session state tag.
type State int

const (
	StateIdle State = iota
	StateAwaitingCapture
	StatePlacingCubePoint
	StateCubeDescriptionPending
	StateCenterPending
	StateCenterDescriptionPending
	StateCommitting
)

var stateNames = [...]string{
	StateIdle:                     "idle",
	StateAwaitingCapture:          "awaiting_capture",
	StatePlacingCubePoint:         "placing_cube_point",
	StateCubeDescriptionPending:   "cube_description_pending",
	StateCenterPending:            "center_pending",
	StateCenterDescriptionPending: "center_description_pending",
	StateCommitting:               "committing",
}

// String returns the snake_case state name.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// cubePhase reports whether cube points are visible and editable.
func (s State) cubePhase() bool {
	return s == StatePlacingCubePoint || s == StateCubeDescriptionPending
}

// cancellable reports whether Cancel is allowed.
func (s State) cancellable() bool {
	return s != StateIdle && s != StateCommitting
}
