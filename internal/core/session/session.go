// Package session implements the annotation session engine.
//
// A Session drives one user through capture, cube placement, center point
// adjustment and commit. Each cycle works on a private draft with its own
// undo/redo lanes; finalized drafts are handed to a Pipeline and their
// outcome is fed back through HandleResult.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/johnmalek312/android-ui-collector/internal/capture"
	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/core/history"
	"github.com/johnmalek312/android-ui-collector/internal/core/viewport"
)

// Pipeline accepts finalized drafts for background persistence and upload.
// Outcomes are reported back through Session.HandleResult.
type Pipeline interface {
	Submit(ctx context.Context, req *domain.CommitRequest) error
}

// Config configures a Session.
type Config struct {
	Viewport viewport.Config

	// HistoryLimit bounds each undo lane. 0 means unbounded.
	HistoryLimit int

	// Now defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Session is the annotation state machine. All methods are safe for
// concurrent use; HandleResult is typically called from the goroutine
// draining the pipeline's result channel.
type Session struct {
	mu sync.Mutex

	cfg      Config
	pipeline Pipeline
	logger   *slog.Logger
	now      func() time.Time

	state State
	draft *draft
	view  *viewport.Transformer
	drag  *dragState

	// Last captured frame, reused by Reannotate.
	lastFrame     *capture.Frame
	lastTimestamp int64

	// Last saved cube description and the frame it was drawn on.
	lastDesc      string
	lastDescFrame *capture.Frame

	inflight   map[string]*draft
	retained   []*draft
	lastResult *domain.CommitResult
}

type lane int

const (
	laneCube lane = iota
	laneCenter
)

type dragState struct {
	lane  lane
	index int
	from  domain.Point
}

// New creates an idle session.
func New(pipeline Pipeline, cfg Config) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{
		cfg:      cfg,
		pipeline: pipeline,
		logger:   cfg.Logger,
		now:      cfg.Now,
		state:    StateIdle,
		inflight: make(map[string]*draft),
	}
}

// State returns the current state tag.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func rejected(format string, args ...any) error {
	return domain.ErrPlacementRejected.WithDetails(fmt.Sprintf(format, args...))
}

func (s *Session) transition(to State) {
	if s.state != to {
		s.logger.Debug("session transition", "from", s.state, "to", to)
	}
	s.state = to
}

// ============================================================================
// Capture
// ============================================================================

// BeginCapture starts a new cycle. It is allowed while idle and while a
// previous commit is still running.
func (s *Session) BeginCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginCaptureLocked()
}

func (s *Session) beginCaptureLocked() error {
	switch s.state {
	case StateIdle, StateCommitting, StateAwaitingCapture:
		s.transition(StateAwaitingCapture)
		return nil
	default:
		return rejected("cannot capture in state %s", s.state)
	}
}

// Capture acquires a frame from src and opens a new draft on it. A capture
// failure leaves the session in AwaitingCapture.
func (s *Session) Capture(ctx context.Context, src capture.Source) error {
	s.mu.Lock()
	if err := s.beginCaptureLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	frame, err := src.Capture(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingCapture {
		return rejected("capture superseded, session is %s", s.state)
	}
	if err != nil {
		s.logger.Warn("capture failed", "error", err)
		return err
	}

	s.lastFrame = frame
	return s.openDraftLocked(frame, s.nextTimestampLocked())
}

// nextTimestampLocked returns the timestamp for a new draft. Timestamps
// strictly increase so each draft gets its own screenshot name.
func (s *Session) nextTimestampLocked() int64 {
	ts := s.now().Unix()
	if ts <= s.lastTimestamp {
		ts = s.lastTimestamp + 1
	}
	s.lastTimestamp = ts
	return ts
}

// Reannotate opens a new draft on the most recently captured frame, so
// several regions can be annotated on one screenshot. The frame is saved
// again under a fresh timestamp, keeping one annotation pair per
// screenshot.
func (s *Session) Reannotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle, StateCommitting, StateAwaitingCapture:
	default:
		return rejected("cannot start a new draft in state %s", s.state)
	}
	if s.lastFrame == nil {
		return rejected("no screenshot captured yet")
	}
	return s.openDraftLocked(s.lastFrame, s.nextTimestampLocked())
}

func (s *Session) openDraftLocked(frame *capture.Frame, ts int64) error {
	id, err := domain.NewDraftID()
	if err != nil {
		return err
	}
	s.draft = newDraft(id, frame, ts, s.cfg.HistoryLimit)
	s.view = viewport.New(frame.Width, frame.Height, s.cfg.Viewport)
	s.drag = nil
	s.transition(StatePlacingCubePoint)
	s.logger.Info("draft opened", "draft_id", id, "screenshot", s.draft.screenshot,
		"width", frame.Width, "height", frame.Height)
	return nil
}

// ============================================================================
// Placement
// ============================================================================

// Click handles a click at screen position (px, py). While placing cube
// points it adds a corner; while adjusting the center it relocates it.
func (s *Session) Click(px, py float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag != nil {
		return rejected("drag in progress")
	}

	switch s.state {
	case StatePlacingCubePoint:
		d := s.draft
		if len(d.cube) >= domain.CubeCorners {
			return rejected("cube already has %d points", domain.CubeCorners)
		}
		p := s.view.ToNormalized(px, py)
		if err := d.cubeLog.Do(history.Add(len(d.cube), p), &d.cube); err != nil {
			return domain.ErrInternal.WithCause(err)
		}
		s.syncCubePhaseLocked()
		return nil

	case StateCubeDescriptionPending:
		return rejected("cube already has %d points", domain.CubeCorners)

	case StateCenterPending:
		d := s.draft
		old, _ := d.centerPoint()
		p := s.view.ToNormalized(px, py)
		if p == old {
			return nil
		}
		if err := d.centerLog.Do(history.Move(0, old, p), &d.center); err != nil {
			return domain.ErrInternal.WithCause(err)
		}
		return nil

	default:
		return rejected("click ignored in state %s", s.state)
	}
}

// syncCubePhaseLocked derives the cube phase from the point count.
func (s *Session) syncCubePhaseLocked() {
	if len(s.draft.cube) == domain.CubeCorners {
		s.transition(StateCubeDescriptionPending)
	} else {
		s.transition(StatePlacingCubePoint)
	}
}

// BeginDrag starts dragging the point under (px, py). It reports false
// when no point is within the grab radius.
func (s *Session) BeginDrag(px, py float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag != nil {
		return false, rejected("drag in progress")
	}

	var (
		l      lane
		points history.Points
	)
	switch {
	case s.state.cubePhase():
		l, points = laneCube, s.draft.cube
	case s.state == StateCenterPending:
		l, points = laneCenter, s.draft.center
	default:
		return false, rejected("drag ignored in state %s", s.state)
	}

	i := s.view.HitTest(points, px, py)
	if i < 0 {
		return false, nil
	}
	s.drag = &dragState{lane: l, index: i, from: points[i]}
	return true, nil
}

// DragTo moves the dragged point live. Intermediate positions are not
// recorded.
func (s *Session) DragTo(px, py float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag == nil {
		return rejected("no drag in progress")
	}
	s.lanePointsLocked(s.drag.lane).Set(s.drag.index, s.view.ToNormalized(px, py))
	return nil
}

// EndDrag drops the dragged point at (px, py) and records a single Move
// from the drag origin. The point count never changes.
func (s *Session) EndDrag(px, py float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag == nil {
		return rejected("no drag in progress")
	}
	dg := s.drag
	s.drag = nil

	to := s.view.ToNormalized(px, py)
	points := s.lanePointsLocked(dg.lane)
	points.Set(dg.index, to)
	if to != dg.from {
		s.laneLogLocked(dg.lane).Record(history.Move(dg.index, dg.from, to))
	}
	return nil
}

// Drag moves the point under (x1, y1) to (x2, y2) in one gesture.
func (s *Session) Drag(x1, y1, x2, y2 float64) error {
	ok, err := s.BeginDrag(x1, y1)
	if err != nil {
		return err
	}
	if !ok {
		return rejected("no point near (%.1f, %.1f)", x1, y1)
	}
	return s.EndDrag(x2, y2)
}

// SetCubePoint overwrites cube point i with a manually entered position.
// Manual entry bypasses history and cannot be undone.
func (s *Session) SetCubePoint(i int, p domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.cubePhase() || s.drag != nil {
		return rejected("manual entry ignored in state %s", s.state)
	}
	if i < 0 || i >= len(s.draft.cube) {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("point index %d out of range [0,%d)", i, len(s.draft.cube)))
	}
	s.draft.cube[i] = domain.NewPoint(p.X, p.Y)
	return nil
}

// DeleteCubePoint removes cube point i. The removal is undoable.
func (s *Session) DeleteCubePoint(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.cubePhase() || s.drag != nil {
		return rejected("delete ignored in state %s", s.state)
	}
	d := s.draft
	if i < 0 || i >= len(d.cube) {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("point index %d out of range [0,%d)", i, len(d.cube)))
	}
	if err := d.cubeLog.Do(history.Delete(i, d.cube[i]), &d.cube); err != nil {
		return domain.ErrInternal.WithCause(err)
	}
	s.syncCubePhaseLocked()
	return nil
}

// SetCenter overwrites the center point with a manually entered position.
// Manual entry bypasses history and cannot be undone.
func (s *Session) SetCenter(p domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCenterPending || s.drag != nil {
		return rejected("manual entry ignored in state %s", s.state)
	}
	s.draft.center[0] = domain.NewPoint(p.X, p.Y)
	return nil
}

func (s *Session) lanePointsLocked(l lane) *history.Points {
	if l == laneCenter {
		return &s.draft.center
	}
	return &s.draft.cube
}

func (s *Session) laneLogLocked(l lane) *history.Stack {
	if l == laneCenter {
		return s.draft.centerLog
	}
	return s.draft.cubeLog
}

// activeLaneLocked returns the undo lane of the current state.
func (s *Session) activeLaneLocked() (lane, bool) {
	switch {
	case s.state.cubePhase():
		return laneCube, true
	case s.state == StateCenterPending:
		return laneCenter, true
	default:
		return 0, false
	}
}

// ============================================================================
// Undo / Redo
// ============================================================================

// Undo reverts the last edit of the active lane.
func (s *Session) Undo() (history.Op, error) {
	return s.replay(true)
}

// Redo reapplies the last undone edit of the active lane.
func (s *Session) Redo() (history.Op, error) {
	return s.replay(false)
}

func (s *Session) replay(undo bool) (history.Op, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag != nil {
		return history.Op{}, rejected("drag in progress")
	}
	l, ok := s.activeLaneLocked()
	if !ok {
		return history.Op{}, rejected("undo/redo ignored in state %s", s.state)
	}

	var (
		op  history.Op
		err error
	)
	stack, points := s.laneLogLocked(l), s.lanePointsLocked(l)
	if undo {
		op, ok, err = stack.Undo(points)
	} else {
		op, ok, err = stack.Redo(points)
	}
	if err != nil {
		return op, domain.ErrInternal.WithCause(err)
	}
	if !ok {
		if undo {
			return op, domain.ErrNothingToUndo
		}
		return op, domain.ErrNothingToRedo
	}
	if l == laneCube {
		s.syncCubePhaseLocked()
	}
	return op, nil
}

// ============================================================================
// Descriptions and commit
// ============================================================================

func normalizeDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return "", domain.ErrDescriptionRequired
	}
	if len(desc) > domain.MaxDescriptionLength {
		return "", domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("description exceeds %d characters", domain.MaxDescriptionLength))
	}
	return desc, nil
}

// SubmitCubeDescription attaches the cube description and moves on to the
// center point, defaulting it to the centroid of the four corners.
//
// If desc repeats the last description saved on the same captured frame,
// ErrDuplicateDescription is returned and nothing changes unless force
// is set.
func (s *Session) SubmitCubeDescription(desc string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCubeDescriptionPending || s.drag != nil {
		return rejected("cube description not expected in state %s", s.state)
	}
	desc, err := normalizeDescription(desc)
	if err != nil {
		return err
	}
	d := s.draft
	if !force && desc == s.lastDesc && d.frame == s.lastDescFrame {
		return domain.ErrDuplicateDescription.WithDetails(desc)
	}

	d.cubeDesc = desc
	// The centroid is a computed default, not an edit: it is not recorded.
	d.center = history.Points{domain.Centroid(d.cube)}
	s.transition(StateCenterPending)
	return nil
}

// ConfirmCenter accepts the current center point.
func (s *Session) ConfirmCenter() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCenterPending || s.drag != nil {
		return rejected("confirm ignored in state %s", s.state)
	}
	s.transition(StateCenterDescriptionPending)
	return nil
}

// SubmitCenterDescription attaches the center description and hands the
// finalized pair to the pipeline. It returns the commit ID; the outcome
// arrives later through HandleResult.
func (s *Session) SubmitCenterDescription(ctx context.Context, desc string) (string, error) {
	s.mu.Lock()

	if s.state != StateCenterDescriptionPending {
		s.mu.Unlock()
		return "", rejected("center description not expected in state %s", s.state)
	}
	desc, err := normalizeDescription(desc)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}

	d := s.draft
	d.centerDesc = desc
	req, err := s.requestLocked(d)
	if err != nil {
		d.centerDesc = ""
		s.mu.Unlock()
		return "", err
	}

	s.inflight[req.ID] = d
	s.draft = nil
	s.drag = nil
	s.lastDesc = d.cubeDesc
	s.lastDescFrame = d.frame
	s.transition(StateCommitting)
	s.mu.Unlock()

	// Submit may block on a full queue; the lock must not be held or the
	// result consumer could not make progress.
	if err := s.pipeline.Submit(ctx, req); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.inflight, req.ID)
		if s.state == StateCommitting && s.draft == nil {
			d.centerDesc = ""
			s.draft = d
			s.transition(StateCenterDescriptionPending)
		} else {
			s.retained = append(s.retained, d)
		}
		s.logger.Error("commit submit failed", "commit_id", req.ID, "error", err)
		return "", err
	}

	s.logger.Info("commit submitted", "commit_id", req.ID, "draft_id", d.id, "screenshot", d.screenshot)
	return req.ID, nil
}

func (s *Session) requestLocked(d *draft) (*domain.CommitRequest, error) {
	pair := d.pair()
	if err := pair.Validate(); err != nil {
		return nil, err
	}
	id, err := domain.NewCommitID()
	if err != nil {
		return nil, err
	}
	return &domain.CommitRequest{
		ID:          id,
		DraftID:     d.id,
		Pair:        pair,
		Image:       d.frame.Data,
		SubmittedAt: s.now(),
	}, nil
}

// HandleResult applies a pipeline outcome. Drafts whose commit failed
// before anything was appended are kept for RetryFailed; all others are
// destroyed.
func (s *Session) HandleResult(res *domain.CommitResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.inflight[res.ID]
	if !ok {
		s.logger.Warn("result for unknown commit", "commit_id", res.ID, "status", res.Status)
		return
	}
	delete(s.inflight, res.ID)
	s.lastResult = res

	if res.Status == domain.CommitFailed && !res.Committed() {
		s.retained = append(s.retained, d)
	}

	attrs := []any{"commit_id", res.ID, "draft_id", res.DraftID, "status", res.Status}
	switch res.Status {
	case domain.CommitSuccess:
		s.logger.Info("commit finished", attrs...)
	default:
		s.logger.Warn("commit finished", append(attrs, "error", res.Err)...)
	}

	if s.state == StateCommitting && len(s.inflight) == 0 {
		s.transition(StateIdle)
	}
}

// RetryFailed resubmits every retained draft in its original order and
// returns how many were submitted.
func (s *Session) RetryFailed(ctx context.Context) (int, error) {
	s.mu.Lock()
	drafts := s.retained
	s.retained = nil

	reqs := make([]*domain.CommitRequest, 0, len(drafts))
	for i, d := range drafts {
		req, err := s.requestLocked(d)
		if err != nil {
			s.retained = append(s.retained, drafts[i:]...)
			s.mu.Unlock()
			return 0, err
		}
		s.inflight[req.ID] = d
		reqs = append(reqs, req)
	}
	if len(reqs) > 0 && s.state == StateIdle {
		s.transition(StateCommitting)
	}
	s.mu.Unlock()

	for i, req := range reqs {
		if err := s.pipeline.Submit(ctx, req); err != nil {
			s.mu.Lock()
			for _, r := range reqs[i:] {
				s.retained = append(s.retained, s.inflight[r.ID])
				delete(s.inflight, r.ID)
			}
			if s.state == StateCommitting && len(s.inflight) == 0 {
				s.transition(StateIdle)
			}
			s.mu.Unlock()
			return i, err
		}
	}
	return len(reqs), nil
}

// Cancel discards the draft and returns to Idle. Storage is untouched.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.cancellable() {
		return rejected("cancel ignored in state %s", s.state)
	}
	if s.draft != nil {
		s.logger.Info("draft cancelled", "draft_id", s.draft.id)
	}
	s.draft = nil
	s.drag = nil
	if len(s.inflight) > 0 {
		s.transition(StateCommitting)
	} else {
		s.transition(StateIdle)
	}
	return nil
}

// ============================================================================
// Viewport
// ============================================================================

// ZoomIn zooms the current frame in by one step.
func (s *Session) ZoomIn() (bool, error) {
	return s.withView(func(v *viewport.Transformer) bool { return v.ZoomIn() })
}

// ZoomOut zooms the current frame out by one step.
func (s *Session) ZoomOut() (bool, error) {
	return s.withView(func(v *viewport.Transformer) bool { return v.ZoomOut() })
}

// Pan shifts the view by (dx, dy) screen pixels.
func (s *Session) Pan(dx, dy float64) error {
	_, err := s.withView(func(v *viewport.Transformer) bool { v.Pan(dx, dy); return true })
	return err
}

// ResetView restores zoom 1 and a zero offset.
func (s *Session) ResetView() error {
	_, err := s.withView(func(v *viewport.Transformer) bool { v.Reset(); return true })
	return err
}

func (s *Session) withView(fn func(*viewport.Transformer) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil || s.view == nil {
		return false, rejected("no screenshot in view")
	}
	return fn(s.view), nil
}
