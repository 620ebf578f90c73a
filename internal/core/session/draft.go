package session

import (
	"github.com/johnmalek312/android-ui-collector/internal/capture"
	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/core/history"
)

// draft is one in-progress annotation pair. It lives from capture until
// commit or cancel and is never shared outside the session.
type draft struct {
	id         string
	frame      *capture.Frame
	timestamp  int64
	screenshot string

	cube     history.Points
	cubeDesc string
	cubeLog  *history.Stack

	// center is a single-element lane so center moves replay through the
	// same history machinery as cube edits.
	center     history.Points
	centerDesc string
	centerLog  *history.Stack
}

func newDraft(id string, frame *capture.Frame, timestamp int64, historyLimit int) *draft {
	return &draft{
		id:         id,
		frame:      frame,
		timestamp:  timestamp,
		screenshot: domain.ScreenshotName(timestamp),
		cubeLog:    history.NewStack(historyLimit),
		centerLog:  history.NewStack(historyLimit),
	}
}

func (d *draft) centerPoint() (domain.Point, bool) {
	if len(d.center) == 0 {
		return domain.Point{}, false
	}
	return d.center[0], true
}

// pair builds the annotation pair from the finalized draft.
func (d *draft) pair() domain.AnnotationPair {
	center, _ := d.centerPoint()
	return domain.AnnotationPair{
		Cube: domain.CubeAnnotation{
			Screenshot:  d.screenshot,
			Timestamp:   d.timestamp,
			Points:      append([]domain.Point(nil), d.cube...),
			Description: d.cubeDesc,
		},
		Center: domain.CenterPointAnnotation{
			Screenshot:  d.screenshot,
			Timestamp:   d.timestamp,
			CenterPoint: center,
			Description: d.centerDesc,
		},
	}
}
