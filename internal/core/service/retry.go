package service

import (
	"context"
	"errors"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/storage/outbox"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/logger"
)

// RetrySummary reports an upload retry pass.
type RetrySummary struct {
	Attempted int `json:"attempted"`
	Uploaded  int `json:"uploaded"`
	Failed    int `json:"failed"`
	Rejected  int `json:"rejected"`
}

// RetryPending re-uploads every pending journal record, oldest first,
// with the current datasets. It stops at the first transient failure:
// the sink is likely still down and later records would fail the same way.
func (s *CommitService) RetryPending(ctx context.Context) (*RetrySummary, error) {
	if s.uploader == nil {
		return nil, domain.ErrUploadDisabled
	}
	if s.journal == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("outbox is disabled")
	}

	pending, err := s.journal.List(ctx, outbox.StatusPending)
	if err != nil {
		return nil, domain.ErrPersistence.WithCause(err)
	}

	summary := &RetrySummary{}
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Attempted++
		rctx := logger.WithCommit(ctx, rec.ID, rec.Screenshot)

		image, err := s.store.LoadImage(rctx, rec.Screenshot)
		if err != nil {
			log := logger.Enrich(rctx, s.logger)
			log.Warn("screenshot missing, skipping", "error", err)
			if _, jerr := s.journal.MarkFailed(rctx, rec.ID, err, true); jerr != nil {
				log.Warn("journal update failed", "error", jerr)
			}
			summary.Rejected++
			continue
		}

		_, err = s.upload(rctx, rec.ID, rec.Screenshot, image)
		switch {
		case err == nil:
			summary.Uploaded++
		case errors.Is(err, domain.ErrUploadRejected):
			summary.Rejected++
		default:
			summary.Failed++
			return summary, err
		}
	}
	return summary, nil
}
