package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/storage/outbox"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/logger"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/metric"
	"github.com/johnmalek312/android-ui-collector/internal/upload"
)

// DefaultQueueSize is the commit queue capacity.
const DefaultQueueSize = 16

// Store persists screenshots and datasets.
type Store interface {
	SaveImage(ctx context.Context, name string, data []byte) (string, error)
	LoadImage(ctx context.Context, name string) ([]byte, error)

	// AppendPair appends cube then center and returns the datasets written.
	AppendPair(ctx context.Context, pair *domain.AnnotationPair) ([]string, error)

	Snapshot(ctx context.Context, name string) ([]byte, error)
}

// Journal tracks the upload status of committed pairs.
type Journal interface {
	Put(ctx context.Context, rec *outbox.Record) error
	MarkUploaded(ctx context.Context, id string, paths map[string]string) (*outbox.Record, error)
	MarkFailed(ctx context.Context, id string, cause error, rejected bool) (*outbox.Record, error)
	List(ctx context.Context, status outbox.Status) ([]*outbox.Record, error)
}

// Uploader sends a payload to the sink.
type Uploader interface {
	Send(ctx context.Context, p *upload.Payload) (*upload.Result, error)
}

// CommitConfig configures a CommitService.
type CommitConfig struct {
	// QueueSize bounds queued commits. Submit blocks when full.
	QueueSize int

	// Dataset names sent with uploads. Defaults to the domain names.
	CubeName   string
	CenterName string

	// Uploader is optional; nil means upload is disabled and every
	// commit ends local_only.
	Uploader Uploader

	// Journal is optional.
	Journal Journal

	// Metrics is optional.
	Metrics *metric.Registry

	Logger *slog.Logger
}

// CommitService runs commits on a single background worker, strictly in
// submission order, and publishes one result per commit.
type CommitService struct {
	store    Store
	uploader Uploader
	journal  Journal
	metrics  *metric.Registry
	logger   *slog.Logger
	cfg      CommitConfig

	queue   chan *domain.CommitRequest
	results chan *domain.CommitResult

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
}

// NewCommitService creates a stopped service. Call Start to run the worker.
func NewCommitService(store Store, cfg CommitConfig) *CommitService {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.CubeName == "" {
		cfg.CubeName = domain.DatasetCube
	}
	if cfg.CenterName == "" {
		cfg.CenterName = domain.DatasetCenter
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &CommitService{
		store:    store,
		uploader: cfg.Uploader,
		journal:  cfg.Journal,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		cfg:      cfg,
		queue:    make(chan *domain.CommitRequest, cfg.QueueSize),
		results:  make(chan *domain.CommitResult, cfg.QueueSize),
		done:     make(chan struct{}),
	}
}

// Start launches the worker. ctx bounds the I/O of each commit; cancelling
// it does not drop queued commits, use Close for that.
func (s *CommitService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	go s.run(ctx)
}

// Results returns the channel carrying one result per submitted commit.
// It is closed after Close once the queue has drained. The consumer must
// keep draining it or the worker stalls.
func (s *CommitService) Results() <-chan *domain.CommitResult {
	return s.results
}

// Submit enqueues a commit.
func (s *CommitService) Submit(ctx context.Context, req *domain.CommitRequest) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return domain.ErrPipelineClosed
	}
	select {
	case s.queue <- req:
		s.setQueueDepth()
		return nil
	case <-ctx.Done():
		return domain.ErrPipelineClosed.WithDetails("submit cancelled").WithCause(ctx.Err())
	}
}

// Close stops accepting commits and waits until queued ones are processed
// or ctx expires.
func (s *CommitService) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	started := s.started
	s.mu.Unlock()

	if !started {
		close(s.results)
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CommitService) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.results)

	for req := range s.queue {
		s.setQueueDepth()
		res := s.Process(ctx, req)
		s.results <- res
	}
}

func (s *CommitService) setQueueDepth() {
	if s.metrics != nil {
		s.metrics.SetQueueDepth(len(s.queue))
	}
}

// Process runs one commit synchronously: save the screenshot, append both
// datasets, journal, upload. The worker calls it for each queued request.
func (s *CommitService) Process(ctx context.Context, req *domain.CommitRequest) *domain.CommitResult {
	start := time.Now()
	res := &domain.CommitResult{ID: req.ID, DraftID: req.DraftID}
	ctx = logger.WithCommit(ctx, req.ID, req.Pair.Cube.Screenshot)
	log := logger.Enrich(ctx, s.logger)

	defer func() {
		res.Duration = time.Since(start)
		if s.metrics != nil {
			s.metrics.RecordCommit(string(res.Status), res.Duration.Seconds())
		}
		log.Info("commit processed", "status", res.Status, "appended", res.Appended, "elapsed", res.Duration)
	}()

	// 1. Screenshot first: a dataset entry must never reference a missing image.
	if _, err := s.store.SaveImage(ctx, req.Pair.Cube.Screenshot, req.Image); err != nil {
		log.Error("save screenshot failed", "error", err)
		res.Status, res.Err = domain.CommitFailed, err
		return res
	}

	// 2. Datasets, cube then center.
	appended, err := s.store.AppendPair(ctx, &req.Pair)
	res.Appended = appended
	s.recordAppends(appended, err)
	if err != nil {
		res.Err = err
		if len(appended) > 0 {
			res.Status = domain.CommitPartial
		} else {
			res.Status = domain.CommitFailed
		}
		log.Error("dataset append failed", "status", res.Status, "error", err)
		return res
	}

	// 3. Journal. Failure here only costs the ability to retry the upload later.
	if s.journal != nil {
		rec := &outbox.Record{
			ID:         req.ID,
			DraftID:    req.DraftID,
			Screenshot: req.Pair.Cube.Screenshot,
			Timestamp:  req.Pair.Cube.Timestamp,
			Status:     outbox.StatusPending,
		}
		if err := s.journal.Put(ctx, rec); err != nil {
			log.Warn("journal write failed", "error", err)
		}
	}

	// 4. Upload the screenshot with both full datasets.
	if s.uploader == nil {
		if s.metrics != nil {
			s.metrics.RecordUpload("disabled", 0)
		}
		res.Status, res.Err = domain.CommitLocalOnly, domain.ErrUploadDisabled
		return res
	}

	paths, err := s.upload(ctx, req.ID, req.Pair.Cube.Screenshot, req.Image)
	if err != nil {
		res.Status, res.Err = domain.CommitLocalOnly, err
		return res
	}
	res.Status, res.StoredPaths = domain.CommitSuccess, paths
	return res
}

func (s *CommitService) recordAppends(appended []string, err error) {
	if s.metrics == nil {
		return
	}
	for _, name := range appended {
		s.metrics.RecordAppend(name, true)
	}
	if err != nil {
		failed := s.cfg.CubeName
		if len(appended) > 0 {
			failed = s.cfg.CenterName
		}
		s.metrics.RecordAppend(failed, false)
	}
}

// upload sends the image and the current datasets, then updates the
// journal record id.
func (s *CommitService) upload(ctx context.Context, id, imageName string, image []byte) (map[string]string, error) {
	start := time.Now()

	cube, err := s.store.Snapshot(ctx, s.cfg.CubeName)
	if err != nil {
		return nil, err
	}
	center, err := s.store.Snapshot(ctx, s.cfg.CenterName)
	if err != nil {
		return nil, err
	}

	res, err := s.uploader.Send(ctx, &upload.Payload{
		RequestID:  id,
		ImageName:  imageName,
		Image:      image,
		CubeName:   s.cfg.CubeName,
		Cube:       cube,
		CenterName: s.cfg.CenterName,
		Center:     center,
	})

	rejected := errors.Is(err, domain.ErrUploadRejected)
	if s.metrics != nil {
		label := "success"
		switch {
		case rejected:
			label = "rejected"
		case err != nil:
			label = "transient"
		}
		s.metrics.RecordUpload(label, time.Since(start).Seconds())
	}

	log := logger.Enrich(ctx, s.logger)
	if err != nil {
		log.Warn("upload failed, data kept locally", "error", err)
		if s.journal != nil {
			if _, jerr := s.journal.MarkFailed(ctx, id, err, rejected); jerr != nil && !errors.Is(jerr, outbox.ErrNotFound) {
				log.Warn("journal update failed", "error", jerr)
			}
		}
		return nil, err
	}

	if s.journal != nil {
		if _, jerr := s.journal.MarkUploaded(ctx, id, res.Files); jerr != nil && !errors.Is(jerr, outbox.ErrNotFound) {
			log.Warn("journal update failed", "error", jerr)
		}
	}
	return res.Files, nil
}
