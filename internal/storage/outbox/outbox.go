package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// Status is the upload status of a journaled commit.
type Status string

const (
	StatusPending  Status = "pending"
	StatusUploaded Status = "uploaded"
	StatusRejected Status = "rejected"
)

var keyPrefix = []byte("commit/")

// Common errors
var (
	ErrNotFound = errors.New("outbox: record not found")
)

// Record is one journaled commit.
type Record struct {
	ID          string            `json:"id"`
	DraftID     string            `json:"draft_id"`
	Screenshot  string            `json:"screenshot"`
	Timestamp   int64             `json:"timestamp"`
	Status      Status            `json:"status"`
	Attempts    int               `json:"attempts"`
	LastError   string            `json:"last_error,omitempty"`
	StoredPaths map[string]string `json:"stored_paths,omitempty"`
	CreatedAt   int64             `json:"created_at"` // Unix ms
	UpdatedAt   int64             `json:"updated_at"` // Unix ms
}

// Config configures the outbox.
type Config struct {
	// Dir is the Badger directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps the journal in memory only.
	InMemory bool

	// SyncWrites fsyncs every write.
	// Default: true
	SyncWrites bool

	// GCInterval is the interval between value log GC runs. 0 disables GC.
	GCInterval time.Duration

	// GCThreshold is the discard ratio that triggers a value log rewrite.
	GCThreshold float64
}

// DefaultConfig returns the default configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		SyncWrites:  true,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}

// Outbox is the Badger-backed commit journal.
type Outbox struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens or creates the journal.
func Open(cfg Config, logger *slog.Logger) (*Outbox, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("outbox: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites
	// The journal is tiny; keep the footprint small.
	opts.ValueLogFileSize = 16 << 20
	opts.BlockCacheSize = 8 << 20
	opts.NumMemtables = 2

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("outbox: open db: %w", err)
	}

	o := &Outbox{
		db:     db,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go o.gcLoop()

	logger.Debug("outbox opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)
	return o, nil
}

func recordKey(id string) []byte {
	return append(append([]byte{}, keyPrefix...), id...)
}

// Put stores rec, stamping CreatedAt on first write and UpdatedAt always.
func (o *Outbox) Put(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return fmt.Errorf("outbox: record id is required")
	}
	now := o.now().UnixMilli()
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = StatusPending
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("outbox: encode record: %w", err)
	}
	return o.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.ID), value)
	})
}

// Get returns the record of a commit.
func (o *Outbox) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := o.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update applies fn to the stored record of id inside one transaction.
func (o *Outbox) Update(ctx context.Context, id string, fn func(*Record)) (*Record, error) {
	var rec Record
	err := o.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return fmt.Errorf("outbox: decode record: %w", err)
		}

		fn(&rec)
		rec.UpdatedAt = o.now().UnixMilli()

		value, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("outbox: encode record: %w", err)
		}
		return txn.Set(recordKey(id), value)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MarkUploaded records a successful upload attempt.
func (o *Outbox) MarkUploaded(ctx context.Context, id string, paths map[string]string) (*Record, error) {
	return o.Update(ctx, id, func(r *Record) {
		r.Status = StatusUploaded
		r.Attempts++
		r.LastError = ""
		r.StoredPaths = paths
	})
}

// MarkFailed records a failed upload attempt. Rejected records are not
// retried.
func (o *Outbox) MarkFailed(ctx context.Context, id string, cause error, rejected bool) (*Record, error) {
	return o.Update(ctx, id, func(r *Record) {
		r.Attempts++
		if cause != nil {
			r.LastError = cause.Error()
		}
		if rejected {
			r.Status = StatusRejected
		} else {
			r.Status = StatusPending
		}
	})
}

// List returns records oldest first. An empty status matches all.
func (o *Outbox) List(ctx context.Context, status Status) ([]*Record, error) {
	var out []*Record
	err := o.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("outbox: decode %s: %w", it.Item().Key(), err)
			}
			if status == "" || rec.Status == status {
				out = append(out, &rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Counts returns the number of records per status.
func (o *Outbox) Counts(ctx context.Context) (map[Status]int, error) {
	records, err := o.List(ctx, "")
	if err != nil {
		return nil, err
	}
	counts := map[Status]int{StatusPending: 0, StatusUploaded: 0, StatusRejected: 0}
	for _, r := range records {
		counts[r.Status]++
	}
	return counts, nil
}

// GC runs value log garbage collection until nothing is left to rewrite.
func (o *Outbox) GC(ctx context.Context) error {
	if o.cfg.InMemory {
		return nil
	}
	threshold := o.cfg.GCThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := o.db.RunValueLogGC(threshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				return nil
			}
			return fmt.Errorf("outbox: gc: %w", err)
		}
	}
}

// Close stops background GC and closes the database.
func (o *Outbox) Close() error {
	close(o.stopCh)
	<-o.doneCh

	if err := o.db.Close(); err != nil {
		return fmt.Errorf("outbox: close db: %w", err)
	}
	return nil
}

func (o *Outbox) gcLoop() {
	defer close(o.doneCh)

	if o.cfg.GCInterval <= 0 || o.cfg.InMemory {
		<-o.stopCh
		return
	}

	ticker := time.NewTicker(o.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if err := o.GC(ctx); err != nil {
				o.logger.Error("outbox gc failed", "error", err)
			}
			cancel()

		case <-o.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
