package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "uicollector"

// Registry holds all application metrics on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	// Commit pipeline
	CommitsTotal   *prometheus.CounterVec
	CommitDuration prometheus.Histogram
	AppendsTotal   *prometheus.CounterVec
	UploadAttempts *prometheus.CounterVec
	UploadDuration prometheus.Histogram
	CapturesTotal  *prometheus.CounterVec
	QueueDepth     prometheus.Gauge

	// Sink
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	StoredBytes     prometheus.Counter
	RateLimited     prometheus.Counter
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// NewRegistry creates a registry with Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,

		CommitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Commits processed, by outcome status.",
		}, []string{"status"}),

		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_duration_seconds",
			Help:      "Time from dequeue to commit result.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),

		AppendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_appends_total",
			Help:      "Dataset append attempts, by dataset and result.",
		}, []string{"dataset", "result"}),

		UploadAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload calls, by result.",
		}, []string{"result"}),

		UploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Upload latency including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),

		CapturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Screen captures, by result.",
		}, []string{"result"}),

		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "commit_queue_depth",
			Help:      "Commits waiting for the worker.",
		}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "requests_total",
			Help:      "Sink HTTP requests, by method, path and status.",
		}, []string{"method", "path", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "request_duration_seconds",
			Help:      "Sink HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		StoredBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "stored_bytes_total",
			Help:      "Bytes written to the uploads directory.",
		}),

		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "rate_limited_total",
			Help:      "Requests refused by the rate limiter.",
		}),
	}

	reg.MustRegister(
		r.CommitsTotal,
		r.CommitDuration,
		r.AppendsTotal,
		r.UploadAttempts,
		r.UploadDuration,
		r.CapturesTotal,
		r.QueueDepth,
		r.RequestsTotal,
		r.RequestDuration,
		r.StoredBytes,
		r.RateLimited,
	)
	return r
}

// Register adds a custom collector, e.g. an OutboxCollector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ============================================================================
// Commit pipeline
// ============================================================================

// RecordCommit counts one commit result and its latency.
func (r *Registry) RecordCommit(status string, seconds float64) {
	r.CommitsTotal.WithLabelValues(status).Inc()
	r.CommitDuration.Observe(seconds)
}

// RecordAppend counts one dataset append.
func (r *Registry) RecordAppend(dataset string, ok bool) {
	r.AppendsTotal.WithLabelValues(dataset, result(ok)).Inc()
}

// RecordUpload counts one upload call ("success", "transient", "rejected",
// "disabled") and its latency.
func (r *Registry) RecordUpload(res string, seconds float64) {
	r.UploadAttempts.WithLabelValues(res).Inc()
	if seconds > 0 {
		r.UploadDuration.Observe(seconds)
	}
}

// RecordCapture counts one capture by error code or "ok".
func (r *Registry) RecordCapture(res string) {
	r.CapturesTotal.WithLabelValues(res).Inc()
}

// SetQueueDepth sets the number of waiting commits.
func (r *Registry) SetQueueDepth(n int) {
	r.QueueDepth.Set(float64(n))
}

// ============================================================================
// Sink
// ============================================================================

// RecordRequest counts one sink request and its latency.
func (r *Registry) RecordRequest(method, path, status string, seconds float64) {
	r.RequestsTotal.WithLabelValues(method, path, status).Inc()
	r.RequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// AddStoredBytes adds to the stored bytes counter.
func (r *Registry) AddStoredBytes(n int64) {
	r.StoredBytes.Add(float64(n))
}

// IncRateLimited counts a refused request.
func (r *Registry) IncRateLimited() {
	r.RateLimited.Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
