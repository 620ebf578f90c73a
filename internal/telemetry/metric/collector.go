package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/johnmalek312/android-ui-collector/internal/storage/outbox"
)

// OutboxCounter reports journal record counts per status.
type OutboxCounter interface {
	Counts(ctx context.Context) (map[outbox.Status]int, error)
}

// OutboxCollector exposes the outbox record counts at scrape time.
type OutboxCollector struct {
	source OutboxCounter
	desc   *prometheus.Desc
}

// NewOutboxCollector creates a collector over source.
func NewOutboxCollector(source OutboxCounter) *OutboxCollector {
	return &OutboxCollector{
		source: source,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "outbox", "records"),
			"Journaled commits, by upload status.",
			[]string{"status"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *OutboxCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *OutboxCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	counts, err := c.source.Counts(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), string(status))
	}
}
