// Package metrics provides Prometheus counters for scrape runs.
//
// A scrape is a short-lived batch job, so counters live in a private
// registry and are pushed to a Pushgateway when the run ends.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	// MetricsNamespace is the namespace for all sniper metrics.
	MetricsNamespace = "npa_sniper"

	// JobName groups pushed series on the Pushgateway.
	JobName = "npa_sniper"
)

// Metrics holds all Prometheus metrics for a run.
type Metrics struct {
	registry *prometheus.Registry

	// Feed metrics
	PagesFetched   *prometheus.CounterVec
	RowsFetched    *prometheus.CounterVec
	PagesFailed    *prometheus.CounterVec
	PagesSkipped   *prometheus.CounterVec
	SnapshotsTaken prometheus.Counter

	// Storage metrics
	ListingsStored    *prometheus.CounterVec
	DuplicatesSkipped prometheus.Counter
	BatchesCommitted  prometheus.Counter

	// Translation metrics
	TranslationFailures *prometheus.CounterVec

	// Run metrics
	LastRunTimestamp prometheus.Gauge
	RunsTotal        *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.initFeedMetrics(factory)
	m.initStorageMetrics(factory)
	m.initRunMetrics(factory)

	return m
}

func (m *Metrics) initFeedMetrics(factory promauto.Factory) {
	m.PagesFetched = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "feed",
			Name:      "pages_fetched_total",
			Help:      "Feed pages fetched successfully",
		},
		[]string{"category"},
	)

	m.RowsFetched = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "feed",
			Name:      "rows_fetched_total",
			Help:      "Raw records received from the feed",
		},
		[]string{"category"},
	)

	m.PagesFailed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "feed",
			Name:      "pages_failed_total",
			Help:      "Feed pages that failed after retries",
		},
		[]string{"category"},
	)

	m.PagesSkipped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "feed",
			Name:      "pages_skipped_total",
			Help:      "Failed pages passed over by the cursor",
		},
		[]string{"category"},
	)

	m.SnapshotsTaken = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "feed",
			Name:      "snapshots_total",
			Help:      "Feed size snapshots recorded",
		},
	)
}

func (m *Metrics) initStorageMetrics(factory promauto.Factory) {
	m.ListingsStored = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "storage",
			Name:      "listings_stored_total",
			Help:      "Listings upserted, by outcome",
		},
		[]string{"outcome"},
	)

	m.DuplicatesSkipped = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "storage",
			Name:      "duplicates_skipped_total",
			Help:      "Listings dropped because their URL was already seen in the run",
		},
	)

	m.BatchesCommitted = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "storage",
			Name:      "batches_committed_total",
			Help:      "Upsert transactions committed",
		},
	)

	m.TranslationFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "translate",
			Name:      "failures_total",
			Help:      "Translation backend failures",
		},
		[]string{"backend"},
	)
}

func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "runs_total",
			Help:      "Completed runs by command and status",
		},
		[]string{"command", "status"},
	)

	m.LastRunTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		},
	)
}

// Registry exposes the registry for scraping or inspection.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// PageFetched records a fetched page.
func (m *Metrics) PageFetched(category string, rows int) {
	m.PagesFetched.WithLabelValues(category).Inc()
	m.RowsFetched.WithLabelValues(category).Add(float64(rows))
}

// PageFailed records a page that exhausted its retries.
func (m *Metrics) PageFailed(category string) {
	m.PagesFailed.WithLabelValues(category).Inc()
}

// PageSkipped records a failed page the cursor moved past.
func (m *Metrics) PageSkipped(category string) {
	m.PagesSkipped.WithLabelValues(category).Inc()
}

// SnapshotsRecorded records appended feed snapshots.
func (m *Metrics) SnapshotsRecorded(n int) {
	m.SnapshotsTaken.Add(float64(n))
}

// ListingStored records one upsert.
func (m *Metrics) ListingStored(inserted bool) {
	outcome := "updated"
	if inserted {
		outcome = "inserted"
	}
	m.ListingsStored.WithLabelValues(outcome).Inc()
}

// DuplicateSkipped records a suppressed repeat URL.
func (m *Metrics) DuplicateSkipped() {
	m.DuplicatesSkipped.Inc()
}

// BatchCommitted records a committed transaction.
func (m *Metrics) BatchCommitted() {
	m.BatchesCommitted.Inc()
}

// TranslationFailed records a failed translation attempt.
func (m *Metrics) TranslationFailed(backend string) {
	m.TranslationFailures.WithLabelValues(backend).Inc()
}

// RunFinished records the end of a command.
func (m *Metrics) RunFinished(command, status string, unixSeconds float64) {
	m.RunsTotal.WithLabelValues(command, status).Inc()
	m.LastRunTimestamp.Set(unixSeconds)
}

// Push sends every metric to the Pushgateway at url. An empty url is a no-op.
func (m *Metrics) Push(ctx context.Context, url, instance string) error {
	if url == "" {
		return nil
	}
	pusher := push.New(url, JobName).Gatherer(m.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
