package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jonathan/npa-sniper/internal/config"
	"github.com/jonathan/npa-sniper/internal/db"
	"github.com/jonathan/npa-sniper/internal/feed"
	"github.com/jonathan/npa-sniper/internal/fetch"
	"github.com/jonathan/npa-sniper/internal/logging"
	"github.com/jonathan/npa-sniper/internal/metrics"
	"github.com/jonathan/npa-sniper/internal/planning"
	"github.com/jonathan/npa-sniper/internal/scoring"
	"github.com/jonathan/npa-sniper/internal/types"
)

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	logger logging.Logger
}

// loadApp reads configuration and builds the logger.
func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func (a *app) fetchClient() *fetch.Client {
	return fetch.NewClient(&fetch.Options{
		Timeout:           a.cfg.RequestTimeout,
		MaxRetries:        a.cfg.MaxRetries,
		Backoff:           a.cfg.RetryBackoff,
		RetryableStatuses: a.cfg.RetryableStatuses,
	}, a.logger)
}

func (a *app) feedClient(poster feed.Poster) *feed.Client {
	return feed.NewClient(poster, feed.Endpoints{
		Regular: a.cfg.RegularAPIURL,
		Auction: a.cfg.AuctionAPIURL,
	}, a.cfg.PageSize, a.logger)
}

// amenityLookupTimeout bounds one amenity request; a slow service must not stall a feed page.
const amenityLookupTimeout = 3 * time.Second

// scorer uses the amenity lookup service when one is configured,
// falling back to placeholder sub-scores. Lookups get a single attempt each
// so an unreachable service costs one timeout per listing, not a backoff chain.
func (a *app) scorer() scoring.AmenityScorer {
	placeholder := scoring.NewRandomPlaceholderScorer(a.cfg.AmenitySeed)
	if a.cfg.AmenityLookupURL == "" {
		return placeholder
	}
	lookups := fetch.NewClient(&fetch.Options{
		Timeout:    min(a.cfg.RequestTimeout, amenityLookupTimeout),
		MaxRetries: 1,
	}, a.logger)
	return scoring.NewGeoLookupScorer(lookups, a.cfg.AmenityLookupURL, placeholder, a.logger)
}

func (a *app) planSettings() planning.Settings {
	return planning.Settings{
		PageSize:         a.cfg.PageSize,
		HeadRefreshPages: a.cfg.HeadRefreshPages,
		TailRecheckPages: a.cfg.TailRecheckPages,
	}
}

// connectDB opens the database and applies the schema.
func (a *app) connectDB(ctx context.Context) (*db.DB, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set (set DATABASE_URL environment variable or database_url in the config file)")
	}
	database, err := db.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// pushMetrics sends run metrics when a Pushgateway is configured. Failures are logged only.
func (a *app) pushMetrics(ctx context.Context, m *metrics.Metrics) {
	if a.cfg.PushgatewayURL == "" {
		return
	}
	host, _ := os.Hostname()
	if err := m.Push(ctx, a.cfg.PushgatewayURL, host); err != nil {
		a.logger.Warn("metrics push failed", logging.Error(err))
	}
}

// regularLabels lists the regular category labels in scan order.
func regularLabels() []string {
	labels := make([]string, 0, len(feed.RegularCategories))
	for _, c := range feed.RegularCategories {
		labels = append(labels, c.Label)
	}
	return labels
}

// recordingSource remembers the snapshots it captured so they can be printed.
type recordingSource struct {
	inner    planning.MetadataSource
	metrics  *metrics.Metrics
	captured []types.FeedSnapshot
}

func (r *recordingSource) CaptureSnapshots(ctx context.Context) ([]types.FeedSnapshot, error) {
	snapshots, err := r.inner.CaptureSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	r.captured = snapshots
	if r.metrics != nil {
		r.metrics.SnapshotsRecorded(len(snapshots))
	}
	return snapshots, nil
}
