// Package ingest drives the feed client across categories and pages and
// streams normalized listings to the caller.
//
// Each category runs through an explicit state machine. In plan mode the
// category's planned pages are fetched in order; otherwise the scan resumes
// from the persisted cursor and walks forward until the feed runs out. The
// cursor is advanced and saved only after a page's listings have been
// consumed, so a crash re-fetches at most one page.
package ingest

import (
	"context"
	"iter"
	"slices"

	"github.com/jonathan/npa-sniper/internal/feed"
	"github.com/jonathan/npa-sniper/internal/logging"
	"github.com/jonathan/npa-sniper/internal/progress"
	"github.com/jonathan/npa-sniper/internal/types"
)

// PageFetcher fetches one decoded feed page. *feed.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, category feed.Category, page int) (*feed.Page, error)
	PageSize() int
}

// RecordNormalizer maps a raw record to a listing. *normalize.Normalizer implements it.
type RecordNormalizer interface {
	Normalize(ctx context.Context, rec feed.Record, category feed.Category) types.Listing
}

// ProgressStore persists cursors. *progress.Tracker implements it.
type ProgressStore interface {
	Load() *progress.State
	Save(state *progress.State) error
}

// PlanStore yields the single-use page plan. *planning.PlanFile implements it.
type PlanStore interface {
	Load() (*types.PagePlan, error)
	Consume() error
}

// Recorder observes page outcomes. Implementations must be cheap.
type Recorder interface {
	PageFetched(category string, rows int)
	PageFailed(category string)
	PageSkipped(category string)
}

// Options tune the scan.
type Options struct {
	Categories      []feed.Category
	PagesPerRun     int
	OnePageOnly     bool
	SkipFailedPages bool
	MaxSkipChain    int
}

// Orchestrator produces the listing stream of one run.
type Orchestrator struct {
	fetcher    PageFetcher
	normalizer RecordNormalizer
	progress   ProgressStore
	plans      PlanStore
	recorder   Recorder
	opts       Options
	logger     logging.Logger

	reports []CategoryReport
}

// New creates an Orchestrator. Categories default to every regular category followed by the auction feed.
func New(fetcher PageFetcher, normalizer RecordNormalizer, progressStore ProgressStore, plans PlanStore, opts Options, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(opts.Categories) == 0 {
		opts.Categories = feed.AllCategories()
	}
	opts.MaxSkipChain = max(1, opts.MaxSkipChain)
	return &Orchestrator{
		fetcher:    fetcher,
		normalizer: normalizer,
		progress:   progressStore,
		plans:      plans,
		recorder:   nopRecorder{},
		opts:       opts,
		logger:     logger,
	}
}

// WithRecorder sets the page outcome observer.
func (o *Orchestrator) WithRecorder(r Recorder) *Orchestrator {
	if r != nil {
		o.recorder = r
	}
	return o
}

// Report returns per-category outcomes of the last iteration.
func (o *Orchestrator) Report() []CategoryReport {
	return slices.Clone(o.reports)
}

// Listings returns the lazy listing stream. Iterating drives every network
// call and progress write; iterating again repeats them. The only errors
// yielded are context cancellations, after which the stream ends.
// The plan, if any, is consumed once every category has been visited.
func (o *Orchestrator) Listings(ctx context.Context) iter.Seq2[types.Listing, error] {
	return func(yield func(types.Listing, error) bool) {
		o.reports = o.reports[:0]

		state := o.progress.Load()
		plan, err := o.plans.Load()
		if err != nil {
			o.logger.Warn("ignoring unusable plan", logging.Error(err))
			plan = nil
		}

		window := progress.NewWindow(o.opts.PagesPerRun)
		o.logger.Info("starting scan",
			logging.Int("pages_per_run", window.Target()),
			logging.Bool("plan", plan != nil),
			logging.Int("planned_pages", plan.TotalPages()))

		for _, category := range o.opts.Categories {
			scan := o.newScan(category, state, plan, window)
			more := scan.run(ctx, yield)
			o.reports = append(o.reports, *scan.report)
			if !more {
				return
			}
		}

		if plan != nil {
			o.warnDropped()
			if err := o.plans.Consume(); err != nil {
				o.logger.Warn("failed to consume plan", logging.Error(err))
			}
		}
	}
}

func (o *Orchestrator) warnDropped() {
	for _, r := range o.reports {
		if len(r.DroppedPages) > 0 {
			o.logger.Warn("planned pages not fetched before the window filled; they will not be carried over",
				logging.String("category", r.Category),
				logging.Ints("pages", r.DroppedPages))
		}
	}
}

func (o *Orchestrator) newScan(category feed.Category, state *progress.State, plan *types.PagePlan, window *progress.Window) *scan {
	var planned []int
	if category.IsAuction() {
		planned = plan.AuctionPages()
	} else {
		planned = plan.RegularPages(category.Label)
	}

	report := &CategoryReport{
		Category:    category.Label,
		FeedType:    category.FeedType,
		Mode:        ModeCursor,
		State:       StateCursorScan,
		StartCursor: state.Cursor(category),
	}
	if len(planned) > 0 {
		report.Mode = ModePlan
		report.State = StatePlanned
	}

	return &scan{
		o:        o,
		category: category,
		state:    state,
		window:   window,
		planned:  planned,
		report:   report,
		log:      o.logger.With(logging.String("category", category.Label)),
	}
}

type nopRecorder struct{}

func (nopRecorder) PageFetched(string, int) {}
func (nopRecorder) PageFailed(string)       {}
func (nopRecorder) PageSkipped(string)      {}
