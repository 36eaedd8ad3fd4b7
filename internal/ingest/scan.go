package ingest

import (
	"context"

	"github.com/jonathan/npa-sniper/internal/feed"
	"github.com/jonathan/npa-sniper/internal/logging"
	"github.com/jonathan/npa-sniper/internal/progress"
	"github.com/jonathan/npa-sniper/internal/types"
)

// pageResult is the outcome of fetching and normalizing one page.
// It carries no side effects; the scan decides what to persist.
type pageResult struct {
	page     int
	rows     int
	total    float64
	listings []types.Listing
	err      error
}

// scan is the state machine of one category within a run.
type scan struct {
	o        *Orchestrator
	category feed.Category
	state    *progress.State
	window   *progress.Window
	planned  []int
	report   *CategoryReport
	log      logging.Logger
}

// run drives the scan to a terminal state. It returns false when the
// consumer stopped or the context ended, in which case the run is over.
func (s *scan) run(ctx context.Context, yield func(types.Listing, error) bool) bool {
	var more bool
	if s.report.State == StatePlanned {
		more = s.runPlan(ctx, yield)
	} else {
		more = s.runCursor(ctx, yield)
	}
	s.report.EndCursor = s.state.Cursor(s.category)
	if more {
		s.log.Info("category finished",
			logging.String("state", string(s.report.State)),
			logging.String("mode", string(s.report.Mode)),
			logging.Int("pages", s.report.PagesFetched),
			logging.Int("listings", s.report.Listings),
			logging.Int("cursor", s.report.EndCursor))
	}
	return more
}

// runPlan fetches the planned pages in order. Failed and empty pages are
// passed over; nothing beyond the plan is fetched.
func (s *scan) runPlan(ctx context.Context, yield func(types.Listing, error) bool) bool {
	for i, page := range s.planned {
		if !s.window.AllowNext() {
			s.report.DroppedPages = append(s.report.DroppedPages, s.planned[i:]...)
			s.report.transition(StatePausedOnWindow)
			s.log.Info("page window exhausted before finishing plan; resuming next run")
			return true
		}
		if err := ctx.Err(); err != nil {
			yield(types.Listing{}, err)
			return false
		}

		res := s.fetch(ctx, page)
		if res.err != nil {
			s.report.FailedPages = append(s.report.FailedPages, page)
			s.o.recorder.PageFailed(s.category.Label)
			s.log.Warn("planned page fetch failed", logging.Int("page", page), logging.Error(res.err))
			continue
		}
		if res.rows == 0 {
			s.report.EmptyPages = append(s.report.EmptyPages, page)
			continue
		}

		s.log.Info("pulled page", logging.Int("page", page), logging.Int("rows", res.rows), logging.String("mode", "plan"))
		if !s.emit(res, yield) {
			return false
		}
		s.advance(max(page, s.state.Cursor(s.category)))
		s.window.MarkComplete()
	}
	s.report.transition(StateDone)
	return true
}

// runCursor walks forward from the cursor until the feed runs out, the
// window fills or too many consecutive pages fail.
func (s *scan) runCursor(ctx context.Context, yield func(types.Listing, error) bool) bool {
	pageSize := s.o.fetcher.PageSize()
	page := max(1, s.state.Cursor(s.category)+1)
	failures := 0

	for {
		if !s.window.AllowNext() {
			s.report.transition(StatePausedOnWindow)
			s.log.Info("page window exhausted; resuming next run", logging.Int("page", page))
			return true
		}
		if err := ctx.Err(); err != nil {
			yield(types.Listing{}, err)
			return false
		}

		res := s.fetch(ctx, page)
		if res.err != nil {
			s.report.FailedPages = append(s.report.FailedPages, page)
			s.o.recorder.PageFailed(s.category.Label)
			if ctx.Err() != nil {
				yield(types.Listing{}, ctx.Err())
				return false
			}
			s.log.Warn("page fetch failed", logging.Int("page", page), logging.Error(res.err))

			if !s.o.opts.SkipFailedPages {
				s.report.transition(StatePausedOnFailureChain)
				return true
			}
			failures++
			if failures > s.o.opts.MaxSkipChain {
				s.report.transition(StatePausedOnFailureChain)
				s.log.Error("too many consecutive failed pages; pausing category",
					logging.Int("max_skip_chain", s.o.opts.MaxSkipChain))
				return true
			}

			// Skipping advances the cursor past the page for good; it is not retried on later runs.
			s.log.Warn("skipping page",
				logging.Int("page", page),
				logging.Int("skip", failures),
				logging.Int("max_skip_chain", s.o.opts.MaxSkipChain))
			s.report.SkippedPages = append(s.report.SkippedPages, page)
			s.o.recorder.PageSkipped(s.category.Label)
			s.advance(page)
			page++
			continue
		}

		if res.rows == 0 {
			s.report.EmptyPages = append(s.report.EmptyPages, page)
			s.report.transition(StateDone)
			return true
		}

		s.log.Info("pulled page", logging.Int("page", page), logging.Int("rows", res.rows), logging.String("mode", "cursor"))
		if !s.emit(res, yield) {
			return false
		}
		s.advance(page)
		s.window.MarkComplete()
		failures = 0

		switch {
		case s.o.opts.OnePageOnly:
			s.report.transition(StateDone)
			return true
		case s.window.Exhausted():
			s.report.transition(StatePausedOnWindow)
			s.log.Info("captured requested page window; pausing")
			return true
		case res.total > 0 && float64(page*pageSize) >= res.total:
			s.report.transition(StateDone)
			return true
		case res.rows < pageSize:
			s.report.transition(StateDone)
			return true
		}
		page++
	}
}

// fetch retrieves and normalizes one page.
func (s *scan) fetch(ctx context.Context, page int) pageResult {
	p, err := s.o.fetcher.FetchPage(ctx, s.category, page)
	if err != nil {
		return pageResult{page: page, err: err}
	}

	listings := make([]types.Listing, 0, len(p.Rows))
	for _, rec := range p.Rows {
		listings = append(listings, s.o.normalizer.Normalize(ctx, rec, s.category))
	}
	return pageResult{page: page, rows: len(p.Rows), total: p.TotalData, listings: listings}
}

// emit hands a page's listings to the consumer.
func (s *scan) emit(res pageResult, yield func(types.Listing, error) bool) bool {
	s.report.PagesFetched++
	s.o.recorder.PageFetched(s.category.Label, res.rows)
	for _, l := range res.listings {
		s.report.Listings++
		if !yield(l, nil) {
			return false
		}
	}
	return true
}

// advance records page as the category cursor and persists it.
func (s *scan) advance(page int) {
	s.state.SetCursor(s.category, page)
	if err := s.o.progress.Save(s.state); err != nil {
		s.log.Warn("failed to persist progress", logging.Int("page", page), logging.Error(err))
	}
}
