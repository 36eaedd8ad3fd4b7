package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/npa-sniper/internal/ingest"
	"github.com/jonathan/npa-sniper/internal/logging"
	"github.com/jonathan/npa-sniper/internal/metrics"
	"github.com/jonathan/npa-sniper/internal/normalize"
	"github.com/jonathan/npa-sniper/internal/observability"
	"github.com/jonathan/npa-sniper/internal/planning"
	"github.com/jonathan/npa-sniper/internal/progress"
	"github.com/jonathan/npa-sniper/internal/storage"
	"github.com/jonathan/npa-sniper/internal/translate"
	"github.com/jonathan/npa-sniper/internal/types"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch listings and upsert them into the database",
	Long: "Walks every feed category, following the pending delta plan when one exists and the saved cursor otherwise, " +
		"and upserts normalized listings in batches. Progress is saved after every page so an interrupted run resumes where it stopped.",
	RunE: runScrapeCmd,
}

var (
	scrapeOnePageOnly     bool
	scrapePagesPerRun     int
	scrapeAutoContinue    bool
	scrapeSkipTranslation bool
)

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeOnePageOnly, "one-page-only", false, "Fetch at most one page per category in cursor mode")
	scrapeCmd.Flags().IntVar(&scrapePagesPerRun, "pages-per-run", 0, "Maximum pages fetched this run across all categories (0 = unbounded)")
	scrapeCmd.Flags().BoolVar(&scrapeAutoContinue, "auto-continue", false, "Never pause between batches")
	scrapeCmd.Flags().BoolVar(&scrapeSkipTranslation, "skip-translation", false, "Store original text in the translated columns")

	rootCmd.AddCommand(scrapeCmd)
}

// applyScrapeFlags lets explicitly set flags override configuration.
func applyScrapeFlags(cmd *cobra.Command, a *app) {
	flags := cmd.Flags()
	if flags.Changed("one-page-only") {
		a.cfg.OnePageOnly = scrapeOnePageOnly
	}
	if flags.Changed("pages-per-run") {
		a.cfg.PagesPerRun = max(0, scrapePagesPerRun)
	}
	if flags.Changed("auto-continue") {
		a.cfg.AutoContinue = scrapeAutoContinue
	}
	if flags.Changed("skip-translation") {
		a.cfg.SkipTranslate = scrapeSkipTranslation
	}
}

func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()
	applyScrapeFlags(cmd, a)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := a.scrape(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Status == types.RunStatusAborted {
		a.logger.Warn("run aborted by operator; committed batches are kept")
	}
	return nil
}

// scrape runs one ingest pass and records it in ingest_runs.
func (a *app) scrape(ctx context.Context, in io.Reader, out io.Writer) (types.RunSummary, error) {
	m := metrics.New()
	printer := observability.NewPrinter(out)

	database, err := a.connectDB(ctx)
	if err != nil {
		return types.RunSummary{}, err
	}
	defer database.Close()

	runID, err := database.CreateRun(ctx, "scrape")
	if err != nil {
		return types.RunSummary{}, err
	}
	log := a.logger.With(logging.String("run_id", runID.String()))
	log.Info("scrape started",
		logging.Int("page_size", a.cfg.PageSize),
		logging.Int("pages_per_run", a.cfg.PagesPerRun),
		logging.Bool("one_page_only", a.cfg.OnePageOnly))

	tracker := progress.NewTracker(a.cfg.ProgressFile, log)
	logStartPoint(log, tracker)

	orch := ingest.New(
		a.feedClient(a.fetchClient()),
		normalize.New(a.scorer()),
		tracker,
		planning.NewPlanFile(a.cfg.PlanFile),
		ingest.Options{
			PagesPerRun:     a.cfg.PagesPerRun,
			OnePageOnly:     a.cfg.OnePageOnly,
			SkipFailedPages: a.cfg.SkipFailedPages,
			MaxSkipChain:    a.cfg.MaxSkipChain,
		},
		log,
	).WithRecorder(m)

	translators := translate.FromConfig(ctx, a.cfg, m, log)
	defer func() { _ = translators.Close() }()

	persister := storage.NewPersister(
		storage.DBStore{DB: database},
		translators.Translator,
		storage.NewTerminalConfirmer(in, out, a.cfg.BatchPause, a.cfg.AutoContinue),
		storage.Options{BatchSize: a.cfg.BatchSize, TargetLanguage: translate.English},
		log,
	).WithRecorder(m)

	summary, runErr := persister.Persist(ctx, orch.Listings(ctx))

	printer.PrintCategoryReports(orch.Report())
	printer.PrintRunSummary(summary)

	// Record the outcome even when the run was interrupted.
	finishCtx := context.WithoutCancel(ctx)
	if err := database.CompleteRun(finishCtx, runID, summary, runErr); err != nil {
		log.Warn("failed to record run outcome", logging.Error(err))
	}
	if total, err := database.CountProperties(finishCtx); err != nil {
		log.Warn("failed to count properties", logging.Error(err))
	} else {
		log.Info("properties table size", logging.Int("total", total))
	}
	m.RunFinished("scrape", string(summary.Status), float64(time.Now().Unix()))
	a.pushMetrics(finishCtx, m)

	if runErr != nil {
		return summary, fmt.Errorf("scrape failed: %w", runErr)
	}
	return summary, nil
}

// logStartPoint says whether the run resumes from saved cursors or starts at page 1.
func logStartPoint(log logging.Logger, tracker *progress.Tracker) {
	if !tracker.Exists() {
		log.Info("no saved progress yet; every category starts at page 1",
			logging.String("progress_file", tracker.Path()))
		return
	}
	log.Info("resuming from saved progress", logging.String("progress_file", tracker.Path()))
}
