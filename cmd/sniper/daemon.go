package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/npa-sniper/internal/logging"
	"github.com/jonathan/npa-sniper/internal/planning"
)

// DefaultSchedule runs a snapshot and scrape every six hours, Bangkok time.
const DefaultSchedule = "0 */6 * * *"

var (
	daemonSchedule string
	daemonRunNow   bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run snapshot and scrape on a cron schedule",
	Long: "Runs a snapshot followed by a scrape on every tick of a five-field cron schedule evaluated in Asia/Bangkok. " +
		"Batch pauses are disabled. A tick that arrives while the previous cycle is still running is skipped.",
	RunE: runDaemonCmd,
}

func init() {
	daemonCmd.Flags().StringVar(&daemonSchedule, "schedule", "", "Cron schedule (default from SNIPER_SCHEDULE or "+DefaultSchedule+")")
	daemonCmd.Flags().BoolVar(&daemonRunNow, "run-now", false, "Run one cycle immediately at startup")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemonCmd(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	// No operator is watching a scheduled run.
	a.cfg.AutoContinue = true

	schedule := firstNonEmpty(daemonSchedule, a.cfg.Schedule, DefaultSchedule)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	return a.runDaemon(ctx, schedule, daemonRunNow, func(ctx context.Context) { a.cycle(ctx, out) })
}

// runDaemon blocks until ctx is cancelled, running job on schedule. It returns
// once the scheduler has stopped and every running job has observed the cancellation.
func (a *app) runDaemon(ctx context.Context, schedule string, runNow bool, job func(context.Context)) error {
	logger := a.logger.With(logging.String("schedule", schedule))
	loc, err := time.LoadLocation(planning.ThaiZone)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", planning.ThaiZone, err)
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{logger}),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)

	g, gCtx := errgroup.WithContext(ctx)

	entryID, err := c.AddFunc(schedule, func() { job(gCtx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	c.Start()
	logger.Info("daemon started", logging.Bool("run_now", runNow))

	if runNow {
		// Goes through the wrapped job so a tick during this cycle is skipped.
		wrapped := c.Entry(entryID).WrappedJob
		g.Go(func() error {
			wrapped.Run()
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("daemon stopping, waiting for the running cycle")
		<-c.Stop().Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("daemon stopped")
	return nil
}

// cycle runs one snapshot and scrape. Errors are logged; the next tick retries.
func (a *app) cycle(ctx context.Context, out io.Writer) {
	if ctx.Err() != nil {
		return
	}
	if _, err := a.snapshot(ctx, out); err != nil {
		// The scrape still runs and falls back to cursor mode.
		a.logger.Error("scheduled snapshot failed", logging.Error(err))
	}
	if ctx.Err() != nil {
		return
	}
	summary, err := a.scrape(ctx, strings.NewReader(""), out)
	if err != nil {
		a.logger.Error("scheduled scrape failed", logging.Error(err))
		return
	}
	a.logger.Info("scheduled cycle finished",
		logging.String("status", string(summary.Status)),
		logging.Int("inserted", summary.Inserted),
		logging.Int("updated", summary.Updated))
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(kvFields(keysAndValues), logging.Error(err))...)
}

func kvFields(keysAndValues []any) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logging.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
