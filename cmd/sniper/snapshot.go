package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/npa-sniper/internal/metrics"
	"github.com/jonathan/npa-sniper/internal/observability"
	"github.com/jonathan/npa-sniper/internal/planning"
	"github.com/jonathan/npa-sniper/internal/types"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record feed sizes and write the delta page plan",
	Long: "Fetches page 1 of every category to read its total size, appends the sizes to bam_feed_snapshot, " +
		"and writes a page plan covering the head pages and the pages that changed since the previous snapshot.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		_, err = a.snapshot(cmd.Context(), cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

// snapshot records feed sizes and writes the next plan.
func (a *app) snapshot(ctx context.Context, out io.Writer) (*types.PagePlan, error) {
	m := metrics.New()

	database, err := a.connectDB(ctx)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	source := &recordingSource{inner: a.feedClient(a.fetchClient()), metrics: m}
	service := planning.NewSnapshotService(database, source, planning.NewPlanFile(a.cfg.PlanFile), a.planSettings(), a.logger)

	plan, err := service.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	m.RunFinished("snapshot", status, float64(time.Now().Unix()))
	a.pushMetrics(context.WithoutCancel(ctx), m)
	if err != nil {
		return nil, err
	}

	printer := observability.NewPrinter(out)
	printer.PrintSnapshots(source.captured)
	printer.PrintPlan(plan, regularLabels())
	return plan, nil
}
