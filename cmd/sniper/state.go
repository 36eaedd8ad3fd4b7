package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/npa-sniper/internal/observability"
	"github.com/jonathan/npa-sniper/internal/planning"
	"github.com/jonathan/npa-sniper/internal/progress"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or reset the saved scrape cursors",
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the last completed page of every category",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		tracker := progress.NewTracker(a.cfg.ProgressFile, a.logger)
		observability.NewPrinter(cmd.OutOrStdout()).PrintProgress(tracker.Load(), regularLabels())
		return nil
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the progress file so the next scrape starts from page 1",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		tracker := progress.NewTracker(a.cfg.ProgressFile, a.logger)
		if err := tracker.Reset(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Progress reset (%s)\n", tracker.Path())
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Inspect or discard the pending delta page plan",
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the pending page plan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		plan, err := planning.NewPlanFile(a.cfg.PlanFile).Load()
		if err != nil {
			return err
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintPlan(plan, regularLabels())
		return nil
	},
}

var planDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Delete the pending page plan without running it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		plans := planning.NewPlanFile(a.cfg.PlanFile)
		if err := plans.Consume(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Plan discarded (%s)\n", plans.Path())
		return nil
	},
}

func init() {
	progressCmd.AddCommand(progressShowCmd, progressResetCmd)
	planCmd.AddCommand(planShowCmd, planDiscardCmd)
	rootCmd.AddCommand(progressCmd, planCmd)
}
