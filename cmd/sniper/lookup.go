package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/npa-sniper/internal/observability"
)

var lookupJSON bool

var propertyCmd = &cobra.Command{
	Use:   "property",
	Short: "Look up stored properties",
}

var propertyGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one property by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		database, err := a.connectDB(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		prop, err := database.GetPropertyByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		if lookupJSON {
			return writeJSON(cmd, prop)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintProperty(prop)
		return nil
	},
}

var savedUser string

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage a user's saved properties",
}

var savedAddCmd = &cobra.Command{
	Use:   "add <property-id>",
	Short: "Add a property to the saved list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSavedList(cmd, args, func(a *app, id int64) error {
			database, err := a.connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()

			added, err := database.SaveProperty(cmd.Context(), savedUser, id)
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved property %d for %s\n", id, savedUser)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Property %d was already saved for %s\n", id, savedUser)
			}
			return nil
		})
	},
}

var savedRemoveCmd = &cobra.Command{
	Use:   "remove <property-id>",
	Short: "Remove a property from the saved list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSavedList(cmd, args, func(a *app, id int64) error {
			database, err := a.connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()

			removed, err := database.RemoveSavedProperty(cmd.Context(), savedUser, id)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed property %d for %s\n", id, savedUser)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Property %d was not saved for %s\n", id, savedUser)
			}
			return nil
		})
	},
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved properties, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		database, err := a.connectDB(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		saved, err := database.ListSavedProperties(cmd.Context(), savedUser)
		if err != nil {
			return err
		}
		if lookupJSON {
			return writeJSON(cmd, saved)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintSavedProperties(savedUser, saved)
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent scrape runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		database, err := a.connectDB(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := database.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return writeJSON(cmd, runs)
	},
}

func init() {
	propertyCmd.PersistentFlags().BoolVar(&lookupJSON, "json", false, "Print JSON instead of a summary box")
	propertyCmd.AddCommand(propertyGetCmd)

	savedCmd.PersistentFlags().StringVarP(&savedUser, "user", "u", "", "Username owning the saved list (required)")
	if err := savedCmd.MarkPersistentFlagRequired("user"); err != nil {
		panic(fmt.Sprintf("failed to mark user flag as required: %v", err))
	}
	savedListCmd.Flags().BoolVar(&lookupJSON, "json", false, "Print JSON instead of a summary box")
	savedCmd.AddCommand(savedAddCmd, savedRemoveCmd, savedListCmd)

	runsCmd.Flags().Int("limit", 20, "Number of runs to show")

	rootCmd.AddCommand(propertyCmd, savedCmd, runsCmd)
}

func withSavedList(cmd *cobra.Command, args []string, fn func(a *app, id int64) error) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a, id)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid property id %q", raw)
	}
	return id, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
