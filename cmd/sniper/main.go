// Package main provides the sniper CLI: it scrapes the BAM asset feeds into
// PostgreSQL, maintains the delta page plan, and answers keyed lookups.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "sniper",
	Short: "BAM NPA listing sniper",
	Long: "Pulls listings from the BAM regular and auction feeds, normalizes and scores them, and upserts them into PostgreSQL. " +
		"A snapshot run records feed sizes and writes a delta page plan so the next scrape only re-fetches pages likely to have changed.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Optional JSON or YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
