// Command fragile runs the settlement survival game headless: a
// deterministic hex world, one fragile city at a time, and a legacy
// ledger that carries across collapses.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagDBPath   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "fragile",
	Short: "A fragile-settlement survival simulation on an infinite hex world",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		switch flagLogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "data/fragile.db", "path to the save database")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
