package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/bigbrother/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "bigbrother",
	Short: "Process monitoring dashboard API",
	Long: `bigbrother serves the monitoring dashboard API: live and historical
logs of PM2-managed applications, process control, and JWT sessions for
the dashboard user.

Configuration is read from BB_* environment variables.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(serveCmd, versionCmd, tokenCmd)
}
