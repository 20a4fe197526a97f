package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/bigbrother/internal/app"
	"github.com/MrSnakeDoc/bigbrother/internal/config"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API and the refresh token sweeper. The process stops
gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = loggerClient.Sync() }()

	a, err := app.New(context.Background(), cfg, loggerClient)
	if err != nil {
		loggerClient.Error("❌ bigbrother failed to start", logger.Error(err))
		return fmt.Errorf("start: %w", err)
	}
	return a.Run()
}
