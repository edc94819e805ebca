// Package main is the entry point for the productivity tracker server.
//
// The main package stays minimal — its job is to:
//  1. Set up logging
//  2. Load configuration
//  3. Prepare the data directories
//  4. Build and start the server
//
// All actual logic lives in the internal packages. This separation keeps the
// app testable and its components reusable.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/enockm/productivity-tracker/internal/config"
	"github.com/enockm/productivity-tracker/internal/server"
)

func main() {
	// slog with a text handler for human-readable development logs. Levels
	// from least to most severe: Debug → Info → Warn → Error.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.Env == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	// The database file and upload directory live under data/ by default;
	// create them up front so first run works without manual setup.
	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
