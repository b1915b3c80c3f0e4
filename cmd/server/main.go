// Package main is the entry point for the Warbler server.
//
// It only reads configuration, builds the logger and hands both to
// internal/server. All behaviour lives in the internal packages.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/warbler/internal/config"
	"github.com/sakif/warbler/internal/repository/sqlstore"
	"github.com/sakif/warbler/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := cfg.Logger(os.Stdout)
	slog.SetDefault(logger)

	// === 3. DATA DIRECTORY ===
	// SQLite files need their directory to exist; postgres URLs do not.
	if dialect, _, path := sqlstore.DialectFor(cfg.DatabaseURL); dialect == sqlstore.DialectSQLite && path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. SERVER ===
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
