// Package main is the entry point for the socialgraph API server.
//
// main only reads configuration, builds the logger and hands both to
// internal/server; everything else lives in internal/.
//
// Required environment:
//
//	JWT_SECRET   signing key for access tokens, at least 16 characters
//
// See internal/config for the full list and defaults.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/socialgraph/internal/config"
	"github.com/sakif/socialgraph/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
