// Command fuse runs one county risk fusion pass: it joins the configured
// source tables onto the county boundary layer, computes every applicable
// score version, and publishes the scored layer and summary artifacts.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/county-risk-fusion/internal/artifact"
	"github.com/couchcryptid/county-risk-fusion/internal/config"
	"github.com/couchcryptid/county-risk-fusion/internal/observability"
	"github.com/couchcryptid/county-risk-fusion/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := artifact.NewStore(cfg.OutputDir)
	if err != nil {
		logger.Error("failed to open artifact store", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, store, logger, metrics)
	if err := p.Run(ctx); err != nil {
		os.Exit(1)
	}
}
