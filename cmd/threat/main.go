// Command threat runs the real-time threat classifier. By default it is a
// daemon: classify on an interval, serve health and metrics over HTTP, and
// optionally publish threat events to Kafka. With -once it runs a single
// classification cycle and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/county-risk-fusion/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/county-risk-fusion/internal/adapter/kafka"
	"github.com/couchcryptid/county-risk-fusion/internal/artifact"
	"github.com/couchcryptid/county-risk-fusion/internal/config"
	"github.com/couchcryptid/county-risk-fusion/internal/feed"
	"github.com/couchcryptid/county-risk-fusion/internal/observability"
	"github.com/couchcryptid/county-risk-fusion/internal/scheduler"
	"github.com/couchcryptid/county-risk-fusion/internal/threat"
)

func main() {
	once := flag.Bool("once", false, "run a single classification cycle and exit")
	flag.Parse()

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

	var stormFeed feed.Feed
	if cfg.StormFeedURL != "" {
		client := &http.Client{Timeout: cfg.FeedTimeout}
		stormFeed = feed.NewHTTPFeed(cfg.StormFeedURL, client, logger)
		logger.Info("using remote storm feed", "url", cfg.StormFeedURL)
	} else {
		stormFeed = feed.NewFileFeed(cfg.StormFeedPath, logger)
		logger.Info("using local storm feed", "path", cfg.StormFeedPath)
	}

	var publisher threat.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	}

	runner := threat.NewRunner(store, stormFeed, publisher, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := runner.RunOnce(ctx); err != nil {
			logger.Error("threat run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	sched := scheduler.New(runner, cfg.ThreatInterval, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}
	logger.Info("threat daemon started", "interval", cfg.ThreatInterval)

	<-ctx.Done()
	logger.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
