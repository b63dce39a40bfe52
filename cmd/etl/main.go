package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/typhoonwatch/bulletin-etl/internal/adapter/http"
	kafkaadapter "github.com/typhoonwatch/bulletin-etl/internal/adapter/kafka"
	"github.com/typhoonwatch/bulletin-etl/internal/adapter/pagasa"
	"github.com/typhoonwatch/bulletin-etl/internal/config"
	"github.com/typhoonwatch/bulletin-etl/internal/domain"
	"github.com/typhoonwatch/bulletin-etl/internal/gazetteer"
	"github.com/typhoonwatch/bulletin-etl/internal/observability"
	"github.com/typhoonwatch/bulletin-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ix, err := gazetteer.Load(cfg.GazetteerPath)
	if err != nil {
		logger.Error("failed to load gazetteer", "path", cfg.GazetteerPath, "error", err)
		os.Exit(1)
	}
	logger.Info("gazetteer loaded", "path", cfg.GazetteerPath, "locations", ix.Len())

	// Initialize the rainfall advisory feed (feature-flagged via
	// ADVISORY_URL / ADVISORY_ENABLED).
	var feed domain.AdvisoryFeed
	if cfg.AdvisoryEnabled {
		client := pagasa.NewClient(cfg, nil, metrics, logger)
		feed = pagasa.NewCachedFeed(client, cfg.AdvisoryCacheTTL, metrics)
		metrics.AdvisoryEnabled.Set(1)
		logger.Info("advisory enrichment enabled", "url", cfg.AdvisoryURL, "cache_ttl", cfg.AdvisoryCacheTTL)
	} else {
		metrics.AdvisoryEnabled.Set(0)
		logger.Info("advisory enrichment disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(ix, feed, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
