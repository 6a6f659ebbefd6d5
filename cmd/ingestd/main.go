package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/monsoonlabs/hazardwatch/internal/adapter/floodwatch"
	httpadapter "github.com/monsoonlabs/hazardwatch/internal/adapter/http"
	kafkaadapter "github.com/monsoonlabs/hazardwatch/internal/adapter/kafka"
	"github.com/monsoonlabs/hazardwatch/internal/adapter/ncs"
	"github.com/monsoonlabs/hazardwatch/internal/adapter/sqlite"
	"github.com/monsoonlabs/hazardwatch/internal/adapter/usgs"
	"github.com/monsoonlabs/hazardwatch/internal/config"
	"github.com/monsoonlabs/hazardwatch/internal/ingest"
	"github.com/monsoonlabs/hazardwatch/internal/observability"
	"github.com/monsoonlabs/hazardwatch/internal/predict"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open event store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate event store", "error", err)
		os.Exit(1)
	}

	sources := []ingest.Source{
		usgs.NewClient(cfg.USGSURL, cfg.USGSTimeout, logger),
		ncs.NewClient(cfg.NCSURL, cfg.NCSTimeout, cfg.NCSRequestsPerSec, logger),
	}
	if cfg.FloodBulletinURL != "" {
		sources = append(sources, floodwatch.NewClient(cfg.FloodBulletinURL, cfg.FloodBulletinTimeout, logger))
		logger.Info("flood bulletin source enabled", "url", cfg.FloodBulletinURL)
	} else {
		logger.Info("flood bulletin source disabled")
	}

	// Publishing of reconciled events is feature-flagged via KAFKA_ENABLED.
	var publisher ingest.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	reconciler := ingest.NewReconciler(store, logger, metrics)
	orchestrator := ingest.NewOrchestrator(sources, reconciler, publisher, cfg.IngestWindowDays, logger, metrics)

	estimators := &predict.Set{
		Seismic: predict.NewSeismicEstimator(ctx, store, logger, metrics),
		Flood:   predict.NewFloodEstimator(ctx, store, logger, metrics),
		Cyclone: predict.NewCycloneEstimator(ctx, store, logger, metrics),
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, orchestrator, store, estimators, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := orchestrator.Run(ctx, cfg.IngestInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("ingest loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("event store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
