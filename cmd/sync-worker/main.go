package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	internalinfoniqa "github.com/swissvfg/bauprodukt-backend/internal/infoniqa"
	"github.com/swissvfg/bauprodukt-backend/pkg/config"
	"github.com/swissvfg/bauprodukt-backend/pkg/db"
	"github.com/swissvfg/bauprodukt-backend/pkg/infoniqa"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
	"github.com/swissvfg/bauprodukt-backend/pkg/metrics"
	"github.com/swissvfg/bauprodukt-backend/pkg/migrate"
)

const syncJobName = "infoniqa-sync"

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	client, err := infoniqa.NewClient(context.Background(), cfg.Infoniqa, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create infoniqa client", err)
		os.Exit(1)
	}

	syncService, err := internalinfoniqa.NewService(
		internalinfoniqa.NewRepository(dbClient.DB()), client, cfg.Sync.BatchSize, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Sync.Interval.String(),
	})
	logg.Info(ctx, "starting sync worker")

	runOnce(ctx, logg, syncService, metricsCollector)

	ticker := time.NewTicker(cfg.Sync.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logg.Info(ctx, "sync worker shutting down gracefully")
			return
		case <-ticker.C:
			runOnce(ctx, logg, syncService, metricsCollector)
		}
	}
}

func runOnce(ctx context.Context, logg *logger.Logger, svc internalinfoniqa.Service, collector *metrics.SyncMetrics) {
	start := time.Now()
	result, err := svc.SyncPending(ctx)
	collector.ObserveDuration(syncJobName, time.Since(start))
	if err != nil {
		collector.AddFailed(syncJobName, 1)
		logg.Error(ctx, "accounting sync pass failed", err)
		return
	}
	collector.AddSynced(syncJobName, result.Synced)
	collector.AddFailed(syncJobName, result.Failed)
	if result.Synced > 0 || result.Failed > 0 {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"synced": result.Synced,
			"failed": result.Failed,
		}), "accounting sync pass complete")
	}
}
