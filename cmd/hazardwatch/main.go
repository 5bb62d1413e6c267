package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/mr1hm/hazardwatch/internal/aggregation"
	"github.com/mr1hm/hazardwatch/internal/cache"
	"github.com/mr1hm/hazardwatch/internal/config"
	"github.com/mr1hm/hazardwatch/internal/dedup"
	"github.com/mr1hm/hazardwatch/internal/ingestion"
	"github.com/mr1hm/hazardwatch/internal/logging"
	"github.com/mr1hm/hazardwatch/internal/observability"
	"github.com/mr1hm/hazardwatch/internal/ops"
	"github.com/mr1hm/hazardwatch/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logger := logging.Setup(cfg.Logging.Level)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	var invalidator cache.Invalidator = cache.Nop{}
	if cfg.Cache.Enabled {
		redisInv, err := cache.NewRedisInvalidator(cache.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			Key:      cfg.Cache.Key,
			Timeout:  cfg.Cache.Timeout,
		})
		if err != nil {
			logging.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisInv.Close()
		invalidator = redisInv
	}

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	client := &http.Client{Timeout: cfg.Sources.FetchTimeout}

	userQueue := ingestion.NewUserQueue()

	var adapters []ingestion.Adapter
	if cfg.Sources.USGSEnabled {
		adapters = append(adapters, ingestion.NewUSGSAdapter(cfg.Sources.USGSURL, client, logger))
	}
	if cfg.Sources.FIRMSEnabled {
		adapters = append(adapters, ingestion.NewFIRMSAdapter(
			cfg.Sources.FIRMSURL, cfg.Sources.FIRMSAPIKey, cfg.Sources.FIRMSInstrument,
			cfg.Sources.FIRMSMinConf, client, logger))
	}
	if cfg.Sources.NWSEnabled {
		adapters = append(adapters, ingestion.NewNWSAdapter(cfg.Sources.NWSURL, client, logger))
	}
	if cfg.Sources.UserEnabled {
		adapters = append(adapters, ingestion.NewUserAdapter(userQueue, clock, logger))
	}

	deduper := dedup.New(db, clock, cfg.Dedup.Window, logger)
	aggregator := aggregation.New(db, cfg.Aggregation.TimeWindow, cfg.Aggregation.BoxDegrees, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr := ingestion.NewManager(cfg, adapters, db, deduper, aggregator, invalidator, metrics, clock, logger)
	mgr.Start(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Ops.Host, cfg.Ops.Port),
		Handler: ops.NewRouter(),
	}

	go func() {
		slog.Info("ops server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("ops server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("ops server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
