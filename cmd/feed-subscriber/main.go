package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"dronewatch/internal/cache"
	"dronewatch/internal/config"
	"dronewatch/internal/danger"
	"dronewatch/internal/feed"
	"dronewatch/internal/service"
	"dronewatch/internal/store"
	"dronewatch/internal/store/memory"
	"dronewatch/internal/store/postgres"
	libdb "dronewatch/libs/db"
	"dronewatch/libs/logging"
	libredis "dronewatch/libs/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if cfg.Feed.URL == "" {
		panic("config: feed URL is required")
	}

	logger, err := logging.NewLogger("feed-subscriber")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	var st store.Store
	switch cfg.Storage.Mode {
	case config.StorePostgres:
		db, err := libdb.NewPostgresDB(cfg.Database.DSN)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer db.Close()
		pgStore := postgres.New(db)
		if err := pgStore.Migrate(); err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
		st = pgStore
	default:
		logger.Warn("using in-memory storage, ingested telemetry is not shared with the drone service")
		st = memory.New()
	}

	var liveCache service.LiveCache
	if cfg.Redis.Addr != "" {
		client, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer client.Close()
		liveCache = cache.New(client, cfg.LiveTTL())
	}

	registry := danger.NewZoneRegistry(nil)
	zones := service.NewZoneService(st, registry, logger)
	if err := zones.SeedRegistry(ctx, cfg.NoFlyZones()); err != nil {
		logger.Fatal("failed to seed no-fly zones", zap.Error(err))
	}

	ingest := service.NewIngestService(st, danger.NewDefaultClassifier(registry), liveCache, logger)
	subscriber := feed.NewSubscriber(cfg.Feed.URL, cfg.Feed.Topic, ingest, logger)

	if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("subscriber stopped with error", zap.Error(err))
	}
}
