package app

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "dronewatch/libs/db"
	libredis "dronewatch/libs/redis"

	"dronewatch/internal/cache"
	"dronewatch/internal/config"
	"dronewatch/internal/danger"
	httpserver "dronewatch/internal/http"
	"dronewatch/internal/service"
	"dronewatch/internal/store"
	"dronewatch/internal/store/memory"
	"dronewatch/internal/store/postgres"
)

// App wires all dependencies for the drone service.
type App struct {
	server *httpserver.Server
	db     *sql.DB
	redis  *goredis.Client
	logger *zap.Logger
}

// New builds the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	var (
		st    store.Store
		sqlDB *sql.DB
	)
	switch cfg.Storage.Mode {
	case config.StorePostgres:
		db, err := libdb.NewPostgresDB(cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		pgStore := postgres.New(db)
		if err := pgStore.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		st = pgStore
		sqlDB = db
	default:
		st = memory.New()
	}

	var (
		liveCache   service.LiveCache
		redisClient *goredis.Client
	)
	if cfg.Redis.Addr != "" {
		client, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			if sqlDB != nil {
				sqlDB.Close()
			}
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		redisClient = client
		liveCache = cache.New(client, cfg.LiveTTL())
	}

	registry := danger.NewZoneRegistry(nil)
	classifier := danger.NewDefaultClassifier(registry)

	zones := service.NewZoneService(st, registry, logger)
	if err := zones.SeedRegistry(ctx, cfg.NoFlyZones()); err != nil {
		return nil, fmt.Errorf("seed no-fly zones: %w", err)
	}

	ingest := service.NewIngestService(st, classifier, liveCache, logger)
	queries := service.NewQueryService(st, liveCache, cfg.OnlineWindow(), logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Ingest:     ingest,
		Queries:    queries,
		Zones:      zones,
		AuthSecret: cfg.Auth.Secret,
		Logger:     logger,
	})

	return &App{
		server: httpserver.NewServer(cfg.HTTPAddress(), router, logger),
		db:     sqlDB,
		redis:  redisClient,
		logger: logger,
	}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
