package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/tinylink-dev/tinylink/config"
	"github.com/tinylink-dev/tinylink/internal/app/server"
	"github.com/tinylink-dev/tinylink/internal/app/service"
	"github.com/tinylink-dev/tinylink/internal/app/store"
	"github.com/tinylink-dev/tinylink/internal/infra/db"
	"github.com/tinylink-dev/tinylink/internal/infra/logger"
	natsclient "github.com/tinylink-dev/tinylink/internal/infra/nats"
	infraPrometheus "github.com/tinylink-dev/tinylink/internal/infra/prometheus"
	infraRedis "github.com/tinylink-dev/tinylink/internal/infra/redis"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded",
		zap.String("base_url", cfg.Server.BaseURL),
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("db_configured", cfg.Database.Configured()),
	)

	var (
		st   store.Store
		pool *pgxpool.Pool
	)
	if cfg.Database.Configured() {
		gormDB, err := db.Open(cfg.Database)
		if err != nil {
			log.Fatal("Failed to open database", zap.Error(err))
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
		}
		defer sqlDB.Close()

		st = store.NewGormStore(gormDB)

		if cfg.Database.Driver == "" || cfg.Database.Driver == "postgres" {
			pool, err = db.NewPool(ctx, cfg.Database)
			if err != nil {
				log.Fatal("Failed to connect to Postgres", zap.Error(err))
			}
			defer pool.Close()
			log.Info("Connected to Postgres")
		}
	} else {
		// No database configured: serve from an in-process table. Links do
		// not survive a restart in this mode.
		st = store.NewMemoryStore()
		log.Warn("DATABASE_URL is not set, using the in-memory store")
	}

	if err := st.Init(ctx); err != nil {
		log.Fatal("Failed to initialize store schema", zap.Error(err))
	}

	registry, err := service.NewRegistry(ctx, st, service.RegistryOptions{
		Logger:            log,
		DisableCodeFilter: cfg.Database.DisableCodeFilter,
	})
	if err != nil {
		log.Fatal("Failed to build link registry", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("Connected to Redis")
	}

	var clickPublisher *service.ClickPublisher
	if cfg.NATS.Host != "" {
		natsConn, js, err := natsclient.Connect(cfg.NATS)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()

		clickPublisher, err = service.NewClickPublisher(js)
		if err != nil {
			log.Fatal("Failed to set up click publisher", zap.Error(err))
		}
		log.Info("Connected to NATS")
	}

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.String("addr", promServer.Addr))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	}

	srv := server.New(server.Dependencies{
		Logger:         log,
		Store:          st,
		Registry:       registry,
		Metadata:       service.NewMetadataFetcher(cfg.Fetch.Timeout(), log),
		ClickPublisher: clickPublisher,
		Redis:          redisClient,
		Pool:           pool,
		BaseURL:        cfg.Server.BaseURL,
		DBConfigured:   cfg.Database.Configured(),
	})

	if err := srv.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
