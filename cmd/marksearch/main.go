package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/buildsight/marksearch/pkg/api"
	"github.com/buildsight/marksearch/pkg/config"
	"github.com/buildsight/marksearch/pkg/middleware"
	"github.com/buildsight/marksearch/pkg/observability"
	"github.com/buildsight/marksearch/pkg/savedsearch"
	"github.com/buildsight/marksearch/pkg/search"
	"github.com/buildsight/marksearch/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional, env vars override)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "marksearch: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"driver": cfg.Storage.Driver,
		"addr":   cfg.Server.Host + ":" + cfg.Server.Port,
	}).Info("starting marksearch")

	ctx := context.Background()

	db, err := sql.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Storage.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Storage.MaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := storage.Bootstrap(ctx, db); err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Storage.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, suggestion cache runs in-memory only")
		}
	}

	var metrics *observability.Metrics
	var registry *prometheus.Registry
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	store := storage.NewStore(db, metrics)
	cache := storage.NewSuggestionCache(
		cfg.Storage.SuggestCacheSize, cfg.Storage.SuggestCacheTTL, redisClient, metrics)

	refreshLog := logrus.New()
	refreshLog.SetFormatter(&logrus.JSONFormatter{})
	refresher := storage.NewSuggestionRefresher(store, cache, refreshLog)
	if err := refresher.Start(cfg.Storage.SuggestRefreshEvery); err != nil {
		return fmt.Errorf("failed to start suggestion refresher: %w", err)
	}

	searcher := search.NewService(store, cache, logger, metrics)
	savedSearches := savedsearch.NewService(db, searcher, logger, metrics)
	health := observability.NewHealthChecker(db, redisClient)
	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	server := api.NewServer(searcher, savedSearches, logger, api.Options{
		Health:   health,
		Metrics:  metrics,
		Registry: registry,
		Limiter:  limiter,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http server failed")
			os.Exit(1)
		}
	}()

	if metrics != nil {
		go reportDBStats(ctx, db, metrics)
	}

	return observability.GracefulShutdown(logger, httpServer, cfg.Server.ShutdownTimeout,
		refresher.Stop,
		func(shutdownCtx context.Context) error {
			return observability.ShutdownOTel(shutdownCtx, otelProviders, logger)
		},
	)
}

// reportDBStats mirrors connection pool stats into gauges every 15 seconds.
func reportDBStats(ctx context.Context, db *sql.DB, metrics *observability.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			metrics.DBConnectionsActive.Set(float64(stats.InUse))
			metrics.DBConnectionsIdle.Set(float64(stats.Idle))
		}
	}
}
