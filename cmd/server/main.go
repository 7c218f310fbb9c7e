package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/tessara/linkgate/config"
	appcache "github.com/tessara/linkgate/internal/app/cache"
	"github.com/tessara/linkgate/internal/app/linkstore"
	appserver "github.com/tessara/linkgate/internal/app/server"
	appservice "github.com/tessara/linkgate/internal/app/service"
	"github.com/tessara/linkgate/internal/infra/logger"
	infraNATS "github.com/tessara/linkgate/internal/infra/nats"
	infraPrometheus "github.com/tessara/linkgate/internal/infra/prometheus"
	infraRedis "github.com/tessara/linkgate/internal/infra/redis"
	"go.uber.org/zap"
)

const clickBacklogWarnThreshold = 10_000

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

	log.Info("Configuration loaded successfully",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("linkstore_base_url", cfg.LinkStore.BaseURL),
		zap.Duration("cache_freshness_horizon", cfg.Cache.FreshnessHorizon),
		zap.String("tracking_transport", cfg.Tracking.Transport),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
	)

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	store := linkstore.New(cfg.LinkStore.BaseURL, cfg.LinkStore.Timeout)

	resolutionCache := appcache.NewRedis(redisClient,
		cfg.Cache.KeyPrefix,
		cfg.Cache.FreshnessHorizon,
		cfg.Cache.Retention,
	)
	resolver := appservice.NewResolver(log, resolutionCache, store)

	deps := appserver.Dependencies{
		Logger:      log,
		Redis:       redisClient,
		Cache:       resolver,
		Aggregator:  store,
		PurgeSecret: []byte(cfg.Server.PurgeSecret),
	}

	var recorder appservice.ClickRecorder
	switch cfg.Tracking.Transport {
	case "direct":
		recorder = appservice.NewDirectRecorder(store)
		log.Info("Click tracking posts directly to the link store")
	default:
		natsConn, js, err := infraNATS.Connect(cfg.NATS)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()
		log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

		deps.NATS = natsConn
		deps.JetStream = js
		recorder = appservice.NewClickPublisher(js)

		forwarder := appservice.NewClickForwarder(js, log, store)
		if err := forwarder.Start(); err != nil {
			log.Fatal("Failed to start click forwarder", zap.Error(err))
		}
		defer forwarder.Stop()

		monitor := appservice.NewStreamMonitor(log, js, clickBacklogWarnThreshold)
		monitor.Start()
		defer monitor.Stop()
	}

	deps.Pipeline = appservice.NewRedirectPipeline(log, resolver, recorder, cfg.Tracking.Timeout)

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	server := appserver.New(deps)

	if err := server.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
