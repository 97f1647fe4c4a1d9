package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"todoboard/internal/cache"
	"todoboard/internal/handler"
	"todoboard/internal/httpserver"
	"todoboard/internal/service"
	"todoboard/pkg/circuitbreaker"
	"todoboard/pkg/config"
	"todoboard/pkg/logger"
	"todoboard/pkg/mq"
	"todoboard/pkg/otel"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	log.Info("Starting todoboard...",
		zap.String("version", version),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("redis", cfg.Redis.Addr != ""),
		zap.Bool("mq", cfg.MQ.URL != ""),
	)

	shutdownTracing, err := otel.Init(otel.Config{
		ServiceName:    cfg.Otel.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Otel.Endpoint,
		Enabled:        cfg.Otel.Enabled,
	}, log)
	if err != nil {
		log.Warn("OpenTelemetry init failed, continuing without tracing", zap.Error(err))
		shutdownTracing = func() {}
	}
	defer shutdownTracing()

	// Store
	store, err := openStore(cfg, log)
	if err != nil {
		log.Error("Failed to open store", zap.Error(err))
		return err
	}
	defer store.Close()

	migrateCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	err = store.Migrate(migrateCtx)
	cancel()
	if err != nil {
		return err
	}

	// Page cache
	var pages cache.PageCache
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis not reachable, page cache will miss until it is", zap.Error(err))
		}
		cancel()
		pages = cache.NewRedisCache(rdb, cfg.Redis.PageTTL, log)
		log.Info("Using Redis page cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		pages = cache.NewMemoryCache(cfg.Redis.PageTTL)
		log.Info("Using in-process page cache")
	}

	// Events
	var (
		events service.EventPublisher = service.NoopPublisher{}
		broker httpserver.BrokerStatus
	)
	if cfg.MQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.MQ.URL, log)
		if err != nil {
			log.Error("Failed to init publisher", zap.Error(err))
			return err
		}
		defer publisher.Close()
		guarded := mq.NewGuardedPublisher(publisher, circuitbreaker.New(circuitbreaker.DefaultConfig()), log)
		events = guarded
		broker = guarded
	}

	svc := service.NewBoardService(store, pages, events, log)

	gin.SetMode(gin.ReleaseMode)
	router := httpserver.NewRouter(httpserver.Deps{
		Board:  handler.NewBoardHandler(svc, log),
		Page:   handler.NewPageHandler(svc, pages, log),
		Store:  store,
		Broker: broker,
		Logger: log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down todoboard gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("todoboard shutdown complete")
	return nil
}
