package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lmsadmin/internal/cache"
	"lmsadmin/internal/client"
	"lmsadmin/internal/config"
	"lmsadmin/internal/events"
	"lmsadmin/internal/logging"
	"lmsadmin/internal/middleware"
	"lmsadmin/internal/resource"
	"lmsadmin/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		panic(err)
	}

	zapLogger, err := logging.NewZap(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	logger := logging.New(zapLogger)
	defer logger.Sync()

	var listCache resource.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			opts = &redis.Options{Addr: cfg.RedisURL}
		}
		redisCache := cache.NewRedisCache(redis.NewClient(opts))
		defer redisCache.Close()
		listCache = redisCache
	} else {
		logger.Warn(ctx, "REDIS_URL not set, list cache disabled")
	}

	var publisher resource.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(events.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.AuditTopic})
		if err != nil {
			logger.Fatal(ctx, "cannot create audit producer", zap.Error(err))
		}
		defer producer.Close()
		publisher = producer
	} else {
		logger.Warn(ctx, "KAFKA_BROKERS not set, audit events disabled")
	}

	backend := client.NewBackend(cfg.BackendURL, cfg.BackendTimeout, logger)
	deps := resource.Deps{Cache: listCache, TTL: cfg.ListCacheTTL, Events: publisher}

	authMiddleware := middleware.NewAuthMiddleware(session.NewParser(cfg.JWTSecret), cfg.LoginURL)
	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, 12<<20) // 12 MB
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/admin", func(r chi.Router) {
		registerResources(r, backend, deps, authMiddleware)
	})

	port := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info(ctx, "Starting server", zap.String("port", port), zap.String("backend", cfg.BackendURL))

	srv := &http.Server{
		Addr:              port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "cannot start http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal(ctx, "server forced to shutdown", zap.Error(err))
	}
	logger.Info(ctx, "Server stopped")
}
