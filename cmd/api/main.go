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

	"github.com/adeolu/servicehub/internal/auth"
	"github.com/adeolu/servicehub/internal/cache"
	"github.com/adeolu/servicehub/internal/config"
	"github.com/adeolu/servicehub/internal/db"
	httpx "github.com/adeolu/servicehub/internal/http"
	"github.com/adeolu/servicehub/internal/observability"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()

	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	// tracing
	shutdownTracer, err := observability.InitTracer(context.Background(), "servicehub-api", cfg.OTLPEndpoint)

	if err != nil {
		log.Warn("tracing disabled", "err", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	// process-scoped store handle: opened once, closed on shutdown
	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("database connection failed", "err", err)
		os.Exit(1)
	}

	// featured cache: Redis when configured, in-process otherwise
	var store cache.Store
	var redisStore *cache.Redis

	if cfg.RedisAddr != "" {
		redisStore = cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.FeaturedTTL,
		})

		pingCtx, cancel := config.WithTimeout(2 * time.Second)
		pingErr := redisStore.Ping(pingCtx)
		cancel()

		if pingErr != nil {
			log.Warn("redis unreachable, falling back to memory cache", "err", pingErr)
			_ = redisStore.Close()
			redisStore = nil
		}
	}

	if redisStore != nil {
		store = redisStore
	} else {
		store = cache.NewMemory(cfg.FeaturedTTL)
	}

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	router := httpx.NewRouter(cfg, pool, jwtManager, store, prom, reg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		pool.Close()

		if redisStore != nil {
			_ = redisStore.Close()
		}

		_ = shutdownTracer(ctx)
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
