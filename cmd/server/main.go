package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Priya8975/event-registration-service/internal/api"
	"github.com/Priya8975/event-registration-service/internal/cache"
	"github.com/Priya8975/event-registration-service/internal/clock"
	"github.com/Priya8975/event-registration-service/internal/config"
	"github.com/Priya8975/event-registration-service/internal/domain"
	"github.com/Priya8975/event-registration-service/internal/metrics"
	"github.com/Priya8975/event-registration-service/internal/ratelimit"
	"github.com/Priya8975/event-registration-service/internal/registration"
	"github.com/Priya8975/event-registration-service/internal/service"
	"github.com/Priya8975/event-registration-service/internal/store"
	"github.com/Priya8975/event-registration-service/internal/timezone"
	ws "github.com/Priya8975/event-registration-service/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL
	pgStore, err := store.NewPostgres(ctx, cfg.DatabaseURL, store.WithLockTimeout(cfg.LockTimeout))
	if err != nil {
		return err
	}
	defer pgStore.Close()
	logger.Info("connected to PostgreSQL", "lock_timeout", cfg.LockTimeout.String())

	if err := pgStore.RunMigrations(ctx, cfg.MigrationsDir); err != nil {
		return err
	}
	logger.Info("database migrations applied")

	normalizer, err := timezone.NewNormalizer(cfg.DefaultTimezone)
	if err != nil {
		return err
	}

	met := metrics.New(prometheus.DefaultRegisterer)
	clk := clock.NewSystem()
	healthChecks := map[string]api.Checker{"postgres": pgStore.Ping}

	svcOpts := []service.Option{
		service.WithMetrics(met),
		service.WithPageLimits(domain.PageLimits{Default: cfg.DefaultPageSize, Max: cfg.MaxPageSize}),
	}

	// Redis is optional: without it listings are not cached and the
	// registration limiter is per process.
	var limiter ratelimit.Limiter = ratelimit.NewLocalLimiter(cfg.RegisterRateLimit)
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		logger.Info("connected to Redis")

		listing := cache.NewListingCache(redisClient, cfg.ListingCacheTTL, logger, cache.WithMetrics(met))
		svcOpts = append(svcOpts, service.WithCache(listing))
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RegisterRateLimit, time.Second, logger)
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisPing(ctx, redisClient)
		}
	}

	hub := ws.NewHub(logger, cfg.CORSOrigins...)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	events := service.NewEventService(pgStore, normalizer, clk, logger, svcOpts...)
	manager := registration.NewManager(pgStore, clk, logger,
		registration.WithMetrics(met),
		registration.WithListeners(events, hub),
	)

	router := api.NewRouter(api.Deps{
		Events:        events,
		Registrar:     manager,
		Logger:        logger,
		RegisterLimit: ratelimit.Middleware(limiter, met),
		Metrics:       promhttp.Handler(),
		WebSocket:     hub.HandleWebSocket,
		HealthChecks:  healthChecks,
		CORSOrigins:   cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopHub()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func redisPing(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
