package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Houeta/batch-geocoder/internal/cache"
	"github.com/Houeta/batch-geocoder/internal/config"
	"github.com/Houeta/batch-geocoder/internal/geocoding"
	"github.com/Houeta/batch-geocoder/internal/metrics"
	"github.com/Houeta/batch-geocoder/internal/ratelimit"
	"github.com/Houeta/batch-geocoder/internal/repository"
	"github.com/Houeta/batch-geocoder/internal/retry"
	"github.com/Houeta/batch-geocoder/internal/server"
	"github.com/Houeta/batch-geocoder/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Process-wide singletons shared by all jobs: the result cache and the
	// provider rate limiter.
	resultCache := cache.New(cfg.Cache.MaxSize)
	limiter := ratelimit.New(cfg.Rate.Limit, cfg.Rate.Burst, cfg.Rate.AcquireTimeout)

	// The result store is optional: without a database the service runs
	// purely in-memory.
	var store repository.Interface
	var pool *pgxpool.Pool
	if cfg.Database.Enabled() {
		var err error
		pool, err = repository.NewDatabase(
			ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer pool.Close()

		repo := repository.NewRepository(pool, logger)
		if err = repo.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize DB schema: %v", err)
		}
		store = repo

		warmCache(ctx, logger, repo, resultCache, cfg.Cache)
	}

	// Create geocoding provider using factory pattern based on configuration.
	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:     geocoding.ProviderType(cfg.ProviderType),
		APIKey:   cfg.APIKey,
		Username: cfg.ProviderUser,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("Failed to create geocoding provider: %v", err)
	}

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.ProviderType)

	batchSvc := service.New(logger, service.Options{
		Cache:         resultCache,
		Limiter:       limiter,
		Provider:      geoProvider,
		ProviderName:  cfg.ProviderType,
		Policy:        retry.NewPolicy(cfg.Retry.BaseDelay, cfg.Retry.MaxDelay, cfg.Retry.MaxAttempts),
		Metrics:       appMetrics,
		Store:         store,
		Workers:       cfg.Workers,
		AddressPrefix: cfg.AddrPrefix,
		SuccessTTL:    cfg.Cache.SuccessTTL,
		FailureTTL:    cfg.Cache.FailureTTL,
	})

	var pinger server.Pinger
	if pool != nil {
		pinger = pool
	}
	handler := server.New(logger, batchSvc, pinger)

	const readTimeout = 5 * time.Second
	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     handler.Router(reg),
		ReadTimeout: readTimeout,
		// No WriteTimeout: large batches legitimately take longer than any
		// fixed bound; cancellation comes from the client disconnecting.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.", "port", cfg.Port)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

		const shutdownTimeout = 10 * time.Second
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(sctx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("Application stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Application stopped gracefully.")
}

// warmCache preloads the in-memory cache with recently persisted outcomes.
func warmCache(
	ctx context.Context,
	logger *slog.Logger,
	repo repository.Interface,
	resultCache *cache.Cache,
	cacheCfg config.CacheConfig,
) {
	warm, err := repo.LoadRecent(ctx, cacheCfg.WarmLimit)
	if err != nil {
		logger.WarnContext(ctx, "Failed to warm cache from store", "error", err)
		return
	}
	for key, res := range warm {
		resultCache.PutIfAbsent(key, res, cacheCfg.SuccessTTL)
	}
	logger.InfoContext(ctx, "Cache warmed from store", "entries", len(warm))
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelWarn,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelError,
			}),
		)

		logger.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return logger
}
