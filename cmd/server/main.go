package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/chatpolls/internal/adapter/filestore"
	"github.com/pscheid92/chatpolls/internal/adapter/httpserver"
	"github.com/pscheid92/chatpolls/internal/adapter/metrics"
	"github.com/pscheid92/chatpolls/internal/adapter/postgres"
	"github.com/pscheid92/chatpolls/internal/adapter/recipient"
	"github.com/pscheid92/chatpolls/internal/adapter/redis"
	"github.com/pscheid92/chatpolls/internal/app"
	"github.com/pscheid92/chatpolls/internal/codec"
	"github.com/pscheid92/chatpolls/internal/domain"
	"github.com/pscheid92/chatpolls/internal/platform/config"
	"github.com/pscheid92/chatpolls/internal/platform/logging"
	"github.com/pscheid92/chatpolls/internal/platform/retry"
	"github.com/pscheid92/chatpolls/internal/platform/version"
	"github.com/pscheid92/chatpolls/internal/poll"
)

const (
	connectTimeout  = 10 * time.Second
	loadTimeout     = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

func runGracefulShutdown(srv *httpserver.Server, appSvc *app.Service) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Final flush; polls changed since the last autosave are lost if it fails.
		if err := appSvc.Stop(shutdownCtx); err != nil {
			slog.Error("Final save failed", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// setupStore opens the configured backend. The returned func releases its
// connections.
func setupStore(cfg *config.Config, m *metrics.StoreMetrics) (domain.DocumentStore, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	switch cfg.StorageBackend {
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL, redis.NewCircuitBreakerHook(m), redis.NewMetricsHook(m))
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		return redis.NewDocumentStore(client), func() { _ = client.Close() }

	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.NewMetricsTracer(m))
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		return postgres.NewDocumentStore(pool), pool.Close

	default:
		store, err := filestore.New(cfg.DataDir)
		if err != nil {
			slog.Error("Failed to open data dir", "dir", cfg.DataDir, "error", err)
			os.Exit(1)
		}
		return store, func() {}
	}
}

func savePolicy(cfg *config.Config, clock clockwork.Clock) retry.Policy {
	return retry.Policy{
		MaxAttempts:      cfg.SaveMaxAttempts,
		InitialBackoff:   200 * time.Millisecond,
		RateLimitBackoff: 2 * time.Second,
		Clock:            clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Retrying store write", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "version", version.Get().String(), "env", cfg.AppEnv, "backend", cfg.StorageBackend)

	reg := metrics.NewRegistry()
	storeMetrics := metrics.NewStoreMetrics(reg)

	rawStore, closeStore := setupStore(cfg, storeMetrics)
	defer closeStore()
	store := metrics.InstrumentStore(rawStore, cfg.StorageBackend, storeMetrics)

	appSvc := app.NewService(
		poll.NewRegistry(clock),
		store,
		codec.New(clock, savePolicy(cfg, clock)),
		recipient.NewLogResolver(nil),
		metrics.NewPollMetrics(reg),
		metrics.NewPersistenceMetrics(reg),
		clock,
	)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), loadTimeout)
	if err := appSvc.Load(loadCtx); err != nil {
		cancelLoad()
		slog.Error("Failed to load polls", "error", err)
		os.Exit(1)
	}
	cancelLoad()

	appSvc.StartAutosave(cfg.AutosaveInterval)

	healthChecks := []httpserver.HealthCheck{
		{Name: cfg.StorageBackend, Check: store.Ping},
	}
	srv := httpserver.NewServer(cfg.Port, appSvc, metrics.NewHTTPMetrics(reg), metrics.Handler(reg), healthChecks, clock)

	done := runGracefulShutdown(srv, appSvc)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
