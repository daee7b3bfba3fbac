// Package main is the entry point for the Kvitok server.
// Kvitok is a ticketing service: users record purchases as tickets and
// download printable receipts for them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prn-tf/kvitok/internal/auth"
	"github.com/prn-tf/kvitok/internal/cache/memory"
	redisCache "github.com/prn-tf/kvitok/internal/cache/redis"
	"github.com/prn-tf/kvitok/internal/config"
	"github.com/prn-tf/kvitok/internal/handler"
	"github.com/prn-tf/kvitok/internal/metrics"
	"github.com/prn-tf/kvitok/internal/repository"
	"github.com/prn-tf/kvitok/internal/repository/postgres"
	"github.com/prn-tf/kvitok/internal/repository/sqlite"
	"github.com/prn-tf/kvitok/internal/service"
	s3store "github.com/prn-tf/kvitok/internal/storage/s3"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	setupLogger(cfg.Logging)

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting Kvitok Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := log.Logger

	// Database
	userRepo, ticketRepo, closeDB, err := setupRepositories(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer closeDB()

	// Cache
	cache, closeCache, err := setupCache(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("failed to set up cache: %w", err)
	}
	defer closeCache()

	// Object storage
	store, err := s3store.NewStore(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to set up object storage: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}

	// Services
	m := metrics.New()
	authenticator := auth.NewAuthenticator(cfg.Auth.SecretKey, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	authService := service.NewAuthService(userRepo, authenticator, m, logger)
	ticketService := service.NewTicketService(ticketRepo, m, logger)
	receiptService := service.NewReceiptService(ticketRepo, store, cache, cfg.Storage, cfg.Receipt, m, logger)

	// HTTP API
	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler:    handler.NewAuthHandler(authService, logger),
		TicketHandler:  handler.NewTicketHandler(ticketService, receiptService, logger),
		AuthMiddleware: auth.Middleware(authenticator),
		Metrics:        m,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	metricsServer := startMetricsServer(cfg.Metrics, m)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}

	return nil
}

// setupLogger configures the global zerolog logger.
func setupLogger(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// setupRepositories opens the configured database backend and returns
// the repositories backed by it.
func setupRepositories(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (repository.UserRepository, repository.TicketRepository, func(), error) {
	if cfg.IsEmbedded() {
		db, err := sqlite.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close database")
			}
		}
		return sqlite.NewUserRepository(db), sqlite.NewTicketRepository(db), closeDB, nil
	}

	db, err := postgres.NewDB(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}
	return postgres.NewUserRepository(db), postgres.NewTicketRepository(db), closeDB, nil
}

// setupCache picks the cache backend. Redis when enabled, otherwise the
// in-process cache.
func setupCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (repository.Cache, func(), error) {
	if cfg.Enabled {
		cache, err := redisCache.NewCache(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("addr", cfg.Addr()).Msg("Using Redis cache")
		closeCache := func() {
			if err := cache.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Redis connection")
			}
		}
		return cache, closeCache, nil
	}

	cache := memory.NewCache()
	return cache, cache.Stop, nil
}

// startMetricsServer starts the Prometheus listener when enabled.
func startMetricsServer(cfg config.MetricsConfig, m *metrics.Metrics) *http.Server {
	if !cfg.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, m.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("path", cfg.Path).Msg("Metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return server
}
