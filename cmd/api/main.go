package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cantor/config"
	httpHandler "cantor/internal/adapter/http/handler"
	"cantor/internal/adapter/nbp"
	pgStorage "cantor/internal/adapter/storage/postgres"
	redisStorage "cantor/internal/adapter/storage/redis"
	"cantor/internal/core/ports"
	"cantor/internal/service"
	"cantor/internal/session"
	"cantor/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Cantor API")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize storage adapters
	accountRepo := pgStorage.NewAccountRepo(pool)
	ledgerStore := pgStorage.NewLedgerStore(pool)
	rateCache := redisStorage.NewRateCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// In-memory session registry: one ledger per signed-in user
	sessions := session.NewRegistry(ledgerStore, logger.Component(log, "session"))

	// Initialize business services
	authSvc := service.NewAuthService(service.AuthServiceParams{
		Accounts:              accountRepo,
		Store:                 ledgerStore,
		Sessions:              sessions,
		HashSvc:               hashSvc,
		TokenSvc:              tokenSvc,
		PasswordSignInEnabled: cfg.Auth.PasswordSignInEnabled,
		RecentLoginWindow:     cfg.Auth.RecentLoginWindow,
		Logger:                logger.Component(log, "auth"),
	})
	settlementSvc := service.NewSettlementService(sessions, ledgerStore, logger.Component(log, "settlement"))
	watchlistSvc := service.NewWatchlistService(sessions, ledgerStore, logger.Component(log, "watchlist"))

	nbpClient := nbp.NewClient(cfg.NBP.BaseURL, cfg.NBP.Timeout, logger.Component(log, "nbp"))
	rateSvc := service.NewRateService(nbpClient, rateCache, cfg.NBP.CacheTTL, logger.Component(log, "rates"))

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		SettlementSvc:  settlementSvc,
		WatchlistSvc:   watchlistSvc,
		RateSvc:        rateSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
