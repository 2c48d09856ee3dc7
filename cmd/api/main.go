package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CS-Programmer254/FinLedger/config"
	httpHandler "github.com/CS-Programmer254/FinLedger/internal/adapter/http/handler"
	pgStorage "github.com/CS-Programmer254/FinLedger/internal/adapter/storage/postgres"
	redisStorage "github.com/CS-Programmer254/FinLedger/internal/adapter/storage/redis"
	"github.com/CS-Programmer254/FinLedger/internal/core/ports"
	"github.com/CS-Programmer254/FinLedger/internal/service"
	"github.com/CS-Programmer254/FinLedger/pkg/logger"
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
		Msg("Starting FinLedger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Initialize repositories
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	webhookRepo := pgStorage.NewWebhookRepo(pool)
	eventStore := pgStorage.NewEventStore(pool)
	reconRepo := pgStorage.NewReconciliationRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	responseCache := redisStorage.NewResponseCache(rdb)

	// Payload key is derived from the externally supplied master secret
	keyring, err := service.NewKeyringService(cfg.Payload.MasterSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize payload keyring")
	}

	// Initialize business services
	paymentSvc := service.NewPaymentService(
		paymentRepo,
		webhookRepo,
		eventStore,
		responseCache,
		keyring,
		transactor,
		log,
	)
	reconSvc := service.NewReconciliationService(paymentRepo, reconRepo, log)
	webhookSvc := service.NewWebhookService(webhookRepo, keyring, cfg.Webhook.MaxRetries, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		PaymentSvc:     paymentSvc,
		ReconSvc:       reconSvc,
		WebhookSvc:     webhookSvc,
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
