package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moroccoin-backoffice/config"
	kafkaBroker "moroccoin-backoffice/internal/adapter/broker/kafka"
	httpHandler "moroccoin-backoffice/internal/adapter/http/handler"
	pgStorage "moroccoin-backoffice/internal/adapter/storage/postgres"
	redisStorage "moroccoin-backoffice/internal/adapter/storage/redis"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/internal/service"
	"moroccoin-backoffice/pkg/logger"
)

// platformCurrency is the only currency the Moroccoin ledger carries.
const platformCurrency = "MAD"

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
		Msg("Starting Moroccoin Back Office")

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

	// Initialize Kafka writer for notification events
	kafkaWriter := kafkaBroker.NewWriter(cfg.Kafka)
	defer kafkaWriter.Close()
	publisher := kafkaBroker.NewPublisher(kafkaWriter, log)

	// Initialize repositories
	staffRepo := pgStorage.NewStaffRepo(pool)
	userRepo := pgStorage.NewUserRepo(pool)
	txnRepo := pgStorage.NewTransactionRepo(pool)
	refundRepo := pgStorage.NewRefundRepo(pool)
	notifRepo := pgStorage.NewNotificationRepo(pool)
	auditRepo := pgStorage.NewAuditRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)
	statsCache := redisStorage.NewStatsCache(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	authSvc := service.NewAuthService(staffRepo, hashSvc, tokenSvc, log)
	refundSvc := service.NewRefundService(refundRepo, txnRepo, transactor, publisher, log)
	reportingSvc := service.NewReportingService(userRepo, txnRepo, refundRepo, statsCache, platformCurrency, log)
	notificationSvc := service.NewNotificationService(notifRepo, userRepo, publisher, log)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:         authSvc,
		RefundSvc:       refundSvc,
		ReportingSvc:    reportingSvc,
		NotificationSvc: notificationSvc,
		TokenSvc:        tokenSvc,
		AuditSvc:        auditSvc,
		RateLimitStore:  rateLimitStore,
		HealthCheckers:  []ports.HealthChecker{pgHealth, redisHealth},
		ExemptPaths:     cfg.Auth.ExemptPaths,
		Logger:          log,
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
