package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brandlens/scan-engine/internal/domain/usecase/dispatch"
	"github.com/brandlens/scan-engine/internal/domain/usecase/ledger"
	"github.com/brandlens/scan-engine/internal/domain/usecase/scanops"
	"github.com/brandlens/scan-engine/internal/domain/usecase/sweeper"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/api/handler"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/api/routes"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/database"
	llmadapter "github.com/brandlens/scan-engine/internal/infrastructure/adapter/llm"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/logger"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/repository"
	timeProvider "github.com/brandlens/scan-engine/internal/infrastructure/adapter/time"
	"github.com/brandlens/scan-engine/internal/infrastructure/config"
	cronrunner "github.com/brandlens/scan-engine/internal/infrastructure/cron"
	"github.com/brandlens/scan-engine/internal/infrastructure/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create logger
	appLogger := logger.NewZapLogger(cfg.Environment == config.Production)

	// Setup database configuration
	dbConfig := database.CreateConfigFromViperConfig(cfg)

	// Initialize time provider
	tp := timeProvider.NewRealTimeProvider()

	// Connect to the database
	dbManager := database.NewManager(dbConfig, appLogger, tp)
	if _, err := dbManager.Connect(); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer func() {
		_ = dbManager.Close()
	}()

	// Run migrations, retrying while the database finishes booting
	migrateErr := database.RetryOnTransientError(
		context.Background(),
		database.DefaultRetryConfig(),
		func() error { return dbManager.MigrationManager().MigrateAll() },
		dbManager.GetErrorMapper(),
		appLogger,
	)
	if migrateErr != nil {
		appLogger.Error("Failed to run migrations", map[string]any{
			"error": migrateErr.Error(),
		})
		os.Exit(1)
	}

	// Initialize repositories
	db := dbManager.DB()
	accountRepo := repository.NewAccountRepository(db, tp, appLogger)
	transactionRepo := repository.NewTransactionRepository(db, appLogger)
	projectRepo := repository.NewProjectRepository(db, appLogger)
	historyRepo := repository.NewScheduleHistoryRepository(db, appLogger)
	queueRepo := repository.NewQueueRepository(db, appLogger)
	scanRepo := repository.NewScanRepository(db, appLogger)
	resultRepo := repository.NewScanResultRepository(db, appLogger)

	// Unit of work (transaction manager)
	uow := database.NewUnitOfWork(db, appLogger, tp)

	// LLM collaborators
	pricer, err := llmadapter.NewStaticPricer(cfg.LLM)
	if err != nil {
		appLogger.Error("Invalid pricing configuration", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	caller := llmadapter.NewGatewayCaller(cfg.LLM.GatewayURL, cfg.LLM.APIKey, appLogger)
	evaluator := llmadapter.NewKeywordEvaluator()

	// Metrics
	promMetrics := metrics.NewPrometheusMetrics()

	// Initialize use cases
	ledgerService := ledger.NewService(uow, accountRepo, transactionRepo, tp, appLogger)

	sweeperService := sweeper.NewSweeper(
		scanRepo, queueRepo, ledgerService, tp, appLogger, promMetrics,
		sweeper.Config{
			StuckScanThreshold:     minutes(cfg.Sweeper.StuckScanThresholdMinutes),
			EntryLivenessThreshold: minutes(cfg.Sweeper.EntryLivenessThresholdMinutes),
		},
	)

	dispatcher := dispatch.NewDispatcher(
		projectRepo, queueRepo, historyRepo, scanRepo, resultRepo,
		ledgerService, caller, pricer, evaluator, tp, appLogger, promMetrics,
		dispatch.Config{
			Workers:         cfg.Dispatcher.Workers,
			CallTimeout:     cfg.Dispatcher.CallTimeout,
			ClaimBatchSize:  cfg.Dispatcher.ClaimBatchSize,
			DefaultPriority: cfg.Dispatcher.DefaultPriority,
		},
	)

	scanOps := scanops.NewService(scanRepo, queueRepo, ledgerService, sweeperService, tp, appLogger)

	// Internal cron trigger
	runner := cronrunner.NewRunner(dispatcher, sweeperService, appLogger, cfg.Cron)
	if err := runner.Start(); err != nil {
		appLogger.Error("Failed to start internal cron", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	// Initialize API handlers
	dispatchHandler := handler.NewDispatchHandler(dispatcher, appLogger)
	scanHandler := handler.NewScanHandler(scanOps, appLogger)
	balanceHandler := handler.NewBalanceHandler(ledgerService, appLogger)
	healthHandler := handler.NewHealthHandler(dbManager, database.NewMetricsCollector(appLogger, tp), appLogger)

	// Initialize Gin router
	router := gin.New()
	routes.SetupMiddlewares(router, appLogger)
	routes.SetupRoutes(router, dispatchHandler, scanHandler, balanceHandler, healthHandler,
		promMetrics.Handler(), cfg.Server.DispatchSecret, appLogger)

	// Create HTTP server with configurable timeout values
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		appLogger.Info("Starting server", map[string]any{
			"port": cfg.Server.Port,
			"env":  cfg.Environment,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop scheduling new work, then let in-flight workers drain
	runner.Stop()
	appLogger.Info("Waiting for in-flight scan workers...", nil)
	dispatcher.Wait()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("Server exited gracefully", nil)
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}
	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	if cfg.Database.Host == "" {
		if cfg.Environment == config.Production && os.Getenv("SE_DB_HOST") == "" {
			missingConfigs = append(missingConfigs, "database.host (or SE_DB_HOST environment variable)")
		} else if cfg.Environment != config.Production {
			missingConfigs = append(missingConfigs, "database.host")
		}
	}
	if cfg.Database.Username == "" {
		missingConfigs = append(missingConfigs, "database.username (or SE_DB_USERNAME environment variable)")
	}
	if cfg.Database.Database == "" {
		missingConfigs = append(missingConfigs, "database.database (or SE_DB_NAME environment variable)")
	}

	if cfg.Environment == config.Production && cfg.Server.DispatchSecret == "" {
		missingConfigs = append(missingConfigs, "server.dispatchSecret (or SE_DISPATCH_SECRET environment variable)")
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missingConfigs, ", "))
	}
	return nil
}
