package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/api/handler"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/api/middleware"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(
	router *gin.Engine,
	dispatchHandler *handler.DispatchHandler,
	scanHandler *handler.ScanHandler,
	balanceHandler *handler.BalanceHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler http.Handler,
	dispatchSecret string,
	logger coreport.Logger,
) {
	// Dispatch trigger, guarded by the shared secret
	router.POST("/dispatch", middleware.DispatchSecret(dispatchSecret, logger), dispatchHandler.Dispatch)

	// Scan lifecycle routes
	scanRoutes := router.Group("/scans")
	{
		scanRoutes.GET("/active", scanHandler.ActiveScans)
		scanRoutes.POST("/:scanId/stop", scanHandler.StopScan)
	}
	router.POST("/cleanup", scanHandler.Cleanup)

	// Balance and ledger routes
	userRoutes := router.Group("/users")
	{
		userRoutes.GET("/:userId/balance", balanceHandler.GetBalance)
		userRoutes.POST("/:userId/topup", balanceHandler.TopUp)
		userRoutes.GET("/:userId/transactions", balanceHandler.ListTransactions)
	}

	// Operational endpoints
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(metricsHandler))
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger) {
	// Apply middlewares in the correct order
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
}
