package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/database"
)

// HealthHandler reports process liveness and database readiness
type HealthHandler struct {
	dbManager *database.Manager
	collector *database.MetricsCollector
	logger    coreport.Logger
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(dbManager *database.Manager, collector *database.MetricsCollector, logger coreport.Logger) *HealthHandler {
	return &HealthHandler{
		dbManager: dbManager,
		collector: collector,
		logger:    logger,
	}
}

// Healthz handles the GET /healthz endpoint
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := h.dbManager.WithTimeout(c.Request.Context())
	defer cancel()

	_, err := h.collector.MeasureQuery(ctx, "ping", func() (int64, error) {
		sqlDB, dbErr := h.dbManager.DB().DB()
		if dbErr != nil {
			return 0, dbErr
		}
		return 0, sqlDB.PingContext(ctx)
	})
	if err != nil {
		h.logger.Error("Health check failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unavailable",
			"database": "down",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}
