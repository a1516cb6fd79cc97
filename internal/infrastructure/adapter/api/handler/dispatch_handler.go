package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/domain/usecase/dispatch"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/api/dto"
)

// DispatchHandler handles the external dispatch trigger
type DispatchHandler struct {
	dispatcher *dispatch.Dispatcher
	logger     coreport.Logger
}

// NewDispatchHandler creates a new dispatch handler instance
func NewDispatchHandler(dispatcher *dispatch.Dispatcher, logger coreport.Logger) *DispatchHandler {
	return &DispatchHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Dispatch handles the POST /dispatch endpoint. The response reports the
// queuing outcome only; workers keep executing after the request returns.
func (h *DispatchHandler) Dispatch(c *gin.Context) {
	result, err := h.dispatcher.Dispatch(c.Request.Context())
	if err != nil {
		h.logger.Error("Dispatch cycle failed", map[string]any{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Dispatch cycle failed",
		})
		return
	}

	c.JSON(http.StatusOK, dto.DispatchResponse{
		ProjectsDue:    result.ProjectsDue,
		EntriesQueued:  result.EntriesQueued,
		WorkersSpawned: result.WorkersSpawned,
	})
}
