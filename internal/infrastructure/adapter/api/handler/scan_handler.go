package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	domainerr "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/domain/usecase/scanops"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/api/dto"
)

// ScanHandler handles scan lifecycle HTTP requests
type ScanHandler struct {
	scanOps *scanops.Service
	logger  coreport.Logger
}

// NewScanHandler creates a new scan handler instance
func NewScanHandler(scanOps *scanops.Service, logger coreport.Logger) *ScanHandler {
	return &ScanHandler{
		scanOps: scanOps,
		logger:  logger,
	}
}

// ActiveScans handles the GET /scans/active endpoint
func (h *ScanHandler) ActiveScans(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "userId query parameter is required",
		})
		return
	}

	work, err := h.scanOps.ActiveScans(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Error listing active scans", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Internal server error",
		})
		return
	}

	response := dto.ActiveScansResponse{
		UserID: userID,
		Active: make([]dto.ActiveWorkResponse, 0, len(work)),
	}
	for _, item := range work {
		entry := dto.ActiveWorkResponse{Entry: entryToResponse(item.Entry)}
		if item.Scan != nil {
			scan := scanToResponse(item.Scan)
			entry.Scan = &scan
		}
		response.Active = append(response.Active, entry)
	}

	c.JSON(http.StatusOK, response)
}

// StopScan handles the POST /scans/:scanId/stop endpoint
func (h *ScanHandler) StopScan(c *gin.Context) {
	scanID := c.Param("scanId")

	scan, err := h.scanOps.StopScan(c.Request.Context(), scanID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		message := "Internal server error"
		if errors.Is(err, domainerr.ErrScanNotFound) {
			statusCode = http.StatusNotFound
			message = "Scan not found"
		}
		h.logger.Error("Error stopping scan", map[string]any{
			"scan_id": scanID,
			"error":   err.Error(),
		})
		c.JSON(statusCode, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: message,
		})
		return
	}

	c.JSON(http.StatusOK, scanToResponse(scan))
}

// Cleanup handles the POST /cleanup endpoint
func (h *ScanHandler) Cleanup(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "userId query parameter is required",
		})
		return
	}

	report, err := h.scanOps.Cleanup(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Error running cleanup", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, dto.CleanupResponse{
		StuckScans:      report.StuckScans,
		OrphanedEntries: report.OrphanedEntries,
	})
}

func scanToResponse(scan *entity.Scan) dto.ScanResponse {
	return dto.ScanResponse{
		ID:           scan.ID,
		ProjectID:    scan.ProjectID,
		Status:       string(scan.Status),
		TotalQueries: scan.TotalQueries,
		TotalResults: scan.TotalResults,
		TotalCostUsd: scan.TotalCostUsd,
		ErrorMessage: scan.ErrorMessage,
		CreatedAt:    scan.CreatedAt,
		CompletedAt:  scan.CompletedAt,
	}
}

func entryToResponse(entry *entity.QueueEntry) dto.QueueEntryResponse {
	return dto.QueueEntryResponse{
		ID:              entry.ID,
		ProjectID:       entry.ProjectID,
		ScanID:          entry.ScanID,
		Status:          string(entry.Status),
		ProgressCurrent: entry.ProgressCurrent,
		ProgressTotal:   entry.ProgressTotal,
		ProgressMessage: entry.ProgressMessage,
		ErrorMessage:    entry.ErrorMessage,
		CreatedAt:       entry.CreatedAt,
		StartedAt:       entry.StartedAt,
	}
}
