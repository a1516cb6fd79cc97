package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	domainerr "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/domain/usecase/ledger"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/api/dto"
)

// BalanceHandler handles balance and ledger HTTP requests
type BalanceHandler struct {
	ledger *ledger.Service
	logger coreport.Logger
}

// NewBalanceHandler creates a new balance handler instance
func NewBalanceHandler(ledgerService *ledger.Service, logger coreport.Logger) *BalanceHandler {
	return &BalanceHandler{
		ledger: ledgerService,
		logger: logger,
	}
}

// GetBalance handles the GET /users/:userId/balance endpoint
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "User ID is required",
		})
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Error getting balance", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, balanceToResponse(balance))
}

// TopUp handles the POST /users/:userId/topup endpoint
func (h *BalanceHandler) TopUp(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "User ID is required",
		})
		return
	}

	var req dto.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message: "Invalid request body",
		})
		return
	}

	amountCents, err := entity.ValidateAndConvertAmount(req.Amount)
	if err != nil || amountCents <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidAmount),
			Message: "Amount must be a positive number with at most two decimal places",
		})
		return
	}

	balance, err := h.ledger.TopUp(c.Request.Context(), userID, amountCents, req.ReferenceID)
	if err != nil {
		h.logger.Error("Error processing top-up", map[string]any{
			"user_id": userID,
			"amount":  req.Amount,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, balanceToResponse(balance))
}

// ListTransactions handles the GET /users/:userId/transactions endpoint
func (h *BalanceHandler) ListTransactions(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "User ID is required",
		})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
				Message: "Limit must be between 1 and 500",
			})
			return
		}
		limit = parsed
	}

	transactions, err := h.ledger.ListTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		statusCode := http.StatusInternalServerError
		message := "Internal server error"
		if errors.Is(err, domainerr.ErrAccountNotFound) {
			statusCode = http.StatusNotFound
			message = "Account not found"
		}
		h.logger.Error("Error listing transactions", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(statusCode, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: message,
		})
		return
	}

	response := dto.TransactionListResponse{
		UserID:       userID,
		Transactions: make([]dto.TransactionResponse, 0, len(transactions)),
	}
	for _, tx := range transactions {
		response.Transactions = append(response.Transactions, dto.TransactionResponse{
			ID:            tx.ID,
			Type:          string(tx.Type),
			Amount:        entity.AmountInCentsToString(tx.AmountCents),
			ReferenceType: string(tx.ReferenceType),
			ReferenceID:   tx.ReferenceID,
			CreatedAt:     tx.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}

func balanceToResponse(balance *ledger.Balance) dto.BalanceResponse {
	return dto.BalanceResponse{
		UserID:    balance.UserID,
		Available: entity.AmountInCentsToString(balance.AvailableCents),
		Reserved:  entity.AmountInCentsToString(balance.ReservedCents),
		Total:     entity.AmountInCentsToString(balance.AvailableCents + balance.ReservedCents),
	}
}
