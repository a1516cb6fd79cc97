package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/api/dto"
)

// DispatchSecret guards the dispatch trigger against unauthorized callers.
// An empty configured secret disables the check, which is only acceptable
// in development.
func DispatchSecret(secret string, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		presented := c.GetHeader("X-Dispatch-Secret")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			logger.Warn("Dispatch trigger rejected", map[string]any{
				"client_ip": c.ClientIP(),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "Unauthorized",
			})
			return
		}

		c.Next()
	}
}
