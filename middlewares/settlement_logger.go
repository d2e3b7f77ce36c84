package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/tiannys/buffet-restaurant/utils"
)

// SettlementLoggerMiddleware records every attempt to close or bill a
// session and whether it succeeded.
func SettlementLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		utils.InfoLogger.Printf("Settlement requested for session %s: %s", sessionID, c.FullPath())

		c.Next()

		if status := c.Writer.Status(); status < 300 {
			utils.InfoLogger.Printf("Settlement succeeded for session %s", sessionID)
		} else {
			utils.ErrorLogger.Printf("Settlement failed for session %s with status %d", sessionID, status)
		}
	}
}
