package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/avksport/server/internal/logger"
)

const readyTimeout = 2 * time.Second

// Version is set at build time
var Version = "dev"

// returns the server health status
func Handler(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Status:  "healthy",
		Service: serviceName,
		Version: Version,
	})
}

// reports 503 until the database answers a ping
func ReadyHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Warn("readiness check failed", "error", err.Error())
			c.JSON(http.StatusServiceUnavailable, Response{
				Status:  "unavailable",
				Service: serviceName,
				Error:   "database unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, Response{Status: "ready", Service: serviceName, Version: Version})
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{Message: "pong"})
}
