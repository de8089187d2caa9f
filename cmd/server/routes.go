package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"codeberg.org/avksport/server/api/rest/admin"
	"codeberg.org/avksport/server/api/rest/auth"
	"codeberg.org/avksport/server/api/rest/health"
	"codeberg.org/avksport/server/internal/metrics"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(CORSMiddleware(server.config.CORSOrigins))

	router.GET("/health", health.Handler)
	router.GET("/ready", health.ReadyHandler(server.db))
	router.GET("/metrics", metrics.Handler(prometheus.DefaultGatherer))

	api := router.Group("/api")

	{
		api.GET("/ping", health.PingHandler)

		auth.RegisterRoutes(api, auth.Deps{
			Accounts: server.services.Accounts,
			Broker:   server.services.Broker,
			Gate:     server.services.Gate,
			DenyList: server.services.DenyList,
			Metrics:  server.services.Metrics,
			Cookie: auth.CookieConfig{
				Name:   server.config.SessionCookieName,
				Secure: server.config.IsProduction(),
				TTL:    server.services.Broker.TTL(),
			},
			Throttle:      server.throttle.Middleware(),
			GoogleEnabled: server.config.GoogleLoginEnabled(),
			FrontendURL:   server.config.FrontendURL,
		})
		admin.RegisterRoutes(api, server.services.Accounts, server.services.Gate)
	}
}

// allows the storefront origins to send the session cookie
func CORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Session-ID"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300 * time.Second,
	})
}
