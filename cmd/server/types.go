package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/avksport/server/avk/sessions"
	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/accounts"
	"codeberg.org/avksport/server/internal/auth"
	"codeberg.org/avksport/server/internal/config"
	"codeberg.org/avksport/server/internal/metrics"
	"codeberg.org/avksport/server/internal/oauth"
	"codeberg.org/avksport/server/internal/ratelimit"
	"codeberg.org/avksport/server/internal/storage"
)

// holds all dependencies and state for the API server
type Server struct {
	db             *storage.Client
	config         *config.Config
	userRepo       *users.Repository
	sessionRepo    *sessions.Repository
	services       *Services
	router         *gin.Engine
	cleanupService *sessions.CleanupService
	throttle       *ratelimit.Throttle
}

// holds the auth services built on top of the repositories
type Services struct {
	Issuer   *auth.Issuer
	DenyList auth.DenyList
	Gate     *auth.Gate
	Broker   *oauth.Broker
	Accounts *accounts.Service
	Metrics  *metrics.Recorder

	// set when REDIS_URL is configured; shared with the throttle
	redis *auth.RedisDenyList
}
