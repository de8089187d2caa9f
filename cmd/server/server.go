package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"codeberg.org/avksport/server/avk/sessions"
	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/auth"
	"codeberg.org/avksport/server/internal/config"
	"codeberg.org/avksport/server/internal/logger"
	"codeberg.org/avksport/server/internal/ratelimit"
	"codeberg.org/avksport/server/internal/storage"
)

// creates and configures a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := storage.NewClient(ctx, cfg.MongoURL, cfg.DBName)
	if err != nil {
		return nil, err
	}

	userRepo := users.NewRepository(db.Database())
	sessionRepo := sessions.NewRepository(db.Database())

	if err := db.EnsureIndexes(ctx, userRepo, sessionRepo); err != nil {
		db.Close(context.Background()) //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	services, err := InitializeServices(ctx, cfg, userRepo, sessionRepo)
	if err != nil {
		db.Close(context.Background()) //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	throttleConfig := ratelimit.DefaultConfig()
	throttleConfig.Rate = cfg.LoginRateLimit

	var throttle *ratelimit.Throttle
	if services.redis != nil {
		throttle, err = ratelimit.NewWithRedis(throttleConfig, services.redis.Client())
	} else {
		throttle, err = ratelimit.New(throttleConfig)
	}

	if err != nil {
		services.Close(context.Background())
		db.Close(context.Background()) //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	logger.Info("rate limiter initialized",
		"enabled", throttleConfig.Enabled,
		"rate", throttleConfig.Rate,
		"shared", services.redis != nil,
	)

	if cfg.GoogleLoginEnabled() {
		err := auth.InitializeProviders(auth.ProviderConfig{
			SessionSecret:      cfg.SessionSecret,
			BaseURL:            cfg.BaseURL,
			GoogleClientID:     cfg.GoogleClientID,
			GoogleClientSecret: cfg.GoogleClientSecret,
		})
		if err != nil {
			services.Close(context.Background())
			db.Close(context.Background()) //nolint:errcheck,gosec // best-effort cleanup on init failure
			return nil, fmt.Errorf("failed to initialize OAuth providers: %w", err)
		}
	}

	// create session cleanup service; expired sessions are otherwise removed when looked up
	var cleanupService *sessions.CleanupService
	if cfg.SessionCleanupInterval > 0 {
		cleanupService = sessions.NewCleanupService(sessionRepo, cfg.SessionCleanupInterval, services.Metrics.SessionsSwept)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := newRouter(cfg)
	if err != nil {
		services.Close(context.Background())
		db.Close(context.Background()) //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, err
	}

	server := &Server{
		db:             db,
		config:         cfg,
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		services:       services,
		router:         router,
		cleanupService: cleanupService,
		throttle:       throttle,
	}

	RegisterRoutes(router, server)

	return server, nil
}

// client ips come from X-Forwarded-For only when the peer is a configured proxy
func newRouter(cfg *config.Config) (*gin.Engine, error) {
	router := gin.New()

	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	router.Use(gin.Recovery(), logger.Middleware())

	return router, nil
}
