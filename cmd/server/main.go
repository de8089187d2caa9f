package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/avksport/server/internal/config"
	"codeberg.org/avksport/server/internal/logger"
)

// @title AVK Sport Auth API
// @version 1.0
// @description Accounts and sessions for the AVK hockey store
// @description
// @description Features:
// @description - Email and password accounts with bearer tokens
// @description - Cookie sessions from the external OAuth provider
// @description - Optional Google login
// @description - Password reset by email
// @description - Account administration

// @contact.name API Support
// @contact.url https://codeberg.org/avksport/server

// @host avk-pro.ru

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authenticated requests. Format: Bearer {token}

func main() {
	logger.Info("starting avksport auth server")

	// load configuration from environment
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	// create server with all dependencies
	srv, err := NewServer(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// start server in goroutine
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// start session cleanup service with cancellable context
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	if srv.cleanupService != nil {
		go srv.cleanupService.Start(cleanupCtx)
	}

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// stop cleanup service
	cleanupCancel()

	logger.Info("shutting down server")

	// graceful shutdown with 10 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// let pending reset emails finish, then flush metrics and close redis
	srv.services.Close(ctx)

	// close database connection
	srv.db.Close(ctx) //nolint:errcheck,gosec // best-effort cleanup on shutdown

	logger.Info("server stopped")
}
