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

	"github.com/timmy/gemstore/internal/api"
	"github.com/timmy/gemstore/internal/app"
	"github.com/timmy/gemstore/internal/config"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/observability"
)

const serviceName = "gemstore-api"

func main() {
	// Initialize logger first (LOG_* environment variables)
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx := logger.SetComponent(context.Background(), "main")

	shutdownTracing, err := observability.InitTracing(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize tracing")
	}

	application, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize application")
	}
	defer application.Close()

	sources, err := application.Sources()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize import sources")
	}

	// Setup router
	router := api.SetupRouter(application.APIServices(sources), cfg, serviceName)

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port":    cfg.Server.Port,
			"mode":    cfg.Server.Mode,
			"sources": len(sources),
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.WithError(err).Warn("Failed to flush traces")
	}

	appLogger.Info("Server exited")
}
