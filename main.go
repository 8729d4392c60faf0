package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"crossrate-api/internal/api"
	"crossrate-api/internal/calc"
	"crossrate-api/internal/config"
	"crossrate-api/internal/exchange"
	"crossrate-api/internal/fetch"
	"crossrate-api/internal/logger"
	"crossrate-api/internal/platform"
	"crossrate-api/internal/ratelimit"
	"crossrate-api/internal/routes"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(cfg.LogLevel)

	// Initialize the exchange layer and calculator
	fetchClient := fetch.NewClient(cfg.Fetch, appLogger)
	registry := exchange.NewRegistry(fetchClient)
	executor := routes.NewExecutor(registry, appLogger)
	calculator := calc.NewCalculator(registry, executor, appLogger)
	rateLimiter := ratelimit.NewLimiter(cfg, appLogger)

	// Initialize HTTP handlers
	handlers := api.NewHandlers(cfg, appLogger, registry, calculator).
		WithRateLimit(rateLimiter)

	// Setup Gin router
	router := handlers.SetupRoutes()

	// Setup HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in a goroutine
	serverLogger := appLogger.WithComponent("server")
	go func() {
		serverLogger.Infof("Starting cross-rate service on port %s with %d adapters", cfg.Port, len(registry.All()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Create a shutdown context that works across platforms
	shutdownCtx, stop := platform.NewShutdownContext(context.Background())
	defer stop()
	<-shutdownCtx.Done()

	appLogger.Info("Shutting down server...")

	// Stop rate limiter cleanup
	rateLimiter.Stop()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited")
}
