package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/SyrupLabs-code/Syrup/internal/config"
	"github.com/SyrupLabs-code/Syrup/internal/logger"
	"github.com/SyrupLabs-code/Syrup/internal/router"
	"github.com/SyrupLabs-code/Syrup/internal/server"
)

func main() {
	// Secrets from .env feed viper's AutomaticEnv; missing file is fine.
	_ = godotenv.Load()

	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Build the trade router, registering every venue that has credentials
	// configured.
	trades := router.New(log)
	for _, creds := range cfg.PlatformCredentials() {
		if err := trades.RegisterPlatform(creds); err != nil {
			log.Warn("Skipping configured platform",
				zap.String("platform", string(creds.Platform)), zap.Error(err))
		}
	}

	// Setup the HTTP server
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	server.NewHandler(trades, log).Routes(engine)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: engine,
	}

	// Setup context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("Starting API server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("API server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	// Venue connections are released last so in-flight trades can finish.
	trades.CloseAll()
	log.Info("Shutdown complete")
}
