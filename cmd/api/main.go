package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipematch/backend/config"
	"github.com/pageza/recipematch/backend/internal/api"
	"github.com/pageza/recipematch/backend/internal/app"
	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/middleware"
	"github.com/pageza/recipematch/backend/internal/router"
	"github.com/pageza/recipematch/backend/internal/server"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.Environment.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := api.RegisterValidators(); err != nil {
		logging.Fatal().Err(err).Msg("Failed to register validators")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}

	var limiter middleware.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewQueryRateLimiter(a.Redis, cfg.RateLimitPerMinute)
	}

	r := router.SetupRouter(router.Deps{
		RecipeHandler: api.NewRecipeHandler(a.Retriever),
		HealthHandler: api.NewHealthHandler(a.HealthChecks()),
		QueryLimiter:  limiter,
		CORSOrigins:   cfg.CORSOrigins,
	})

	// Create and start server
	srv := server.New(cfg, r)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or error
	exitCode := 0
	select {
	case err := <-errChan:
		if err != nil {
			logging.Error().Err(err).Msg("Server error")
			exitCode = 1
		}
	case sig := <-quit:
		logging.Info().Str("signal", sig.String()).Msg("Received signal")
	}

	// Gracefully shutdown the server
	logging.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Server shutdown error")
		exitCode = 1
	}
	if err := a.Close(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Failed to release dependencies")
		exitCode = 1
	}
	cancel()
	logging.Info().Msg("Server stopped")
	os.Exit(exitCode)
}
