// Package main is the entry point for the AI trading Discord bot.
// The bot lets Discord members register Upbit keys and a trading prompt,
// runs an LLM agent against their account on a schedule and reports every
// session and a daily leaderboard back to Discord.
//
// The application follows the same layering as the rest of the codebase:
// - Domain layer is pure (no infrastructure dependencies)
// - Dependency injection via DI container
// - Repository pattern for data access
// - Service layer for business logic
// - Discord router and admin HTTP handlers at the edges
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"github.com/aristath/aitrader/internal/config"
	"github.com/aristath/aitrader/internal/di"
	"github.com/aristath/aitrader/internal/server"
	"github.com/aristath/aitrader/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration from environment variables (.env file)
// 2. Initializes logging
// 3. Wires all dependencies via the DI container
// 4. Registers Discord handlers and opens the gateway
// 5. Loads trading schedules and starts the cron engine
// 6. Starts the admin HTTP server
// 7. Waits for a shutdown signal and stops everything in reverse order
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger so the configuration error is still reported
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("timezone", cfg.Location().String()).
		Msg("Starting AI trader")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Handlers must be registered before the gateway opens so no event is missed
	container.Router.Register(container.Discord)
	if err := container.Discord.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open discord session")
	}
	log.Info().Msg("Discord session opened")

	// Schedules are loaded after the gateway is up because ticks post to Discord
	if err := container.TradingCron.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize trading cron")
	}

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.AdminPort,
		DevMode:   !cfg.IsProduction(),
		DB:        container.DB,
		Schedules: container.TradingCron,
		Engine:    container.Scheduler,
		Trades:    container.TradingService,
		Registry:  container.Registry,

		Jobs:          container.Scheduler,
		WALCheckpoint: jobs.WALCheckpoint,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	cancel()

	// Stops new ticks and waits for running sessions to return
	container.TradingCron.Stop()

	if err := container.Discord.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing discord session")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("AI trader stopped")
}
