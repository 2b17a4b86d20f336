// Package main is the entry point of the lifecandle analysis service.
//
// Startup order:
//  1. Load configuration from the environment (.env supported)
//  2. Initialize logging
//  3. Wire stores, the background writer, generators and jobs
//  4. Start the scheduler and the HTTP server
//  5. On SIGINT/SIGTERM, stop accepting requests, stop jobs and drain the writer
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/lifecandle/internal/config"
	"github.com/aristath/lifecandle/internal/di"
	"github.com/aristath/lifecandle/internal/server"
	"github.com/aristath/lifecandle/pkg/logger"
)

// requestHeadroom is added to the generation timeout for the HTTP request timeout
const requestHeadroom = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("durable_driver", cfg.Durable.Driver).
		Bool("redis", cfg.Redis.Addr != "").
		Msg("Starting lifecandle")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:            log,
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
		RequestTimeout: cfg.LLM.Timeout + requestHeadroom,
		Container:      container,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	container.Scheduler.Stop()

	// Pending durable writes are flushed before the stores close
	if err := container.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to close resources cleanly")
	}

	log.Info().Msg("Server stopped")
}
