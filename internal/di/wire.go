// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/lifecandle/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Open stores
// 2. Build services
// 3. Register jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container, err := InitializeStores(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stores: %w", err)
	}

	InitializeServices(container, cfg, log)

	if err := RegisterJobs(container, cfg, log); err != nil {
		_ = container.Close(context.Background())
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")
	return container, nil
}
