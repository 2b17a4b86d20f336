/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived component of the service. It is built
 * once by Wire and handed to the HTTP server and the shutdown path.
 */
package di

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aristath/lifecandle/internal/cache"
	"github.com/aristath/lifecandle/internal/clients/llm"
	"github.com/aristath/lifecandle/internal/database"
	"github.com/aristath/lifecandle/internal/modules/analysis"
	"github.com/aristath/lifecandle/internal/modules/analysis/handlers"
	"github.com/aristath/lifecandle/internal/modules/synthesis"
	"github.com/aristath/lifecandle/internal/scheduler"
	"github.com/aristath/lifecandle/internal/work"
)

/**
 * Container holds all dependencies for the application.
 *
 * Exactly one of SQLiteDB and PostgresDB is set, matching DURABLE_DRIVER.
 * Exactly one of MemoryStore and RedisStore is set, depending on REDIS_ADDR.
 */
type Container struct {
	// Durable tier
	SQLiteDB   *database.DB
	PostgresDB *sql.DB
	Durable    *cache.SQLStore

	// Ephemeral tier
	Ephemeral   cache.EphemeralStore
	MemoryStore *cache.MemoryStore
	RedisStore  *cache.RedisStore
	Codec       cache.Codec

	// Background writer and cache orchestration
	WriterQueue *work.Queue
	TieredCache *cache.TieredCache

	// Generation
	Synthesizer *synthesis.Synthesizer
	LLMClient   *llm.Client

	// Analysis
	AnalysisService *analysis.Service
	AnalysisHandler *handlers.Handler

	Scheduler *scheduler.Scheduler
}

// Close drains the background writer, then releases the stores.
// The scheduler is stopped by its owner before Close is called.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.WriterQueue != nil {
		errs = append(errs, c.WriterQueue.Close(ctx))
	}
	if c.RedisStore != nil {
		errs = append(errs, c.RedisStore.Close())
	}
	if c.SQLiteDB != nil {
		errs = append(errs, c.SQLiteDB.Close())
	}
	if c.PostgresDB != nil {
		errs = append(errs, c.PostgresDB.Close())
	}
	return errors.Join(errs...)
}
