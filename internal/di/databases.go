package di

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/lifecandle/internal/cache"
	"github.com/aristath/lifecandle/internal/config"
	"github.com/aristath/lifecandle/internal/database"
)

const storeInitTimeout = 10 * time.Second

// InitializeStores opens the durable and ephemeral tiers and applies the schema
func InitializeStores(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}
	ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
	defer cancel()

	switch cfg.Durable.Driver {
	case config.DriverPostgres:
		pg, err := database.OpenPostgres(ctx, cfg.Durable.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		container.PostgresDB = pg
		container.Durable = cache.NewPostgresStore(pg)
	default:
		db, err := database.New(database.Config{
			Path:    cfg.DatabasePath(),
			Profile: database.ProfileDurable,
			Name:    "results",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize results database: %w", err)
		}
		container.SQLiteDB = db
		container.Durable = cache.NewSQLiteStore(db.Conn())
	}

	if err := container.Durable.EnsureSchema(ctx); err != nil {
		_ = container.Close(ctx)
		return nil, fmt.Errorf("failed to apply durable schema: %w", err)
	}
	log.Info().Str("driver", cfg.Durable.Driver).Msg("Durable store ready")

	initializeEphemeral(ctx, container, cfg, log)

	codec, err := cache.NewCodec(cfg.Cache.Codec)
	if err != nil {
		_ = container.Close(ctx)
		return nil, err
	}
	container.Codec = codec

	return container, nil
}

// initializeEphemeral connects to Redis when configured. An unreachable Redis
// is not fatal: the in-memory store takes its place.
func initializeEphemeral(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) {
	if cfg.Redis.Addr != "" {
		redisStore, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err == nil {
			container.RedisStore = redisStore
			container.Ephemeral = redisStore
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Ephemeral store: redis")
			return
		}
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, falling back to in-memory ephemeral store")
	}

	container.MemoryStore = cache.NewMemoryStore(cfg.Cache.MaxEntries)
	container.Ephemeral = container.MemoryStore
	log.Info().Int("max_entries", cfg.Cache.MaxEntries).Msg("Ephemeral store: in-memory")
}
