// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Durable store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the SQLite database, always absolute
	Port     int
	LogLevel string
	DevMode  bool

	Redis   RedisConfig
	Durable DurableConfig
	LLM     LLMConfig
	Cache   CacheConfig
	Writer  WriterConfig

	PhaseOnsetAge int
}

// RedisConfig selects the ephemeral store. An empty Addr keeps entries in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DurableConfig selects the durable store
type DurableConfig struct {
	Driver      string
	DatabaseURL string // Postgres DSN
}

// LLMConfig holds server-side defaults for the external model
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// CacheConfig tunes the ephemeral tier
type CacheConfig struct {
	Codec           string
	MaxEntries      int
	CleanupSchedule string
}

// WriterConfig sizes the background writer
type WriterConfig struct {
	Workers   int
	QueueSize int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("LIFECANDLE_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8000),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Durable: DurableConfig{
			Driver:      strings.ToLower(getEnv("DURABLE_DRIVER", DriverSQLite)),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://max.openai365.top/v1"),
			Model:   getEnv("GEMINI_MODEL_NAME", "gemini-3-pro-preview"),
			Timeout: getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Cache: CacheConfig{
			Codec:           strings.ToLower(getEnv("CACHE_CODEC", "json")),
			MaxEntries:      getEnvAsInt("MEMORY_CACHE_MAX_ENTRIES", 10000),
			CleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "0 */10 * * * *"),
		},
		Writer: WriterConfig{
			Workers:   getEnvAsInt("WRITER_WORKERS", 4),
			QueueSize: getEnvAsInt("WRITER_QUEUE_SIZE", 256),
		},
		PhaseOnsetAge: getEnvAsInt("PHASE_ONSET_AGE", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected backends are usable
func (c *Config) Validate() error {
	switch c.Durable.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Durable.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DURABLE_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown DURABLE_DRIVER %q (want %s or %s)", c.Durable.Driver, DriverSQLite, DriverPostgres)
	}

	switch c.Cache.Codec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("unknown CACHE_CODEC %q (want json or msgpack)", c.Cache.Codec)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}

// DatabasePath returns the SQLite file of the durable store
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "lifecandle.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
