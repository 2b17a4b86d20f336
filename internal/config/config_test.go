package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LIFECANDLE_DATA_DIR", "PORT", "LOG_LEVEL", "DEV_MODE",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"DURABLE_DRIVER", "DATABASE_URL",
		"GEMINI_API_KEY", "GEMINI_BASE_URL", "GEMINI_MODEL_NAME", "LLM_TIMEOUT",
		"CACHE_CODEC", "MEMORY_CACHE_MAX_ENTRIES", "CACHE_CLEANUP_SCHEDULE",
		"WRITER_WORKERS", "WRITER_QUEUE_SIZE", "PHASE_ONSET_AGE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv("LIFECANDLE_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "lifecandle.db"), cfg.DatabasePath())
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, DriverSQLite, cfg.Durable.Driver)
	assert.Equal(t, "https://max.openai365.top/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "gemini-3-pro-preview", cfg.LLM.Model)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "json", cfg.Cache.Codec)
	assert.Equal(t, 10000, cfg.Cache.MaxEntries)
	assert.Equal(t, "0 */10 * * * *", cfg.Cache.CleanupSchedule)
	assert.Equal(t, 4, cfg.Writer.Workers)
	assert.Equal(t, 256, cfg.Writer.QueueSize)
	assert.Equal(t, 10, cfg.PhaseOnsetAge)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIFECANDLE_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9100")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("DURABLE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/lifecandle?sslmode=disable")
	t.Setenv("LLM_TIMEOUT", "45")
	t.Setenv("CACHE_CODEC", "MSGPACK")
	t.Setenv("WRITER_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, DriverPostgres, cfg.Durable.Driver)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "msgpack", cfg.Cache.Codec)
	assert.Equal(t, 4, cfg.Writer.Workers)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:    8000,
			Durable: DurableConfig{Driver: DriverSQLite},
			Cache:   CacheConfig{Codec: "json"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Durable.Driver = "mysql" }, "DURABLE_DRIVER"},
		{"postgres without dsn", func(c *Config) { c.Durable.Driver = DriverPostgres }, "DATABASE_URL"},
		{"postgres with dsn", func(c *Config) {
			c.Durable.Driver = DriverPostgres
			c.Durable.DatabaseURL = "postgres://localhost/db"
		}, ""},
		{"unknown codec", func(c *Config) { c.Cache.Codec = "gob" }, "CACHE_CODEC"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "1m30s")
	assert.Equal(t, 90*time.Second, getEnvAsDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "garbage")
	assert.Equal(t, time.Second, getEnvAsDuration("TEST_DURATION", time.Second))
}
