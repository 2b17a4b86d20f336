package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/lifecandle/internal/config"
	"github.com/aristath/lifecandle/internal/di"
)

func setupTestServer(t *testing.T) (*Server, *di.Container) {
	t.Helper()
	cfg := &config.Config{
		DataDir: t.TempDir(),
		Port:    8000,
		Durable: config.DurableConfig{Driver: config.DriverSQLite},
		LLM:     config.LLMConfig{BaseURL: "http://127.0.0.1:1/v1"},
		Cache:   config.CacheConfig{Codec: "json", MaxEntries: 10, CleanupSchedule: "0 */10 * * * *"},
		Writer:  config.WriterConfig{Workers: 1, QueueSize: 8},
	}
	container, err := di.Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close(context.Background()) })

	return New(Config{Log: zerolog.Nop(), Port: cfg.Port, DevMode: true, Container: container}), container
}

func TestHandleHealth(t *testing.T) {
	s, _ := setupTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "lifecandle", body["service"])
}

func TestHandleSystemStatus(t *testing.T) {
	s, container := setupTestServer(t)

	payload := `{"gender":"Male","birthYear":"1990","yearPillar":"甲子","monthPillar":"丙寅","dayPillar":"戊辰","hourPillar":"壬戌","startAge":1,"firstSuperLuck":"丁卯","apiKey":"random"}`
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(payload)))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, container.WriterQueue.Close(context.Background()))

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body SystemStatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "memory", body.Ephemeral)
	assert.Equal(t, "sqlite", body.Durable.Driver)
	assert.Equal(t, int64(1), body.Durable.Records)
	assert.Equal(t, int64(1), body.Writer.Completed)
	assert.Equal(t, int64(1), body.Cache.Misses)
	assert.Greater(t, body.Goroutines, 0)
	require.Len(t, body.Jobs, 2)
	assert.Equal(t, "cache_cleanup", body.Jobs[0].Name)
	assert.Equal(t, "wal_checkpoint", body.Jobs[1].Name)
	assert.GreaterOrEqual(t, body.RAMPercent, 0.0)
}

func TestHandleSystemStatus_DegradedWhenDurableUnavailable(t *testing.T) {
	s, container := setupTestServer(t)
	require.NoError(t, container.SQLiteDB.Close())

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body SystemStatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.NotEmpty(t, body.Durable.Error)
	assert.Empty(t, body.EphemeralErr)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAnalyzeThroughRouter(t *testing.T) {
	s, _ := setupTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(`{"gender":"Male"}`))
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "yearPillar")
}
