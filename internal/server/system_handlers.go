package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/lifecandle/internal/cache"
	"github.com/aristath/lifecandle/internal/di"
	"github.com/aristath/lifecandle/internal/scheduler"
	"github.com/aristath/lifecandle/internal/work"
)

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string                `json:"status"`
	CPUPercent    float64               `json:"cpu_percent"`
	RAMPercent    float64               `json:"ram_percent"`
	Goroutines    int                   `json:"goroutines"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Ephemeral     string                `json:"ephemeral"`
	EphemeralErr  string                `json:"ephemeral_error,omitempty"`
	Durable       DurableInfo           `json:"durable"`
	Writer        work.Stats            `json:"writer"`
	Cache         cache.Stats           `json:"cache"`
	Jobs          []scheduler.JobStatus `json:"jobs"`
}

// DurableInfo describes the durable tier
type DurableInfo struct {
	Driver  string `json:"driver"`
	Records int64  `json:"records"`
	Error   string `json:"error,omitempty"`
}

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	container *di.Container
	started   time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(container *di.Container, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		container: container,
		started:   time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "ok",
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Ephemeral:     "memory",
		Durable:       h.durableInfo(r.Context()),
		Writer:        h.container.WriterQueue.Stats(),
		Cache:         h.container.TieredCache.Stats(),
	}
	if h.container.Scheduler != nil {
		response.Jobs = h.container.Scheduler.Status()
	}
	if h.container.RedisStore != nil {
		response.Ephemeral = "redis"
		if err := h.pingRedis(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("Redis ping failed")
			response.EphemeralErr = err.Error()
		}
	}
	if response.Durable.Error != "" || response.EphemeralErr != "" {
		response.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, response, h.log)
}

func (h *SystemHandlers) durableInfo(ctx context.Context) DurableInfo {
	info := DurableInfo{Driver: "sqlite"}
	if h.container.PostgresDB != nil {
		info.Driver = "postgres"
	}

	if h.container.SQLiteDB != nil {
		if err := h.container.SQLiteDB.QuickCheck(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Durable database check failed")
			info.Error = err.Error()
			return info
		}
	}

	count, err := h.container.Durable.Count(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to count durable records")
		info.Error = err.Error()
		return info
	}
	info.Records = count
	return info
}

func (h *SystemHandlers) pingRedis(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.container.RedisStore.Ping(ctx)
}

// getSystemStats returns CPU and RAM usage percentages. The CPU sample is
// short so the endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
