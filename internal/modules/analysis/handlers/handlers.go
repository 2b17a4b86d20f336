// Package handlers provides HTTP handlers for analysis requests.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/lifecandle/internal/cache"
	"github.com/aristath/lifecandle/internal/domain"
	"github.com/aristath/lifecandle/internal/modules/analysis"
	"github.com/aristath/lifecandle/internal/modules/indicators"
	"github.com/aristath/lifecandle/internal/work"
)

const maxRequestBody = 1 << 20

// CacheHeader reports which tier answered POST /api/analyze
const CacheHeader = "X-Cache"

// TierStats exposes lookup counters of the tiered cache
type TierStats interface {
	Stats() cache.Stats
}

// WriterStats exposes background writer counters
type WriterStats interface {
	Stats() work.Stats
}

// MemoryStats exposes counters of the in-memory ephemeral store
type MemoryStats interface {
	Stats() cache.MemoryStats
}

// Handler provides HTTP handlers for analysis endpoints
type Handler struct {
	service *analysis.Service
	tiers   TierStats
	writer  WriterStats
	memory  MemoryStats
	log     zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *analysis.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

// SetStatsSources sets the counters reported by GET /api/cache/stats.
// memory may be nil when the ephemeral tier is not in-process.
func (h *Handler) SetStatsSources(tiers TierStats, writer WriterStats, memory MemoryStats) {
	h.tiers = tiers
	h.writer = writer
	h.memory = memory
}

// HandleAnalyze handles POST /api/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req domain.AnalysisRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Int("status", status).Msg("Analysis failed")
		} else {
			h.log.Warn().Err(err).Int("status", status).Msg("Analysis rejected")
		}
		h.writeError(w, status, err.Error())
		return
	}

	w.Header().Set(CacheHeader, string(outcome.Level))
	h.writeJSON(w, http.StatusOK, outcome.Result)
}

// HandleGet handles GET /api/analysis/{fingerprint}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	result, ok := h.find(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleIndicators handles GET /api/analysis/{fingerprint}/indicators
func (h *Handler) HandleIndicators(w http.ResponseWriter, r *http.Request) {
	window := indicators.DefaultWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < indicators.MinWindow || n > indicators.MaxWindow {
			h.writeError(w, http.StatusBadRequest, "window must be an integer between 2 and 50")
			return
		}
		window = n
	}

	result, ok := h.find(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, indicators.Compute(result.Timeline, window))
}

// HandleCacheStats handles GET /api/cache/stats
func (h *Handler) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{}
	if h.tiers != nil {
		s := h.tiers.Stats()
		lookups := s.EphemeralHits + s.DurableHits + s.Misses
		hitRate := 0.0
		if lookups > 0 {
			hitRate = float64(s.EphemeralHits) / float64(lookups)
		}
		response["tiers"] = s
		response["ephemeral_hit_rate"] = hitRate
	}
	if h.writer != nil {
		response["writer"] = h.writer.Stats()
	}
	if h.memory != nil {
		response["memory"] = h.memory.Stats()
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) find(w http.ResponseWriter, r *http.Request) (*domain.AnalysisResult, bool) {
	result, err := h.service.Find(r.Context(), chi.URLParam(r, "fingerprint"))
	switch {
	case errors.Is(err, analysis.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "Analysis not found")
		return nil, false
	case err != nil:
		h.writeError(w, StatusFor(err), err.Error())
		return nil, false
	}
	return result, true
}

// StatusFor maps an analysis error onto an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
