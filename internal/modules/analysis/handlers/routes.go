package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers analysis routes on a router mounted at /api
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.HandleAnalyze)
	r.Get("/analysis/{fingerprint}", h.HandleGet)
	r.Get("/analysis/{fingerprint}/indicators", h.HandleIndicators)
	r.Get("/cache/stats", h.HandleCacheStats)
}
