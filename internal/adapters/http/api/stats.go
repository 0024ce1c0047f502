package api

import (
	"context"
	"fmt"
	"net/http"
)

// StatsProvider exposes runtime statistics of the matching service.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler wraps provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats writes all statistics, or a single entry when ?section= is set
// (for example ?section=matches for per-status match counts).
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.provider.GetStats(r.Context())
	section := r.URL.Query().Get("section")
	if section == "" {
		writeJSON(w, http.StatusOK, stats)
		return
	}
	v, ok := stats[section]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("unknown stats section %q", section))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{section: v})
}
