package api

import (
	"context"
	"net/http"

	service "github.com/okian/bakery/internal/app"
)

// StatsProvider reports row counts and service state.
type StatsProvider interface {
	GetStats(ctx context.Context) (service.Stats, error)
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler returns a StatsHandler reading from provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats writes the current snapshot, or 500 when the counts cannot be read.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.provider.GetStats(r.Context())
	if err != nil {
		writeServiceError(w, err, errorTitles{failed: "Failed to load stats"})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
