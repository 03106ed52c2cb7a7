package api

import (
	"net/http"

	"github.com/okian/registrar/pkg/requestid"
)

// StatsProvider reports the registrar's runtime settings and counters.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats writes a snapshot of the service stats. The snapshot is live,
// so it is never cached, and it names the request it was taken for.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := h.statsProvider.GetStats()
	snapshot := make(map[string]interface{}, len(stats)+1)
	for k, v := range stats {
		snapshot[k] = v
	}
	snapshot["requestId"] = requestid.FromContext(r.Context())

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, snapshot)
}
