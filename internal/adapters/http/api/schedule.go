package api

import (
	"net/http"
)

// ScheduleHandler handles schedule parsing and conflict requests.
type ScheduleHandler struct {
	deps ScheduleDependencies
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(deps ScheduleDependencies) *ScheduleHandler {
	return &ScheduleHandler{deps: deps}
}

// HandleParse handles POST /schedule/parse requests.
func (h *ScheduleHandler) HandleParse(w http.ResponseWriter, r *http.Request) {
	const op = "api.schedule_parse"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req parseRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, parseResponse{Blocks: h.deps.ParseSchedule(r.Context(), req.Text)})
}

// HandleConflicts handles POST /schedule/conflicts requests.
func (h *ScheduleHandler) HandleConflicts(w http.ResponseWriter, r *http.Request) {
	const op = "api.schedule_conflicts"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req conflictsRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	report := h.deps.CheckConflicts(r.Context(), toScheduleItems(req.Candidates), toScheduleItems(req.Committed))
	writeJSON(w, http.StatusOK, report)
}
