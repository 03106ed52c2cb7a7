package api

import (
	"net/http"
)

// GradesHandler handles GPA summary requests.
type GradesHandler struct {
	deps GradesDependencies
}

// NewGradesHandler creates a new grades handler.
func NewGradesHandler(deps GradesDependencies) *GradesHandler {
	return &GradesHandler{deps: deps}
}

// HandleSummary handles POST /grades/summary requests.
func (h *GradesHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.grades_summary"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req summaryRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	terms := h.deps.SummarizeRecords(r.Context(), toGradeRecords(req.Records))
	writeJSON(w, http.StatusOK, summaryResponse{Terms: terms})
}

// HandleBatch handles POST /grades/batch requests.
func (h *GradesHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.grades_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req batchRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	out, err := h.deps.SummarizeBatch(r.Context(), req.toStudentRecords())
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Students: out})
}
