package api

import (
	"net/http"
	"strings"
)

// StudentHandler handles requests that read a student's upstream records.
type StudentHandler struct {
	deps StudentDependencies
}

// NewStudentHandler creates a new student handler.
func NewStudentHandler(deps StudentDependencies) *StudentHandler {
	return &StudentHandler{deps: deps}
}

// HandleTranscript handles GET /students/{id}/transcript requests.
func (h *StudentHandler) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	const op = "api.student_transcript"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	terms, err := h.deps.StudentTranscript(r.Context(), id)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{StudentID: id, Terms: terms})
}

// HandleBasketCheck handles POST /students/{id}/basket/check requests.
func (h *StudentHandler) HandleBasketCheck(w http.ResponseWriter, r *http.Request) {
	const op = "api.student_basket_check"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	var req basketRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	report, err := h.deps.StudentBasketCheck(r.Context(), id, toScheduleItems(req.Candidates))
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, basketResponse{StudentID: id, ConflictReport: report})
}
