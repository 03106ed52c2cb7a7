// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/registrar/internal/adapters/upstream"
	service "github.com/okian/registrar/internal/app"
	"github.com/okian/registrar/internal/domain/grading"
	"github.com/okian/registrar/internal/domain/schedule"
	"github.com/okian/registrar/internal/domain/types"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 4 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScheduleDependencies
	GradesDependencies
	StudentDependencies
}

// ScheduleDependencies covers schedule parsing and conflict checks.
type ScheduleDependencies interface {
	ParseSchedule(ctx context.Context, text string) []schedule.TimeBlock
	CheckConflicts(ctx context.Context, candidates, committed []schedule.ScheduleItem) types.ConflictReport
}

// GradesDependencies covers GPA summaries.
type GradesDependencies interface {
	SummarizeRecords(ctx context.Context, records []grading.GradeRecord) []grading.TermSummary
	SummarizeBatch(ctx context.Context, students []types.StudentRecords) ([]types.StudentSummary, error)
}

// StudentDependencies covers operations that read the upstream backend.
type StudentDependencies interface {
	StudentTranscript(ctx context.Context, studentID string) ([]grading.TermSummary, error)
	StudentBasketCheck(ctx context.Context, studentID string, candidates []schedule.ScheduleItem) (types.ConflictReport, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	scheduleHandler *ScheduleHandler
	gradesHandler   *GradesHandler
	studentHandler  *StudentHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		scheduleHandler: NewScheduleHandler(deps),
		gradesHandler:   NewGradesHandler(deps),
		studentHandler:  NewStudentHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint)))
	}
	route("/healthz", "healthz", s.healthHandler.HandleHealth)
	route("/stats", "stats", s.statsHandler.HandleStats)
	route("/schedule/parse", "schedule_parse", s.scheduleHandler.HandleParse)
	route("/schedule/conflicts", "schedule_conflicts", s.scheduleHandler.HandleConflicts)
	route("/grades/summary", "grades_summary", s.gradesHandler.HandleSummary)
	route("/grades/batch", "grades_batch", s.gradesHandler.HandleBatch)
	route("/students/{id}/transcript", "student_transcript", s.studentHandler.HandleTranscript)
	route("/students/{id}/basket/check", "student_basket_check", s.studentHandler.HandleBasketCheck)
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var fe *fieldErrors
	if errors.As(err, &fe) {
		resp.Fields = fe.fields
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps service and upstream failures onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrBatchTooLarge),
		errors.Is(err, service.ErrEmptyStudentID):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, upstream.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", err)
	case errors.Is(err, service.ErrNoUpstream):
		writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", err)
	case errors.Is(err, service.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	if err := validateStruct(dst); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
