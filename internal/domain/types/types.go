// Package types contains result types shared by the service, the HTTP API
// and the offline checker.
package types

import (
	"github.com/okian/registrar/internal/domain/grading"
	"github.com/okian/registrar/internal/domain/schedule"
)

// ConflictReport is the outcome of checking a basket of candidate sections.
// Internal lists clashes among the candidates; AgainstCommitted lists
// clashes between a candidate and an already registered section.
type ConflictReport struct {
	Internal         []schedule.ConflictPair `json:"internal"`
	AgainstCommitted []schedule.ConflictPair `json:"against_committed"`
}

// Total is the number of conflicting pairs in both scopes.
func (r ConflictReport) Total() int {
	return len(r.Internal) + len(r.AgainstCommitted)
}

// Clean reports whether the basket can be registered as is.
func (r ConflictReport) Clean() bool {
	return r.Total() == 0
}

// StudentRecords is one student's transcript in a batch request.
type StudentRecords struct {
	StudentID string                `json:"student_id" validate:"required"`
	Records   []grading.GradeRecord `json:"records"`
}

// StudentSummary is the per-term summary of one student in a batch.
// Error is set instead of Terms when the job failed.
type StudentSummary struct {
	StudentID string                `json:"student_id"`
	Terms     []grading.TermSummary `json:"terms"`
	Error     string                `json:"error,omitempty"`
}

// Final returns the last term summary, whose cumulative fields are the
// student's overall standing.
func (s StudentSummary) Final() (grading.TermSummary, bool) {
	if len(s.Terms) == 0 {
		return grading.TermSummary{}, false
	}
	return s.Terms[len(s.Terms)-1], true
}
