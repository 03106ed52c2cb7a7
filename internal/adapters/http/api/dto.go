package api

import (
	"github.com/okian/registrar/internal/domain/grading"
	"github.com/okian/registrar/internal/domain/schedule"
	"github.com/okian/registrar/internal/domain/types"
)

// scheduleItemRequest is one section in a basket or committed set.
type scheduleItemRequest struct {
	Identity string `json:"identity" validate:"max=256"`
	Schedule string `json:"schedule" validate:"max=4096"`
}

func toScheduleItems(in []scheduleItemRequest) []schedule.ScheduleItem {
	out := make([]schedule.ScheduleItem, len(in))
	for i, it := range in {
		out[i] = schedule.ScheduleItem{Identity: it.Identity, Text: it.Schedule}
	}
	return out
}

// gradeRecordRequest is the flat wire shape of a grade record.
type gradeRecordRequest struct {
	SubjectID    string  `json:"subject_id" validate:"max=64"`
	SubjectName  string  `json:"subject_name" validate:"max=256"`
	Credit       float64 `json:"credit" validate:"gte=0,lte=100"`
	Grade        string  `json:"grade" validate:"max=8"`
	AcademicYear string  `json:"academic_year" validate:"max=16"`
	Term         string  `json:"term" validate:"max=16"`
}

func toGradeRecords(in []gradeRecordRequest) []grading.GradeRecord {
	out := make([]grading.GradeRecord, len(in))
	for i, r := range in {
		out[i] = grading.GradeRecord{
			SubjectID:   r.SubjectID,
			SubjectName: r.SubjectName,
			Credit:      r.Credit,
			LetterGrade: r.Grade,
			Term:        grading.TermKey{AcademicYear: r.AcademicYear, Term: r.Term},
		}
	}
	return out
}

type parseRequest struct {
	Text string `json:"text" validate:"max=65536"`
}

type parseResponse struct {
	Blocks []schedule.TimeBlock `json:"blocks"`
}

type conflictsRequest struct {
	Candidates []scheduleItemRequest `json:"candidates" validate:"max=1000,dive"`
	Committed  []scheduleItemRequest `json:"committed" validate:"max=1000,dive"`
}

type basketRequest struct {
	Candidates []scheduleItemRequest `json:"candidates" validate:"max=1000,dive"`
}

type summaryRequest struct {
	Records []gradeRecordRequest `json:"records" validate:"max=2000,dive"`
}

type summaryResponse struct {
	Terms []grading.TermSummary `json:"terms"`
}

type studentRequest struct {
	StudentID string               `json:"student_id" validate:"required,max=64"`
	Records   []gradeRecordRequest `json:"records" validate:"max=2000,dive"`
}

type batchRequest struct {
	Students []studentRequest `json:"students" validate:"required,dive"`
}

func (b batchRequest) toStudentRecords() []types.StudentRecords {
	out := make([]types.StudentRecords, len(b.Students))
	for i, st := range b.Students {
		out[i] = types.StudentRecords{StudentID: st.StudentID, Records: toGradeRecords(st.Records)}
	}
	return out
}

type batchResponse struct {
	Students []types.StudentSummary `json:"students"`
}

type transcriptResponse struct {
	StudentID string                `json:"student_id"`
	Terms     []grading.TermSummary `json:"terms"`
}

type basketResponse struct {
	StudentID string `json:"student_id"`
	types.ConflictReport
}
