package upstream

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/registrar/internal/domain/grading"
	"github.com/okian/registrar/internal/domain/schedule"
)

// Alias keys seen across backend versions, in lookup order. A bare "id" is
// never read as a subject id; backends use it for the row key.
var (
	subjectIDKeys   = []string{"subject_id", "SubjectID", "subjectId", "subject_code"}
	subjectNameKeys = []string{"subject_name", "SubjectName", "subjectName", "name"}
	sectionKeys     = []string{"section", "Section", "sec", "section_no"}
	scheduleKeys    = []string{"schedule", "Schedule", "time", "class_time", "study_time"}
	creditKeys      = []string{"credit", "credits", "Credit", "credit_hours"}
	gradeKeys       = []string{"grade", "Grade", "letter_grade", "LetterGrade"}
	termKeys        = []string{"term", "Term", "semester", "Semester"}
	yearKeys        = []string{"academic_year", "AcademicYear", "year", "Year"}
)

// NormalizeSection builds a ScheduleItem from one raw registration record.
// Identity is "<subject>-<section>" when a section is present.
func NormalizeSection(raw map[string]any) schedule.ScheduleItem {
	id := stringField(raw, subjectIDKeys)
	if sec := stringField(raw, sectionKeys); sec != "" {
		if id == "" {
			id = sec
		} else {
			id = id + "-" + sec
		}
	}
	return schedule.NewScheduleItem(id, stringField(raw, scheduleKeys))
}

// NormalizeGradeRecord builds a GradeRecord from one raw grade record.
// Missing or malformed fields become zero values; negative credit becomes 0.
func NormalizeGradeRecord(raw map[string]any) grading.GradeRecord {
	credit := floatField(raw, creditKeys)
	if credit < 0 || math.IsNaN(credit) || math.IsInf(credit, 0) {
		credit = 0
	}
	return grading.GradeRecord{
		SubjectID:   stringField(raw, subjectIDKeys),
		SubjectName: stringField(raw, subjectNameKeys),
		Credit:      credit,
		LetterGrade: strings.TrimSpace(stringField(raw, gradeKeys)),
		Term: grading.TermKey{
			AcademicYear: stringField(raw, yearKeys),
			Term:         stringField(raw, termKeys),
		},
	}
}

// NormalizeSections maps NormalizeSection over raws.
func NormalizeSections(raws []map[string]any) []schedule.ScheduleItem {
	out := make([]schedule.ScheduleItem, 0, len(raws))
	for _, r := range raws {
		out = append(out, NormalizeSection(r))
	}
	return out
}

// NormalizeGradeRecords maps NormalizeGradeRecord over raws.
func NormalizeGradeRecords(raws []map[string]any) []grading.GradeRecord {
	out := make([]grading.GradeRecord, 0, len(raws))
	for _, r := range raws {
		out = append(out, NormalizeGradeRecord(r))
	}
	return out
}

// DecodeRecords accepts either a bare JSON array of objects or an envelope
// of the form {"data": [...]}.
func DecodeRecords(body []byte) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var list []map[string]any
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return list, nil
	}
	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if envelope.Data == nil {
		return []map[string]any{}, nil
	}
	return envelope.Data, nil
}

func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(raw map[string]any, keys []string) string {
	v, ok := lookup(raw, keys)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func floatField(raw map[string]any, keys []string) float64 {
	v, ok := lookup(raw, keys)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
