// Package grading turns per-term grade records into term and cumulative
// credit and GPA summaries.
package grading

import (
	"math"
	"strings"
)

// TermKey identifies one academic term.
type TermKey struct {
	AcademicYear string `json:"academic_year"`
	Term         string `json:"term"`
}

// String renders the key as "year-term".
func (k TermKey) String() string {
	return k.AcademicYear + "-" + k.Term
}

// GradeRecord is one subject's result in one term.
type GradeRecord struct {
	SubjectID   string  `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	Credit      float64 `json:"credit"`
	LetterGrade string  `json:"grade"`
	Term        TermKey `json:"term"`
}

// TermGroup is the set of records belonging to one term.
type TermGroup struct {
	Term    TermKey
	Records []GradeRecord
}

// TermSummary carries the per-term and running totals for one term.
type TermSummary struct {
	Term                  TermKey `json:"term"`
	TermCredits           float64 `json:"term_credits"`
	TermGradePoints       float64 `json:"term_grade_points"`
	TermGPA               float64 `json:"term_gpa"`
	CumulativeCredits     float64 `json:"cumulative_credits"`
	CumulativeGradePoints float64 `json:"cumulative_grade_points"`
	CumulativeGPA         float64 `json:"cumulative_gpa"`
}

var gradePoints = map[string]float64{ //nolint:gochecknoglobals // fixed lookup table
	"A":  4.0,
	"B+": 3.5,
	"B":  3.0,
	"C+": 2.5,
	"C":  2.0,
	"D+": 1.5,
	"D":  1.0,
	"F":  0.0,
}

// GradePoint returns the points for a letter grade; unknown grades are worth 0.
func GradePoint(letter string) float64 {
	return gradePoints[strings.ToUpper(strings.TrimSpace(letter))]
}

// KnownGrade reports whether letter is in the grade table.
func KnownGrade(letter string) bool {
	_, ok := gradePoints[strings.ToUpper(strings.TrimSpace(letter))]
	return ok
}

// Summarize walks the groups in the given order and accumulates credits and
// grade points. Groups are not re-sorted. A term or running total without
// credits has a GPA of 0.
func Summarize(groups []TermGroup) []TermSummary {
	out := make([]TermSummary, 0, len(groups))
	var cumCredits, cumPoints float64
	for _, g := range groups {
		var credits, points float64
		for _, r := range g.Records {
			credits += r.Credit
			points += GradePoint(r.LetterGrade) * r.Credit
		}
		cumCredits += credits
		cumPoints += points
		out = append(out, TermSummary{
			Term:                  g.Term,
			TermCredits:           credits,
			TermGradePoints:       points,
			TermGPA:               gpa(points, credits),
			CumulativeCredits:     cumCredits,
			CumulativeGradePoints: cumPoints,
			CumulativeGPA:         gpa(cumPoints, cumCredits),
		})
	}
	return out
}

func gpa(points, credits float64) float64 {
	if credits == 0 {
		return 0
	}
	return Round2(points / credits)
}

// Round2 rounds half-up to two decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
