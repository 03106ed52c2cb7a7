// Package schedule parses weekly class schedules and detects overlapping
// time blocks between course sections.
//
// Everything in this package is pure: no I/O, no shared mutable state.
// Malformed input degrades to "no constraints" instead of failing.
package schedule

import "strings"

// Day is a normalized weekday. Known synonyms map to one of the constants
// below; unknown tokens are kept lower-cased so identical unknowns still match.
type Day string

// Canonical weekdays.
const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// thaiDayPrefix is stripped before lookup ("วันจันทร์" -> "จันทร์").
const thaiDayPrefix = "วัน"

var daySynonyms = map[string]Day{ //nolint:gochecknoglobals // fixed lookup table
	"mon": Monday, "monday": Monday, "จันทร์": Monday, "จ": Monday, "จ.": Monday,
	"tue": Tuesday, "tues": Tuesday, "tuesday": Tuesday, "อังคาร": Tuesday, "อ": Tuesday, "อ.": Tuesday,
	"wed": Wednesday, "weds": Wednesday, "wednesday": Wednesday, "พุธ": Wednesday, "พ": Wednesday, "พ.": Wednesday,
	"thu": Thursday, "thur": Thursday, "thurs": Thursday, "thursday": Thursday,
	"พฤหัส": Thursday, "พฤหัสบดี": Thursday, "พฤ": Thursday, "พฤ.": Thursday,
	"fri": Friday, "friday": Friday, "ศุกร์": Friday, "ศ": Friday, "ศ.": Friday,
	"sat": Saturday, "saturday": Saturday, "เสาร์": Saturday, "ส": Saturday, "ส.": Saturday,
	"sun": Sunday, "sunday": Sunday, "อาทิตย์": Sunday, "อา": Sunday, "อา.": Sunday,
}

// NormalizeDay maps a raw day token to its canonical Day.
func NormalizeDay(token string) Day {
	t := strings.ToLower(strings.TrimSpace(token))
	if d, ok := daySynonyms[t]; ok {
		return d
	}
	if trimmed := strings.TrimPrefix(t, thaiDayPrefix); trimmed != t {
		if d, ok := daySynonyms[trimmed]; ok {
			return d
		}
	}
	return Day(t)
}

// Known reports whether d is one of the seven canonical weekdays.
func (d Day) Known() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}
