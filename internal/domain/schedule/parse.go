package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

// Clock bounds.
const (
	minutesPerHour = 60
	hoursPerDay    = 24
	MinutesPerDay  = minutesPerHour * hoursPerDay
)

// TimeBlock is one contiguous weekly teaching interval, [StartMinute, EndMinute).
type TimeBlock struct {
	Day         Day    `json:"day"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Label       string `json:"label"`
}

// lineRE matches "<Day>: H:MM-H:MM"; the colon after the day is optional.
var lineRE = regexp.MustCompile(`^\s*([^\s:\d]+)\s*:?\s*(\d{1,2}:\d{2})\s*-\s*(\d{1,2}:\d{2})\s*$`)

var lineSplitter = strings.NewReplacer("\r\n", "\n", "\r", "\n", ",", "\n") //nolint:gochecknoglobals // immutable

// ParseScheduleText extracts time blocks from free-form schedule text.
// Lines are separated by newlines or commas. Lines that do not match the
// expected shape, and blocks whose end is not after their start, are skipped.
// Input order is kept and duplicates are not removed.
func ParseScheduleText(text string) []TimeBlock {
	blocks := []TimeBlock{}
	for _, line := range strings.Split(lineSplitter.Replace(text), "\n") {
		if b, ok := parseLine(line); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func parseLine(line string) (TimeBlock, bool) {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return TimeBlock{}, false
	}
	start, ok := ParseClock(m[2])
	if !ok {
		return TimeBlock{}, false
	}
	end, ok := ParseClock(m[3])
	if !ok || end <= start {
		return TimeBlock{}, false
	}
	return TimeBlock{
		Day:         NormalizeDay(m[1]),
		StartMinute: start,
		EndMinute:   end,
		Label:       strings.TrimSpace(line),
	}, true
}

// ParseClock converts "H:MM" or "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, bool) {
	h, m, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour >= hoursPerDay {
		return 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute >= minutesPerHour {
		return 0, false
	}
	return hour*minutesPerHour + minute, true
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minute int) string {
	h := minute / minutesPerHour
	m := minute % minutesPerHour
	return pad2(h) + ":" + pad2(m)
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

// String renders the block as "monday 09:00-10:30".
func (b TimeBlock) String() string {
	return string(b.Day) + " " + FormatClock(b.StartMinute) + "-" + FormatClock(b.EndMinute)
}
