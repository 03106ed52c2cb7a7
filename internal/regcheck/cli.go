package regcheck

import (
	"io"
)

// ShowHelp prints usage information for the regcheck tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `regcheck
========

Checks a registration basket for time clashes and prints a per-term GPA
table, reading the same JSON the registration backend serves.

Usage:
  go run ./cmd/regcheck [options]

Options:
  -basket string
        JSON file with candidate sections
  -committed string
        JSON file with already registered sections
  -grades string
        JSON file with grade records
  -verbose
        Log every parsed time block
  -help
        Show this help message

Files hold either a JSON array of records or {"data": [...]}.

Exit status is 2 when conflicts are found.

Examples:
  go run ./cmd/regcheck -basket basket.json -committed registered.json
  go run ./cmd/regcheck -grades grades.json
`)
}
