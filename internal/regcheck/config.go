package regcheck

import "errors"

// Sentinel errors.
var (
	ErrNoInput   = errors.New("regcheck: at least one of -basket or -grades is required")
	ErrConflicts = errors.New("regcheck: schedule conflicts found")
)

// Config holds the input files for one check.
type Config struct {
	BasketFile    string // candidate sections, required for the conflict check
	CommittedFile string // already registered sections
	GradesFile    string // grade records for the GPA table
	Verbose       bool   // log every parsed block
}

// Validate reports whether the config names anything to check.
func (c *Config) Validate() error {
	if c.BasketFile == "" && c.GradesFile == "" {
		return ErrNoInput
	}
	return nil
}
