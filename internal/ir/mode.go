package ir

import "fmt"

// Mode is the base selection mode. Exactly one mode is active at a time.
type Mode string

const (
	// ModeNone selects nothing by default and carries no overrides.
	ModeNone Mode = "NONE"

	// ModeExplicit selects nothing by default; its selection lives entirely
	// in the included overrides.
	ModeExplicit Mode = "EXPLICIT"

	// ModeRange selects the first N records in collection order by default.
	ModeRange Mode = "RANGE"

	// ModeAll selects every record by default.
	ModeAll Mode = "ALL"
)

// Modes lists every valid mode in declaration order.
var Modes = []Mode{ModeNone, ModeExplicit, ModeRange, ModeAll}

// ValidateMode checks that mode is one of NONE, EXPLICIT, RANGE, ALL.
func ValidateMode(mode string) error {
	switch Mode(mode) {
	case ModeNone, ModeExplicit, ModeRange, ModeAll:
		return nil
	default:
		return fmt.Errorf("invalid selection mode %q: must be NONE, EXPLICIT, RANGE, or ALL", mode)
	}
}
