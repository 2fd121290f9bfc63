package taxonomy

import "strings"

// Mode is the user-selected strictness level.
type Mode string

const (
	// ModeOff bypasses analysis entirely; every image is allowed.
	ModeOff Mode = "off"

	// ModeLight checks for payment cards only.
	ModeLight Mode = "light"

	// ModeDeep checks every category the active backend can report.
	ModeDeep Mode = "deep"
)

// DefaultMode is used whenever a persisted mode is missing or unreadable.
const DefaultMode = ModeLight

// ParseMode converts a persisted preference value into a Mode.
// Matching is case-insensitive and ignores surrounding whitespace.
// Anything unrecognized yields DefaultMode; ParseMode never fails.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOff:
		return ModeOff
	case ModeLight:
		return ModeLight
	case ModeDeep:
		return ModeDeep
	default:
		return DefaultMode
	}
}

// Valid reports whether m is one of the three known modes.
func (m Mode) Valid() bool {
	return m == ModeOff || m == ModeLight || m == ModeDeep
}

// Enabled reports whether m performs any analysis.
func (m Mode) Enabled() bool {
	return m != ModeOff
}

func (m Mode) String() string {
	return string(m)
}
