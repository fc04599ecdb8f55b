package models

import "fmt"

// ViewMode is the two-valued perspective used to sign-interpret and
// filter transactions for display. It never alters stored amounts.
type ViewMode string

const (
	// TheyOweMe frames positive balances as money owed to the principal.
	TheyOweMe ViewMode = "they-owe-me"

	// IOweThem frames negative balances as money the principal owes.
	IOweThem ViewMode = "i-owe-them"
)

// ParseViewMode validates a raw string against the two known modes.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case TheyOweMe, IOweThem:
		return ViewMode(s), nil
	}
	return "", fmt.Errorf("unknown view mode: %q", s)
}

// Valid reports whether the mode is one of the two known values.
func (m ViewMode) Valid() bool {
	return m == TheyOweMe || m == IOweThem
}

// Sign returns the polarity a debt carries under this mode: +1 for
// they-owe-me, -1 for i-owe-them.
func (m ViewMode) Sign() float64 {
	if m == IOweThem {
		return -1
	}
	return 1
}
