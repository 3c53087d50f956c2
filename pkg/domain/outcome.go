package domain

import "fmt"

// OutcomeKind says what a commit or a key press did.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeDrilled
	OutcomePerformed
	OutcomeOpened
	OutcomeClosed
	OutcomeMoved
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDrilled:
		return "drilled"
	case OutcomePerformed:
		return "performed"
	case OutcomeOpened:
		return "opened"
	case OutcomeClosed:
		return "closed"
	case OutcomeMoved:
		return "moved"
	default:
		return "none"
	}
}

// MarshalText renders the kind by name in JSON payloads.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind rendered by MarshalText.
func (k *OutcomeKind) UnmarshalText(text []byte) error {
	for c := OutcomeNone; c <= OutcomeMoved; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome kind %q", text)
}

// Outcome reports the effect of a commit, a perform or a key press.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	ActionID string      `json:"action_id,omitempty"`
	// Err is a perform failure. It has already been reported through OnPerformError.
	Err error `json:"-"`
}
