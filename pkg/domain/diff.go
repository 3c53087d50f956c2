package domain

import "slices"

// StateDiff represents the changes between two navigation states.
// It is serialized to JSON for partial updates on streaming clients.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentRootID *string `json:"current_root_id,omitempty"`
	ActiveIndex   *int    `json:"active_index,omitempty"`
	Query         *string `json:"query,omitempty"`
	Open          *bool   `json:"open,omitempty"`

	// ScopeStack is sent whole; stacks are short and rarely change.
	ScopeStack []string `json:"scope_stack,omitzero"`

	Generation *uint64 `json:"generation,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *NavigationState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState == nil || oldState.CurrentRootID != newState.CurrentRootID {
		diff.CurrentRootID = &newState.CurrentRootID
	}
	if oldState == nil || oldState.ActiveIndex != newState.ActiveIndex {
		diff.ActiveIndex = &newState.ActiveIndex
	}
	if oldState == nil || oldState.Query != newState.Query {
		diff.Query = &newState.Query
	}
	if oldState == nil || oldState.Open != newState.Open {
		diff.Open = &newState.Open
	}
	if oldState == nil || oldState.Generation != newState.Generation {
		diff.Generation = &newState.Generation
	}
	if oldState == nil {
		if len(newState.ScopeStack) > 0 {
			diff.ScopeStack = slices.Clone(newState.ScopeStack)
		}
	} else if !slices.Equal(oldState.ScopeStack, newState.ScopeStack) {
		// An emptied stack is sent as a non-nil empty slice.
		diff.ScopeStack = append([]string{}, newState.ScopeStack...)
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentRootID == nil &&
		d.ActiveIndex == nil &&
		d.Query == nil &&
		d.Open == nil &&
		d.Generation == nil &&
		d.ScopeStack == nil
}
