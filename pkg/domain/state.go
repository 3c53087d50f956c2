package domain

import "slices"

// NavigationState is the serializable state of one palette session.
// It holds ids only; nodes are always resolved against the live tree.
type NavigationState struct {
	SessionID     string   `json:"session_id,omitempty"`
	CurrentRootID string   `json:"current_root_id,omitempty"`
	ScopeStack    []string `json:"scope_stack,omitempty"`
	ActiveIndex   int      `json:"active_index"`
	Query         string   `json:"query,omitempty"`
	Generation    uint64   `json:"generation"`
	Open          bool     `json:"open"`
}

// NewNavigationState returns a closed session positioned at the root.
func NewNavigationState(sessionID string) *NavigationState {
	return &NavigationState{
		SessionID:   sessionID,
		ActiveIndex: -1,
	}
}

// Scope returns the search scope of the current root.
func (s *NavigationState) Scope() Scope {
	return Within(s.CurrentRootID)
}

// Clone returns a deep copy.
func (s *NavigationState) Clone() *NavigationState {
	if s == nil {
		return nil
	}
	c := *s
	c.ScopeStack = slices.Clone(s.ScopeStack)
	return &c
}
