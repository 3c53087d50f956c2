package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventVisibleChanged   EventType = "visible_changed"
	EventClose            EventType = "close"
	EventSelect           EventType = "select"
	EventPerformError     EventType = "perform_error"
	EventShortcutMatch    EventType = "shortcut_match"
	EventShortcutConflict EventType = "shortcut_conflict"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// NewEventBase stamps an event of type t.
func NewEventBase(t EventType, sessionID string) EventBase {
	return EventBase{Timestamp: time.Now(), Type: t, SessionID: sessionID}
}

// VisibleEvent is emitted whenever the visible result list is recomputed.
type VisibleEvent struct {
	EventBase
	ScopeID     string   `json:"scope_id,omitempty"`
	Query       string   `json:"query,omitempty"`
	Results     []Result `json:"results"`
	ActiveIndex int      `json:"active_index"`
	Generation  uint64   `json:"generation"`
}

// CloseReason explains why the palette closed.
type CloseReason string

const (
	CloseBack      CloseReason = "back"
	ClosePerformed CloseReason = "performed"
	CloseRequested CloseReason = "requested"
)

// CloseEvent is emitted when the palette closes.
type CloseEvent struct {
	EventBase
	Reason CloseReason `json:"reason"`
}

// SelectEvent is emitted before a leaf action is performed.
type SelectEvent struct {
	EventBase
	ActionID string `json:"action_id"`
	Name     string `json:"name"`
	// Source is "commit" or "shortcut".
	Source string `json:"source"`
}

// PerformErrorEvent reports a perform callback that failed or panicked.
type PerformErrorEvent struct {
	EventBase
	ActionID string `json:"action_id"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
	Panicked bool   `json:"panicked,omitempty"`
}

// ShortcutEvent is emitted when a key sequence resolves to an action.
type ShortcutEvent struct {
	EventBase
	ActionID string   `json:"action_id"`
	Keys     []string `json:"keys"`
}

// ConflictKind distinguishes the two kinds of shortcut conflict.
type ConflictKind string

const (
	// ConflictDuplicate means two actions bind the same sequence; the later one wins.
	ConflictDuplicate ConflictKind = "duplicate"
	// ConflictShadowed means a shorter exact binding makes a longer one unreachable.
	ConflictShadowed ConflictKind = "shadowed"
)

// ShortcutConflict describes a binding that can no longer be triggered.
type ShortcutConflict struct {
	Kind     ConflictKind `json:"kind"`
	Keys     []string     `json:"keys"`
	Winner   string       `json:"winner"`
	Shadowed string       `json:"shadowed"`
}

// ConflictEvent wraps a ShortcutConflict for hooks.
type ConflictEvent struct {
	EventBase
	ShortcutConflict
}

// LifecycleHooks defines callbacks for palette observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnVisibleListChanged func(context.Context, *VisibleEvent)
	OnClose              func(context.Context, *CloseEvent)
	OnSelect             func(context.Context, *SelectEvent)
	OnPerformError       func(context.Context, *PerformErrorEvent)
	OnShortcutMatch      func(context.Context, *ShortcutEvent)
	OnShortcutConflict   func(context.Context, *ConflictEvent)
}

// Merge returns hooks that call h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnVisibleListChanged: chain(h.OnVisibleListChanged, other.OnVisibleListChanged),
		OnClose:              chain(h.OnClose, other.OnClose),
		OnSelect:             chain(h.OnSelect, other.OnSelect),
		OnPerformError:       chain(h.OnPerformError, other.OnPerformError),
		OnShortcutMatch:      chain(h.OnShortcutMatch, other.OnShortcutMatch),
		OnShortcutConflict:   chain(h.OnShortcutConflict, other.OnShortcutConflict),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
