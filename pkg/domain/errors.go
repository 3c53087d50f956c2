package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicateActionID is returned when registering an id that already exists.
var ErrDuplicateActionID = errors.New("duplicate action id")

// ErrUnknownParent is returned when a parent id does not reference an existing node.
var ErrUnknownParent = errors.New("unknown parent")

// ErrActionNotFound is returned when an id is absent from the tree.
var ErrActionNotFound = errors.New("action not found")

// ErrInvalidShortcut is returned for shortcuts with empty or unparseable tokens.
var ErrInvalidShortcut = errors.New("invalid shortcut")

// ErrDrillIntoLeaf marks an attempt to drill into a childless node.
// The controller treats it as a silent no-op; it is only surfaced in events and logs.
var ErrDrillIntoLeaf = errors.New("cannot drill into leaf action")

// ErrCycle is returned when a mutation would make a node its own ancestor.
var ErrCycle = errors.New("action hierarchy cycle")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrHandlerNotFound is returned when a spec references an unregistered perform handler.
var ErrHandlerNotFound = errors.New("perform handler not found")

// ActionError records a failed tree operation and the action it targeted.
type ActionError struct {
	Op  string
	ID  string
	Err error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.ID, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// ErrInvalidAction is returned for nodes that cannot be registered, e.g. an empty id.
var ErrInvalidAction = errors.New("invalid action")
