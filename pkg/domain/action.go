package domain

import (
	"context"
	"slices"
)

// PerformFunc is the side-effecting callback invoked when an action is selected.
type PerformFunc func(ctx context.Context, node ActionNode) error

// Perform describes what happens when a node is committed.
// It is a closed set: Invoke or Group. A nil Perform behaves as Group.
type Perform interface {
	isPerform()
}

// Invoke runs a callback on selection.
type Invoke struct {
	Run PerformFunc
}

// Group marks a folder node that only groups its children.
type Group struct{}

func (Invoke) isPerform() {}
func (Group) isPerform()  {}

// Do wraps a plain callback into an Invoke perform.
func Do(fn func(ctx context.Context) error) Perform {
	return Invoke{Run: func(ctx context.Context, _ ActionNode) error {
		return fn(ctx)
	}}
}

// ActionNode is a single registered command or command group.
// The ID is its identity for its whole lifetime; every other field is content.
type ActionNode struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Keywords string   `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Section  string   `json:"section,omitempty" yaml:"section,omitempty"`
	Subtitle string   `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Shortcut []string `json:"shortcut,omitempty" yaml:"shortcut,omitempty"`

	// ParentID is a lookup reference, not ownership. Empty means root.
	ParentID string `json:"parent_id,omitempty" yaml:"parent,omitempty"`

	// ChildrenIDs is owned by the tree. Values set by callers are ignored on register.
	ChildrenIDs []string `json:"children_ids,omitempty" yaml:"-"`

	Perform Perform `json:"-" yaml:"-"`

	// Order overrides registration order among siblings when set.
	Order *int `json:"order,omitempty" yaml:"order,omitempty"`
}

// HasChildren reports whether the node currently groups other nodes.
func (n ActionNode) HasChildren() bool {
	return len(n.ChildrenIDs) > 0
}

// IsRoot reports whether the node lives at the tree root.
func (n ActionNode) IsRoot() bool {
	return n.ParentID == ""
}

// Clone returns a copy that shares no slices with the receiver.
func (n ActionNode) Clone() ActionNode {
	c := n
	c.Shortcut = slices.Clone(n.Shortcut)
	c.ChildrenIDs = slices.Clone(n.ChildrenIDs)
	if n.Order != nil {
		o := *n.Order
		c.Order = &o
	}
	return c
}

// Binding is a shortcut sequence owned by an action.
type Binding struct {
	ActionID string
	Keys     []string
}
