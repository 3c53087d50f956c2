package dsl

import (
	"context"
	"maps"

	"github.com/aretw0/palette/pkg/domain"
)

// ActionBuilder provides a fluent API for configuring an action.
type ActionBuilder struct {
	node    domain.ActionNode
	handler string
	args    map[string]any
	builder *Builder
}

// Name sets the display name. It defaults to the id.
func (a *ActionBuilder) Name(name string) *ActionBuilder {
	a.node.Name = name
	return a
}

// Keywords sets extra search terms.
func (a *ActionBuilder) Keywords(kw string) *ActionBuilder {
	a.node.Keywords = kw
	return a
}

// Section sets the display group label.
func (a *ActionBuilder) Section(s string) *ActionBuilder {
	a.node.Section = s
	return a
}

// Subtitle sets the secondary text.
func (a *ActionBuilder) Subtitle(s string) *ActionBuilder {
	a.node.Subtitle = s
	return a
}

// Shortcut binds a key sequence written space separated, e.g. "g d" or "ctrl+shift+p".
func (a *ActionBuilder) Shortcut(seq string) *ActionBuilder {
	a.node.Shortcut = domain.SplitShortcut(seq)
	return a
}

// Order pins the position among siblings.
func (a *ActionBuilder) Order(n int) *ActionBuilder {
	a.node.Order = &n
	return a
}

// Under moves the action beneath parent.
func (a *ActionBuilder) Under(parent string) *ActionBuilder {
	a.node.ParentID = parent
	return a
}

// Child adds (or returns) the action id nested under this one.
func (a *ActionBuilder) Child(id string) *ActionBuilder {
	return a.builder.Add(id).Under(a.node.ID)
}

// Do attaches a Go callback run when the action is performed.
func (a *ActionBuilder) Do(fn func(ctx context.Context) error) *ActionBuilder {
	a.node.Perform = domain.Do(fn)
	a.handler = ""
	return a
}

// Perform names a registry handler and its arguments. The engine resolves it on Load.
func (a *ActionBuilder) Perform(handler string, args map[string]any) *ActionBuilder {
	a.handler = handler
	a.args = maps.Clone(args)
	a.node.Perform = nil
	return a
}

// Build returns the underlying domain.ActionNode.
// This is primarily used by the Builder, but exposed for advanced usage.
func (a *ActionBuilder) Build() domain.ActionNode {
	return a.node.Clone()
}

// Spec returns the declarative form of the action.
func (a *ActionBuilder) Spec() domain.ActionSpec {
	s := domain.SpecOf(a.node)
	s.Perform = a.handler
	s.Args = maps.Clone(a.args)
	return s
}
