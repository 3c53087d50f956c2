package domain

import "slices"

// ActionPatch carries the content fields to change on Update.
// Nil fields are left untouched. Identity and links are never patched.
type ActionPatch struct {
	Name     *string
	Keywords *string
	Section  *string
	Subtitle *string
	Shortcut *[]string
	Order    *int
	// ClearOrder drops an explicit Order, returning the node to registration order.
	ClearOrder bool
	Perform    Perform
}

// PatchFrom builds a patch that overwrites every content field with n's values.
// A nil Perform becomes Group, so re-registering without a callback drops the old one.
func PatchFrom(n ActionNode) ActionPatch {
	p := ActionPatch{
		Name:     &n.Name,
		Keywords: &n.Keywords,
		Section:  &n.Section,
		Subtitle: &n.Subtitle,
		Perform:  n.Perform,
	}
	if p.Perform == nil {
		p.Perform = Group{}
	}
	sc := slices.Clone(n.Shortcut)
	p.Shortcut = &sc
	if n.Order != nil {
		o := *n.Order
		p.Order = &o
	} else {
		p.ClearOrder = true
	}
	return p
}

// Apply merges the patch into n.
func (p ActionPatch) Apply(n *ActionNode) {
	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.Keywords != nil {
		n.Keywords = *p.Keywords
	}
	if p.Section != nil {
		n.Section = *p.Section
	}
	if p.Subtitle != nil {
		n.Subtitle = *p.Subtitle
	}
	if p.Shortcut != nil {
		n.Shortcut = slices.Clone(*p.Shortcut)
	}
	if p.ClearOrder {
		n.Order = nil
	}
	if p.Order != nil {
		o := *p.Order
		n.Order = &o
	}
	if p.Perform != nil {
		n.Perform = p.Perform
	}
}

// TouchesShortcut reports whether applying the patch may change bindings.
func (p ActionPatch) TouchesShortcut() bool {
	return p.Shortcut != nil
}
