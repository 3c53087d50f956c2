package domain

// ActionSpec is the declarative form of an action, as read from definition files.
// Perform names a handler in the registry; a spec without one becomes a Group.
type ActionSpec struct {
	ID       string         `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Name     string         `json:"name" yaml:"name" mapstructure:"name"`
	Keywords string         `json:"keywords,omitempty" yaml:"keywords,omitempty" mapstructure:"keywords"`
	Section  string         `json:"section,omitempty" yaml:"section,omitempty" mapstructure:"section"`
	Subtitle string         `json:"subtitle,omitempty" yaml:"subtitle,omitempty" mapstructure:"subtitle"`
	Shortcut []string       `json:"shortcut,omitempty" yaml:"shortcut,omitempty" mapstructure:"shortcut"`
	Parent   string         `json:"parent,omitempty" yaml:"parent,omitempty" mapstructure:"parent"`
	Order    *int           `json:"order,omitempty" yaml:"order,omitempty" mapstructure:"order"`
	Perform  string         `json:"perform,omitempty" yaml:"perform,omitempty" mapstructure:"perform"`
	Args     map[string]any `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
}

// Node converts the spec into an ActionNode without a Perform.
// Callers resolve the handler name and attach the Perform themselves.
func (s ActionSpec) Node() ActionNode {
	n := ActionNode{
		ID:       s.ID,
		Name:     s.Name,
		Keywords: s.Keywords,
		Section:  s.Section,
		Subtitle: s.Subtitle,
		Shortcut: append([]string(nil), s.Shortcut...),
		ParentID: s.Parent,
	}
	if s.Order != nil {
		o := *s.Order
		n.Order = &o
	}
	return n
}

// SpecOf is the inverse of ActionSpec.Node, used when exporting a tree.
func SpecOf(n ActionNode) ActionSpec {
	s := ActionSpec{
		ID:       n.ID,
		Name:     n.Name,
		Keywords: n.Keywords,
		Section:  n.Section,
		Subtitle: n.Subtitle,
		Shortcut: append([]string(nil), n.Shortcut...),
		Parent:   n.ParentID,
	}
	if n.Order != nil {
		o := *n.Order
		s.Order = &o
	}
	return s
}
