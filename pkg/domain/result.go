package domain

// Crumb is one step of an ancestor path.
type Crumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Result is a single ranked search hit.
type Result struct {
	Node    ActionNode `json:"node"`
	Score   int        `json:"score"`
	Section string     `json:"section,omitempty"`
	// Path lists the ancestors of Node, root first.
	Path []Crumb `json:"path,omitempty"`
}

// ID is shorthand for r.Node.ID.
func (r Result) ID() string { return r.Node.ID }

// Breadcrumb joins the ancestor names and the node name with sep.
func (r Result) Breadcrumb(sep string) string {
	s := ""
	for _, c := range r.Path {
		s += c.Name + sep
	}
	return s + r.Node.Name
}
