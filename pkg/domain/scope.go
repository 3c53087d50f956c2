package domain

// Scope selects the part of the tree eligible for search.
// The zero value is the root scope.
type Scope struct {
	ParentID string `json:"parent_id,omitempty"`
}

// RootScope returns the whole-tree scope.
func RootScope() Scope { return Scope{} }

// Within scopes search to the direct children of id.
func Within(id string) Scope { return Scope{ParentID: id} }

// IsRoot reports whether s is the root scope.
func (s Scope) IsRoot() bool { return s.ParentID == "" }

func (s Scope) String() string {
	if s.IsRoot() {
		return "root"
	}
	return s.ParentID
}
