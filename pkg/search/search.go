// Package search ranks palette actions against a text query.
//
// Search is a pure function of the tree contents, the query and the scope: it keeps no
// state between calls, so callers may run it from any goroutine.
package search

import (
	"iter"
	"slices"
	"strings"

	"github.com/aretw0/palette/pkg/domain"
)

// Source is the read side of the action tree consumed by search.
type Source interface {
	Get(id string) (domain.ActionNode, bool)
	Roots() []domain.ActionNode
	Children(id string) ([]domain.ActionNode, error)
	Ancestors(id string) ([]domain.ActionNode, error)
	// Nodes returns every node in registration order.
	Nodes() []domain.ActionNode
	All() iter.Seq[domain.ActionNode]
}

type options struct {
	limit int
}

// Option configures a single Search call.
type Option func(*options)

// WithLimit caps the number of results. Zero or negative means no cap.
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

// Normalize lower-cases and trims a query the way Search does.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Search returns the nodes in scope that match query, best first.
//
// With an empty query the root scope yields the root nodes and a Within scope yields
// the scope's children, both in display order and unfiltered. A non-empty query in the
// root scope searches the whole tree.
func Search(src Source, query string, scope domain.Scope, opts ...Option) ([]domain.Result, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	q := Normalize(query)
	candidates, err := candidatesFor(src, q, scope)
	if err != nil {
		return nil, err
	}

	results := make([]domain.Result, 0, len(candidates))
	for _, n := range candidates {
		score := 0
		if q != "" {
			s, ok := scoreNode(n.Name, n.Keywords, n.Section, q)
			if !ok {
				continue
			}
			score = s
		}
		results = append(results, domain.Result{Node: n, Score: score, Section: n.Section})
	}

	// Stable: equal scores keep candidate order.
	slices.SortStableFunc(results, func(a, b domain.Result) int {
		return b.Score - a.Score
	})

	if o.limit > 0 && len(results) > o.limit {
		results = results[:o.limit]
	}

	for i := range results {
		results[i].Path = pathOf(src, results[i].Node.ID)
	}
	return results, nil
}

func candidatesFor(src Source, q string, scope domain.Scope) ([]domain.ActionNode, error) {
	if !scope.IsRoot() {
		return src.Children(scope.ParentID)
	}
	if q == "" {
		return src.Roots(), nil
	}
	return src.Nodes(), nil
}

func pathOf(src Source, id string) []domain.Crumb {
	chain, err := src.Ancestors(id)
	if err != nil || len(chain) == 0 {
		return nil
	}
	path := make([]domain.Crumb, len(chain))
	for i, n := range chain {
		path[i] = domain.Crumb{ID: n.ID, Name: n.Name}
	}
	return path
}
