package search

import "github.com/aretw0/palette/pkg/domain"

// Group is a band of results sharing a section label.
type Group struct {
	Section string          `json:"section"`
	Results []domain.Result `json:"results"`
}

// GroupBySection bands results by section in order of first appearance.
// Results keep their relative order inside each band.
func GroupBySection(results []domain.Result) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, r := range results {
		i, ok := index[r.Section]
		if !ok {
			i = len(groups)
			index[r.Section] = i
			groups = append(groups, Group{Section: r.Section})
		}
		groups[i].Results = append(groups[i].Results, r)
	}
	return groups
}

// Flatten returns the results of groups in band order. The active index of a
// grouped list refers to positions in this order.
func Flatten(groups []Group) []domain.Result {
	var out []domain.Result
	for _, g := range groups {
		out = append(out, g.Results...)
	}
	return out
}
