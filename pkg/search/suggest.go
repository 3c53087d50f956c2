package search

import (
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns up to n action names closest to query by edit distance.
// Names further than half the query length (minimum 2) are not suggested.
func Suggest(src Source, query string, n int) []string {
	q := Normalize(query)
	if q == "" || n <= 0 {
		return nil
	}
	maxDist := max(len([]rune(q))/2, 2)

	type candidate struct {
		name string
		dist int
	}
	var cands []candidate
	seen := make(map[string]struct{})
	for _, node := range src.Nodes() {
		name := strings.TrimSpace(node.Name)
		key := strings.ToLower(name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		d := levenshtein.ComputeDistance(q, key)
		// Compare against the name's leading word too, so "settngs" finds "Settings Advanced".
		if words := tokenize(key); len(words) > 1 {
			d = min(d, levenshtein.ComputeDistance(q, words[0]))
		}
		if d <= maxDist {
			cands = append(cands, candidate{name: name, dist: d})
		}
	}

	slices.SortStableFunc(cands, func(a, b candidate) int { return a.dist - b.dist })
	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}
