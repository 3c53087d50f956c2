// Package validator checks action definitions before they reach an engine.
package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/ports"
	"github.com/aretw0/palette/pkg/registry"
	"github.com/aretw0/palette/pkg/tree"
)

// Report lists the problems found in a set of specs.
// Errors prevent loading; warnings describe shortcuts that can never fire.
type Report struct {
	Actions  int
	Errors   []string
	Warnings []string
}

// Err folds the report into a single error, or nil when there are no errors.
// With strict set, warnings count as errors.
func (r Report) Err(strict bool) error {
	problems := r.Errors
	if strict {
		problems = append(problems[:len(problems):len(problems)], r.Warnings...)
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
}

// ValidateActions loads every spec from loader and reports duplicate ids, unknown
// parents, cycles, invalid shortcuts and shortcut conflicts. When reg is not nil,
// perform names are checked against it. The returned error is only for load failures.
func ValidateActions(ctx context.Context, loader ports.ActionLoader, reg *registry.Registry) (Report, error) {
	specs, err := loader.LoadActions(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load actions: %w", err)
	}
	return ValidateSpecs(specs, reg), nil
}

// ValidateSpecs is ValidateActions over specs already in memory.
func ValidateSpecs(specs []domain.ActionSpec, reg *registry.Registry) Report {
	r := Report{Actions: len(specs)}

	byID := make(map[string]domain.ActionSpec, len(specs))
	for i, s := range specs {
		if s.ID == "" {
			r.Errors = append(r.Errors, fmt.Sprintf("action #%d (%q) has no id", i+1, s.Name))
			continue
		}
		if _, dup := byID[s.ID]; dup {
			r.Errors = append(r.Errors, fmt.Sprintf("duplicate action id '%s'", s.ID))
			continue
		}
		byID[s.ID] = s
		if strings.TrimSpace(s.Name) == "" {
			r.Warnings = append(r.Warnings, fmt.Sprintf("action '%s' has no name", s.ID))
		}
		if _, err := domain.NormalizeShortcut(s.Shortcut); err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("action '%s': %v", s.ID, err))
		}
		if reg != nil && s.Perform != "" && !reg.Has(s.Perform) {
			r.Errors = append(r.Errors, fmt.Sprintf("action '%s': unknown perform handler '%s'", s.ID, s.Perform))
		}
	}

	ordered, problems := parentsFirst(specs, byID)
	r.Errors = append(r.Errors, problems...)
	if len(r.Errors) > 0 {
		return r
	}

	// A throwaway tree reports conflicts exactly as the engine will.
	t := tree.New()
	nodes := make([]domain.ActionNode, len(ordered))
	for i, s := range ordered {
		nodes[i] = s.Node()
	}
	if err := t.RegisterAll(nodes...); err != nil {
		r.Errors = append(r.Errors, err.Error())
		return r
	}
	for _, c := range t.Conflicts() {
		r.Warnings = append(r.Warnings, describeConflict(c))
	}
	return r
}

// parentsFirst orders specs so every parent precedes its children, reporting
// unknown parents and cycles.
func parentsFirst(specs []domain.ActionSpec, byID map[string]domain.ActionSpec) ([]domain.ActionSpec, []string) {
	var problems []string
	out := make([]domain.ActionSpec, 0, len(byID))
	state := make(map[string]int, len(byID)) // 1 visiting, 2 done, 3 broken

	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case 1:
			problems = append(problems, fmt.Sprintf("cycle through action '%s'", id))
			state[id] = 3
			return false
		case 2:
			return true
		case 3:
			return false
		}
		s := byID[id]
		state[id] = 1
		if s.Parent != "" {
			if _, ok := byID[s.Parent]; !ok {
				problems = append(problems, fmt.Sprintf("action '%s': unknown parent '%s'", id, s.Parent))
				state[id] = 3
				return false
			}
			if !visit(s.Parent) {
				state[id] = 3
				return false
			}
		}
		state[id] = 2
		out = append(out, s)
		return true
	}

	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if s.ID == "" || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		visit(s.ID)
	}
	return out, problems
}

func describeConflict(c domain.ShortcutConflict) string {
	keys := strings.Join(c.Keys, " ")
	if c.Kind == domain.ConflictShadowed {
		return fmt.Sprintf("shortcut '%s' of '%s' is shadowed by '%s'", keys, c.Shadowed, c.Winner)
	}
	return fmt.Sprintf("shortcut '%s' is bound by both '%s' and '%s'; '%s' wins", keys, c.Shadowed, c.Winner, c.Winner)
}
