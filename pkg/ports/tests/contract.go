package tests

import (
	"context"
	"testing"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/ports"
)

// ActionLoaderContractTest is a reusable test suite that verifies if an adapter complies
// with ports.ActionLoader. want lists the expected specs by id.
func ActionLoaderContractTest(t *testing.T, loader ports.ActionLoader, want map[string]domain.ActionSpec) {
	t.Helper()
	ctx := context.Background()

	specs, err := loader.LoadActions(ctx)
	if err != nil {
		t.Fatalf("unexpected error loading actions: %v", err)
	}

	t.Run("AllPresent", func(t *testing.T) {
		if len(specs) != len(want) {
			t.Errorf("expected %d actions, got %d", len(want), len(specs))
		}
		for _, s := range specs {
			w, ok := want[s.ID]
			if !ok {
				t.Errorf("unexpected action %q", s.ID)
				continue
			}
			if s.Name != w.Name || s.Parent != w.Parent {
				t.Errorf("action %q mismatch: got name=%q parent=%q, want name=%q parent=%q",
					s.ID, s.Name, s.Parent, w.Name, w.Parent)
			}
		}
	})

	t.Run("ParentsFirst", func(t *testing.T) {
		seen := make(map[string]bool)
		for _, s := range specs {
			if s.Parent != "" && want[s.Parent].ID != "" && !seen[s.Parent] {
				t.Errorf("action %q listed before its parent %q", s.ID, s.Parent)
			}
			seen[s.ID] = true
		}
	})

	t.Run("Repeatable", func(t *testing.T) {
		again, err := loader.LoadActions(ctx)
		if err != nil {
			t.Fatalf("second load failed: %v", err)
		}
		if len(again) != len(specs) {
			t.Errorf("second load returned %d actions, first %d", len(again), len(specs))
		}
	})
}
