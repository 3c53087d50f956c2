package validator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/palette/pkg/adapters/memory"
	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLoader struct{}

func (failingLoader) LoadActions(context.Context) ([]domain.ActionSpec, error) {
	return nil, errors.New("boom")
}

func TestValidateActions_Valid(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("open", func(context.Context, domain.ActionNode, map[string]any) error { return nil })

	// Children listed before their parent are fine.
	loader := memory.NewLoader(
		domain.ActionSpec{ID: "dark", Name: "Dark", Parent: "theme", Perform: "open"},
		domain.ActionSpec{ID: "theme", Name: "Theme", Shortcut: []string{"t"}},
		domain.ActionSpec{ID: "blog", Name: "Blog", Shortcut: []string{"g", "b"}, Perform: "open"},
	)

	report, err := ValidateActions(context.Background(), loader, reg)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Actions)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	assert.NoError(t, report.Err(true))
}

func TestValidateSpecs_StructuralErrors(t *testing.T) {
	report := ValidateSpecs([]domain.ActionSpec{
		{ID: "a", Name: "A"},
		{ID: "a", Name: "A again"},
		{Name: "Nameless id"},
		{ID: "orphan", Name: "Orphan", Parent: "ghost"},
		{ID: "x", Name: "X", Parent: "y"},
		{ID: "y", Name: "Y", Parent: "x"},
		{ID: "bad-keys", Name: "Bad", Shortcut: []string{"ctrl+"}},
		{ID: "run", Name: "Run", Perform: "missing"},
	}, registry.NewRegistry())

	assert.Contains(t, report.Errors, "duplicate action id 'a'")
	assert.Contains(t, report.Errors, `action #3 ("Nameless id") has no id`)
	assert.Contains(t, report.Errors, "action 'orphan': unknown parent 'ghost'")
	assert.Contains(t, report.Errors, "cycle through action 'x'")
	assert.Contains(t, report.Errors, "action 'run': unknown perform handler 'missing'")

	var shortcutErr bool
	for _, e := range report.Errors {
		if strings.HasPrefix(e, "action 'bad-keys'") {
			shortcutErr = true
		}
	}
	assert.True(t, shortcutErr, "invalid shortcut reported: %v", report.Errors)

	err := report.Err(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 6 errors")
}

func TestValidateSpecs_ConflictsAreWarnings(t *testing.T) {
	report := ValidateSpecs([]domain.ActionSpec{
		{ID: "first", Name: "First", Shortcut: []string{"g", "d"}},
		{ID: "second", Name: "Second", Shortcut: []string{"g", "d"}},
		{ID: "short", Name: "Short", Shortcut: []string{"x"}},
		{ID: "long", Name: "Long", Shortcut: []string{"x", "y"}},
		{ID: "blank"},
	}, nil)

	assert.Empty(t, report.Errors)
	assert.ElementsMatch(t, []string{
		"action 'blank' has no name",
		"shortcut 'g d' is bound by both 'first' and 'second'; 'second' wins",
		"shortcut 'x y' of 'long' is shadowed by 'short'",
	}, report.Warnings)

	assert.NoError(t, report.Err(false))
	assert.Error(t, report.Err(true))
}

func TestValidateActions_LoadError(t *testing.T) {
	_, err := ValidateActions(context.Background(), failingLoader{}, nil)
	assert.ErrorContains(t, err, "boom")
}
