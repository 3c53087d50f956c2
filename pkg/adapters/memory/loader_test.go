package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/palette/pkg/adapters/memory"
	"github.com/aretw0/palette/pkg/domain"
	contract "github.com/aretw0/palette/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	specs := []domain.ActionSpec{
		{ID: "theme", Name: "Change theme…"},
		{ID: "dark", Name: "Dark", Parent: "theme", Perform: "set-theme"},
		{ID: "blog", Name: "Blog", Shortcut: []string{"g", "b"}},
	}
	want := make(map[string]domain.ActionSpec)
	for _, s := range specs {
		want[s.ID] = s
	}

	contract.ActionLoaderContractTest(t, memory.NewLoader(specs...), want)
}

func TestInMemoryLoader_ReturnsCopies(t *testing.T) {
	loader := memory.NewLoader(domain.ActionSpec{ID: "a", Name: "A", Shortcut: []string{"x"}})

	first, err := loader.LoadActions(context.Background())
	require.NoError(t, err)
	first[0].Shortcut[0] = "mutated"

	second, err := loader.LoadActions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, second[0].Shortcut)
}

func TestNewFromNodes(t *testing.T) {
	loader := memory.NewFromNodes(
		domain.ActionNode{ID: "p", Name: "Parent"},
		domain.ActionNode{ID: "c", Name: "Child", ParentID: "p"},
	)
	specs, err := loader.LoadActions(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "p", specs[1].Parent)
}
