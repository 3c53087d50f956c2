package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/palette"
	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_NodesParentsFirst(t *testing.T) {
	b := dsl.New()

	// Declared before its parent.
	b.Add("dark").Name("Dark").Under("theme")
	b.Add("theme").Name("Change theme").Section("Preferences").Shortcut("t")
	b.Add("theme").Child("light").Name("Light").Order(0)
	b.Add("blog").Name("Blog").Keywords("posts").Subtitle("writing").Shortcut("g b")

	nodes, err := b.Nodes()
	require.NoError(t, err)

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"theme", "dark", "light", "blog"}, ids)

	assert.Equal(t, []string{"g", "b"}, nodes[3].Shortcut)
	assert.Equal(t, "theme", nodes[2].ParentID)
	require.NotNil(t, nodes[2].Order)
	assert.Equal(t, 0, *nodes[2].Order)
}

func TestBuilder_NameDefaultsToID(t *testing.T) {
	b := dsl.New()
	b.Add("settings")
	nodes, err := b.Nodes()
	require.NoError(t, err)
	assert.Equal(t, "settings", nodes[0].Name)
}

func TestBuilder_Errors(t *testing.T) {
	b := dsl.New()
	b.Add("orphan").Under("missing")
	_, err := b.Nodes()
	assert.ErrorIs(t, err, domain.ErrUnknownParent)

	b = dsl.New()
	b.Add("a").Under("b")
	b.Add("b").Under("a")
	_, err = b.Build()
	assert.ErrorIs(t, err, domain.ErrCycle)
}

func TestBuilder_Build(t *testing.T) {
	b := dsl.New()
	b.Add("theme").Name("Theme")
	b.Add("theme").Child("dark").Name("Dark").Perform("set-theme", map[string]any{"mode": "dark"})
	b.Add("home").Name("Home").Do(func(context.Context) error { return nil })

	loader, err := b.Build()
	require.NoError(t, err)

	specs, err := loader.LoadActions(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, "set-theme", specs[1].Perform)
	assert.Equal(t, "dark", specs[1].Args["mode"])
	assert.Equal(t, "theme", specs[1].Parent)
	assert.Empty(t, specs[2].Perform)
}

func TestBuilder_RegisterIntoEngine(t *testing.T) {
	ctx := context.Background()
	eng := palette.New()

	var mode string
	eng.Registry().Register("set-theme", func(_ context.Context, _ domain.ActionNode, args map[string]any) error {
		mode, _ = args["mode"].(string)
		return nil
	})
	homeRuns := 0

	b := dsl.New()
	b.Add("theme").Name("Theme")
	b.Add("theme").Child("dark").Name("Dark").Perform("set-theme", map[string]any{"mode": "dark"})
	b.Add("home").Name("Home").Shortcut("g h").Do(func(context.Context) error {
		homeRuns++
		return nil
	})
	require.NoError(t, b.Register(eng))
	assert.Equal(t, 3, eng.Tree().Len())

	sess := eng.Session()
	out, err := sess.Perform(ctx, "dark")
	require.NoError(t, err)
	require.NoError(t, out.Err)
	assert.Equal(t, "dark", mode)

	_, err = sess.Perform(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, 1, homeRuns)
}

func TestBuilder_RegisterUnknownHandler(t *testing.T) {
	eng := palette.New()
	b := dsl.New()
	b.Add("x").Perform("nope", nil)

	err := b.Register(eng)
	assert.ErrorIs(t, err, domain.ErrHandlerNotFound)
	assert.Equal(t, 0, eng.Tree().Len())
}
