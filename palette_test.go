package palette_test

import (
	"context"
	"testing"

	"github.com/aretw0/palette"
	"github.com/aretw0/palette/pkg/adapters/memory"
	"github.com/aretw0/palette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RegisterActionsUnregister(t *testing.T) {
	eng := palette.New()
	require.NoError(t, eng.Register(domain.ActionNode{ID: "base", Name: "Base"}))

	unregister, err := eng.RegisterActions(
		domain.ActionNode{ID: "dyn", Name: "Dynamic"},
		domain.ActionNode{ID: "dyn-child", Name: "Child", ParentID: "dyn"},
		domain.ActionNode{Name: "Generated"},
	)
	require.NoError(t, err)
	assert.Equal(t, 4, eng.Tree().Len())

	unregister()
	unregister()
	assert.Equal(t, 1, eng.Tree().Len())
	assert.True(t, eng.Tree().Has("base"))
}

func TestEngine_ConflictHook(t *testing.T) {
	var got []*domain.ConflictEvent
	eng := palette.New(palette.WithLifecycleHooks(domain.LifecycleHooks{
		OnShortcutConflict: func(_ context.Context, e *domain.ConflictEvent) { got = append(got, e) },
	}))

	require.NoError(t, eng.Register(domain.ActionNode{ID: "a", Name: "A", Shortcut: []string{"g", "d"}}))
	require.NoError(t, eng.Register(domain.ActionNode{ID: "b", Name: "B", Shortcut: []string{"G", "d"}}))
	assert.Empty(t, got, "G and g are distinct tokens")

	require.NoError(t, eng.Register(domain.ActionNode{ID: "c", Name: "C", Shortcut: []string{"g", "d"}}))
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].Winner)
	assert.Equal(t, domain.EventShortcutConflict, got[0].Type)
	assert.Len(t, eng.Conflicts(), 1)
}

func TestEngine_LoadAndReload(t *testing.T) {
	ctx := context.Background()
	loader := memory.NewLoader(
		domain.ActionSpec{ID: "nav", Name: "Navigation"},
		domain.ActionSpec{ID: "home", Name: "Home", Parent: "nav", Perform: "noop"},
		domain.ActionSpec{ID: "old", Name: "Old"},
	)
	eng := palette.New(palette.WithLoader(loader))
	eng.Registry().Register("noop", func(context.Context, domain.ActionNode, map[string]any) error { return nil })

	require.NoError(t, eng.Load(ctx))
	require.NoError(t, eng.Register(domain.ActionNode{ID: "api", Name: "From code"}))
	assert.Equal(t, 4, eng.Tree().Len())

	home, ok := eng.Get("home")
	require.True(t, ok)
	assert.IsType(t, domain.Invoke{}, home.Perform)

	loader.Set(
		domain.ActionSpec{ID: "nav", Name: "Go to"},
		domain.ActionSpec{ID: "home", Name: "Home", Parent: "nav", Perform: "noop"},
	)
	require.NoError(t, eng.Load(ctx))

	nav, _ := eng.Get("nav")
	assert.Equal(t, "Go to", nav.Name)
	assert.False(t, eng.Tree().Has("old"))
	assert.True(t, eng.Tree().Has("api"))
}

func TestEngine_ReloadRemovesSubtreeOfDroppedAction(t *testing.T) {
	ctx := context.Background()
	loader := memory.NewLoader(
		domain.ActionSpec{ID: "keep", Name: "Keep"},
		domain.ActionSpec{ID: "old", Name: "Old"},
	)
	eng := palette.New(palette.WithLoader(loader))
	require.NoError(t, eng.Load(ctx))
	require.NoError(t, eng.Register(
		domain.ActionNode{ID: "api-root", Name: "Root from code"},
		domain.ActionNode{ID: "api-under-keep", Name: "Kept child", ParentID: "keep"},
		domain.ActionNode{ID: "api-under-old", Name: "Orphaned child", ParentID: "old"},
	))

	loader.Set(domain.ActionSpec{ID: "keep", Name: "Keep"})
	require.NoError(t, eng.Load(ctx))

	assert.False(t, eng.Tree().Has("old"))
	assert.False(t, eng.Tree().Has("api-under-old"), "children go with their removed parent")
	assert.True(t, eng.Tree().Has("api-root"))
	assert.True(t, eng.Tree().Has("api-under-keep"))
	assert.Equal(t, 3, eng.Tree().Len())
}

func TestEngine_LoadUnknownHandler(t *testing.T) {
	eng := palette.New(palette.WithLoader(memory.NewLoader(
		domain.ActionSpec{ID: "x", Name: "X", Perform: "missing"},
	)))
	err := eng.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrHandlerNotFound)
	assert.Equal(t, 0, eng.Tree().Len())
}

func TestEngine_LoadWithoutLoader(t *testing.T) {
	assert.ErrorIs(t, palette.New().Load(context.Background()), palette.ErrNoLoader)
}

func TestEngine_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	eng := palette.New()
	require.NoError(t, eng.Register(
		domain.ActionNode{ID: "p", Name: "Parent"},
		domain.ActionNode{ID: "c", Name: "Child", ParentID: "p"},
	))

	s1 := eng.NewSession("one")
	s2 := eng.NewSession("two")
	defer s1.Stop()
	defer s2.Stop()

	require.NoError(t, s1.DrillInto(ctx, "p"))
	assert.Equal(t, "p", s1.State().CurrentRootID)
	assert.Equal(t, "", s2.State().CurrentRootID)
	assert.Equal(t, "one", s1.State().SessionID)
}

func TestEngine_SearchLimit(t *testing.T) {
	eng := palette.New(palette.WithSearchLimit(1))
	require.NoError(t, eng.Register(
		domain.ActionNode{ID: "a", Name: "Alpha"},
		domain.ActionNode{ID: "b", Name: "Alps"},
	))
	results, err := eng.Search("al", domain.RootScope())
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
