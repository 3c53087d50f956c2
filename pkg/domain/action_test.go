package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionNode_Clone(t *testing.T) {
	order := 1
	n := domain.ActionNode{ID: "a", Shortcut: []string{"g"}, ChildrenIDs: []string{"b"}, Order: &order}
	c := n.Clone()

	c.Shortcut[0] = "x"
	c.ChildrenIDs[0] = "y"
	*c.Order = 9

	assert.Equal(t, "g", n.Shortcut[0])
	assert.Equal(t, "b", n.ChildrenIDs[0])
	assert.Equal(t, 1, *n.Order)
}

func TestDo(t *testing.T) {
	called := false
	p := domain.Do(func(ctx context.Context) error {
		called = true
		return errors.New("boom")
	})

	inv, ok := p.(domain.Invoke)
	require.True(t, ok)
	err := inv.Run(context.Background(), domain.ActionNode{})
	assert.True(t, called)
	assert.EqualError(t, err, "boom")
}

func TestActionPatch_Apply(t *testing.T) {
	order := 3
	n := domain.ActionNode{ID: "a", Name: "Old", ParentID: "p", ChildrenIDs: []string{"c"}, Order: &order}

	name := "New"
	domain.ActionPatch{Name: &name, ClearOrder: true}.Apply(&n)

	assert.Equal(t, "New", n.Name)
	assert.Nil(t, n.Order)
	assert.Equal(t, "p", n.ParentID)
	assert.Equal(t, []string{"c"}, n.ChildrenIDs)
}

func TestSpecRoundTrip(t *testing.T) {
	order := 2
	spec := domain.ActionSpec{ID: "theme", Name: "Change theme…", Parent: "settings", Order: &order, Shortcut: []string{"t"}}
	n := spec.Node()

	assert.Equal(t, "settings", n.ParentID)
	assert.Nil(t, n.Perform)

	back := domain.SpecOf(n)
	assert.Equal(t, spec.ID, back.ID)
	assert.Equal(t, spec.Parent, back.Parent)
	assert.Equal(t, 2, *back.Order)
}

func TestActionError(t *testing.T) {
	err := &domain.ActionError{Op: "register", ID: "x", Err: domain.ErrDuplicateActionID}
	assert.ErrorIs(t, err, domain.ErrDuplicateActionID)
	assert.Equal(t, `register "x": duplicate action id`, err.Error())
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnClose: func(context.Context, *domain.CloseEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{OnClose: func(context.Context, *domain.CloseEvent) { calls = append(calls, "b") }}

	m := a.Merge(b)
	m.OnClose(context.Background(), &domain.CloseEvent{})
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Nil(t, m.OnSelect)
}
