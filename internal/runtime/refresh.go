package runtime

import (
	"context"
	"errors"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/search"
)

// refreshLocked recomputes the visible list for the current query and scope.
// It returns a func that emits the resulting event; call it after unlocking.
// With force false the event is only emitted when the list was recomputed because
// the tree changed underneath an open palette.
func (c *Controller) refreshLocked(ctx context.Context, force bool) func() {
	c.rescueLocked()

	version := c.src.Version()
	results, err := search.Search(c.src, c.state.Query, c.state.Scope(), search.WithLimit(c.limit))
	if errors.Is(err, domain.ErrActionNotFound) {
		// Scope vanished between rescue and search; fall back to root.
		c.state.CurrentRootID = ""
		c.state.ScopeStack = nil
		results, err = search.Search(c.src, c.state.Query, domain.RootScope(), search.WithLimit(c.limit))
	}
	if err != nil {
		c.logger.Error("search failed", "query", c.state.Query, "error", err)
		results = nil
	}

	changed := c.computed && c.seenVersion != version
	c.visible = results
	c.seenVersion = version
	c.computed = true
	c.clampLocked()

	if !force && !(changed && c.state.Open) {
		return func() {}
	}
	ev := c.visibleEventLocked()
	return func() { c.emitVisible(ctx, ev) }
}

// rescueLocked pops the scope stack until the current root exists again.
func (c *Controller) rescueLocked() {
	for c.state.CurrentRootID != "" && !c.src.Has(c.state.CurrentRootID) {
		lost := c.state.CurrentRootID
		prev := ""
		if n := len(c.state.ScopeStack); n > 0 {
			prev = c.state.ScopeStack[n-1]
			c.state.ScopeStack = c.state.ScopeStack[:n-1]
		}
		c.state.CurrentRootID = prev
		c.state.ActiveIndex = 0
		c.logger.Debug("scope deregistered, moving up", "lost", lost, "scope", prev)
	}
	if c.state.CurrentRootID == "" {
		c.state.ScopeStack = nil
	}
}

// clampLocked keeps the highlight inside the visible list. A closed palette has
// no highlight.
func (c *Controller) clampLocked() {
	n := len(c.visible)
	switch {
	case !c.state.Open, n == 0:
		c.state.ActiveIndex = -1
	case c.state.ActiveIndex < 0:
		c.state.ActiveIndex = 0
	case c.state.ActiveIndex >= n:
		c.state.ActiveIndex = n - 1
	}
}

func (c *Controller) visibleEventLocked() *domain.VisibleEvent {
	results := make([]domain.Result, len(c.visible))
	copy(results, c.visible)
	return &domain.VisibleEvent{
		EventBase:   domain.NewEventBase(domain.EventVisibleChanged, c.state.SessionID),
		ScopeID:     c.state.CurrentRootID,
		Query:       c.state.Query,
		Results:     results,
		ActiveIndex: c.state.ActiveIndex,
		Generation:  c.state.Generation,
	}
}

func (c *Controller) emitVisible(ctx context.Context, ev *domain.VisibleEvent) {
	if c.hooks.OnVisibleListChanged != nil {
		c.hooks.OnVisibleListChanged(ctx, ev)
	}
}
