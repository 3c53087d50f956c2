package runtime

import (
	"context"

	"github.com/aretw0/palette/pkg/domain"
)

// HandleKey routes a key event. While the palette is open, navigation keys
// (up, down, enter, esc, tab) drive the list. Everything else is fed to the
// shortcut matcher; a match opens a group scoped to it or performs a leaf.
func (c *Controller) HandleKey(ctx context.Context, ev domain.KeyEvent) (domain.Outcome, error) {
	if c.IsOpen() && ev.Modifiers == domain.ModNone {
		switch ev.Token() {
		case "up":
			c.MoveActive(ctx, -1)
			return domain.Outcome{Kind: domain.OutcomeMoved}, nil
		case "down", "tab":
			c.MoveActive(ctx, 1)
			return domain.Outcome{Kind: domain.OutcomeMoved}, nil
		case "enter":
			return c.Commit(ctx)
		case "esc":
			if c.Back(ctx) {
				return domain.Outcome{Kind: domain.OutcomeClosed}, nil
			}
			return domain.Outcome{Kind: domain.OutcomeMoved}, nil
		}
	}

	if c.matcher == nil {
		return domain.Outcome{}, nil
	}
	match, ok := c.matcher.Feed(ev)
	if !ok {
		return domain.Outcome{}, nil
	}

	node, exists := c.src.Get(match.ActionID)
	if !exists {
		c.logger.Warn("shortcut matched a missing action", "action_id", match.ActionID)
		return domain.Outcome{}, nil
	}
	if c.hooks.OnShortcutMatch != nil {
		c.hooks.OnShortcutMatch(ctx, &domain.ShortcutEvent{
			EventBase: domain.NewEventBase(domain.EventShortcutMatch, c.State().SessionID),
			ActionID:  node.ID,
			Keys:      match.Keys,
		})
	}
	return c.activate(ctx, node, "shortcut")
}
