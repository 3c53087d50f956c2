package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/palette/pkg/domain"
)

// perform runs node's callback in isolation. A returned error or a panic is logged and
// reported through OnPerformError; it never reaches tree or navigation state.
func (c *Controller) perform(ctx context.Context, node domain.ActionNode, source string) error {
	sessionID := c.State().SessionID

	if c.hooks.OnSelect != nil {
		c.hooks.OnSelect(ctx, &domain.SelectEvent{
			EventBase: domain.NewEventBase(domain.EventSelect, sessionID),
			ActionID:  node.ID,
			Name:      node.Name,
			Source:    source,
		})
	}

	inv, ok := node.Perform.(domain.Invoke)
	if !ok || inv.Run == nil {
		c.logger.Debug("action has nothing to perform", "action_id", node.ID)
		return nil
	}

	err, panicked := invoke(ctx, inv.Run, node)
	if err == nil {
		c.logger.Debug("action performed", "action_id", node.ID, "source", source)
		return nil
	}

	c.logger.Error("action perform failed", "action_id", node.ID, "panicked", panicked, "error", err)
	if c.hooks.OnPerformError != nil {
		c.hooks.OnPerformError(ctx, &domain.PerformErrorEvent{
			EventBase: domain.NewEventBase(domain.EventPerformError, sessionID),
			ActionID:  node.ID,
			Err:       err,
			Message:   err.Error(),
			Panicked:  panicked,
		})
	}
	return err
}

func invoke(ctx context.Context, run domain.PerformFunc, node domain.ActionNode) (err error, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("perform %q panicked: %v", node.ID, r)
			panicked = true
		}
	}()
	return run(ctx, node), false
}
