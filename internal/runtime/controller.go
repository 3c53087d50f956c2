// Package runtime holds the navigation controller: the state machine that ties the
// action tree, the search engine and the shortcut matcher into one palette session.
package runtime

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/search"
	"github.com/aretw0/palette/pkg/shortcut"
)

// Source is the tree as seen by the controller.
type Source interface {
	search.Source
	shortcut.BindingSource
	Has(id string) bool
}

// Controller owns the navigation state of one palette session.
// Events are serialised behind a mutex; hooks and perform callbacks run after the
// mutex is released so they may call back into the controller.
type Controller struct {
	mu sync.Mutex

	src     Source
	matcher *shortcut.Matcher
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	limit   int

	state   domain.NavigationState
	visible []domain.Result
	// seenVersion is the tree version the visible list was computed against.
	seenVersion uint64
	computed    bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithHooks sets the lifecycle hooks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(c *Controller) { c.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSearchLimit caps the visible list.
func WithSearchLimit(n int) Option {
	return func(c *Controller) { c.limit = n }
}

// WithSessionID tags state and events with a session id.
func WithSessionID(id string) Option {
	return func(c *Controller) { c.state.SessionID = id }
}

// NewController creates a closed controller positioned at the root scope.
// matcher may be nil, in which case HandleKey only drives palette navigation.
func NewController(src Source, matcher *shortcut.Matcher, opts ...Option) *Controller {
	c := &Controller{
		src:     src,
		matcher: matcher,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	c.state.ActiveIndex = -1
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current navigation state.
func (c *Controller) State() domain.NavigationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.state.Clone()
}

// Snapshot returns the serializable state for session stores.
func (c *Controller) Snapshot() *domain.NavigationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Restore replaces the state with s. Scopes that no longer exist are rescued to
// the nearest surviving ancestor on the next refresh.
func (c *Controller) Restore(ctx context.Context, s *domain.NavigationState) {
	if s == nil {
		return
	}
	c.mu.Lock()
	sessionID := c.state.SessionID
	c.state = *s.Clone()
	if c.state.SessionID == "" {
		c.state.SessionID = sessionID
	}
	c.computed = false
	emit := c.refreshLocked(ctx, false)
	c.mu.Unlock()
	emit()
}

// Visible returns the current ranked list, recomputing it if the tree changed.
func (c *Controller) Visible(ctx context.Context) []domain.Result {
	c.mu.Lock()
	emit := func() {}
	if !c.computed || c.seenVersion != c.src.Version() {
		emit = c.refreshLocked(ctx, false)
	}
	out := slices.Clone(c.visible)
	c.mu.Unlock()
	emit()
	return out
}

// Active returns the highlighted result.
func (c *Controller) Active(ctx context.Context) (domain.Result, bool) {
	visible := c.Visible(ctx)
	st := c.State()
	if st.ActiveIndex < 0 || st.ActiveIndex >= len(visible) {
		return domain.Result{}, false
	}
	return visible[st.ActiveIndex], true
}

// IsOpen reports whether the palette is open.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Open
}

// Open shows the palette scoped to scopeID ("" for root). The scope stack is rebuilt
// from the scope's ancestors so Back walks up one level at a time.
func (c *Controller) Open(ctx context.Context, scopeID string) error {
	var stack []string
	if scopeID != "" {
		node, ok := c.src.Get(scopeID)
		if !ok {
			return &domain.ActionError{Op: "open", ID: scopeID, Err: domain.ErrActionNotFound}
		}
		if !node.HasChildren() {
			return &domain.ActionError{Op: "open", ID: scopeID, Err: domain.ErrDrillIntoLeaf}
		}
		chain, err := c.src.Ancestors(scopeID)
		if err != nil {
			return err
		}
		stack = append(stack, "")
		for _, a := range chain {
			stack = append(stack, a.ID)
		}
	}

	c.mu.Lock()
	c.state.Open = true
	c.state.CurrentRootID = scopeID
	c.state.ScopeStack = stack
	c.state.Query = ""
	c.state.ActiveIndex = 0
	c.state.Generation++
	sessionID := c.state.SessionID
	emit := c.refreshLocked(ctx, true)
	c.mu.Unlock()

	c.logger.Debug("palette opened", "scope", scopeID, "session_id", sessionID)
	emit()
	return nil
}

// Close hides the palette and resets it to the root scope.
func (c *Controller) Close(ctx context.Context) {
	c.close(ctx, domain.CloseRequested)
}

// Toggle opens the palette at the root when closed, and closes it otherwise.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.IsOpen() {
		c.Close(ctx)
		return nil
	}
	return c.Open(ctx, "")
}

func (c *Controller) close(ctx context.Context, reason domain.CloseReason) {
	c.mu.Lock()
	wasOpen := c.state.Open
	c.state.Open = false
	c.state.CurrentRootID = ""
	c.state.ScopeStack = nil
	c.state.Query = ""
	c.state.ActiveIndex = -1
	c.state.Generation++
	c.computed = false
	c.visible = nil
	sessionID := c.state.SessionID
	c.mu.Unlock()

	if !wasOpen {
		return
	}
	c.logger.Debug("palette closed", "reason", reason, "session_id", sessionID)
	if c.hooks.OnClose != nil {
		c.hooks.OnClose(ctx, &domain.CloseEvent{
			EventBase: domain.NewEventBase(domain.EventClose, sessionID),
			Reason:    reason,
		})
	}
}

// DrillInto makes id the current scope. Drilling into a leaf is a silent no-op.
func (c *Controller) DrillInto(ctx context.Context, id string) error {
	node, ok := c.src.Get(id)
	if !ok {
		return &domain.ActionError{Op: "drill", ID: id, Err: domain.ErrActionNotFound}
	}
	if !node.HasChildren() {
		c.logger.Debug("drill into leaf ignored", "action_id", id, "error", domain.ErrDrillIntoLeaf)
		return nil
	}

	c.mu.Lock()
	c.state.ScopeStack = append(c.state.ScopeStack, c.state.CurrentRootID)
	c.state.CurrentRootID = id
	c.state.Query = ""
	c.state.ActiveIndex = 0
	c.state.Open = true
	c.state.Generation++
	emit := c.refreshLocked(ctx, true)
	c.mu.Unlock()

	emit()
	return nil
}

// Back pops one scope. At the root it closes the palette and returns true.
func (c *Controller) Back(ctx context.Context) (closed bool) {
	c.mu.Lock()
	if len(c.state.ScopeStack) == 0 && c.state.CurrentRootID == "" {
		c.mu.Unlock()
		c.close(ctx, domain.CloseBack)
		return true
	}

	prev := ""
	if n := len(c.state.ScopeStack); n > 0 {
		prev = c.state.ScopeStack[n-1]
		c.state.ScopeStack = c.state.ScopeStack[:n-1]
	}
	c.state.CurrentRootID = prev
	c.state.Query = ""
	c.state.ActiveIndex = 0
	c.state.Generation++
	emit := c.refreshLocked(ctx, true)
	c.mu.Unlock()

	emit()
	return false
}

// SetQuery replaces the query and recomputes the visible list synchronously.
func (c *Controller) SetQuery(ctx context.Context, text string) {
	c.mu.Lock()
	c.state.Query = text
	c.state.Generation++
	emit := c.refreshLocked(ctx, true)
	c.mu.Unlock()
	emit()
}

// BeginQuery records text as the latest query and returns its generation token,
// for hosts that compute results asynchronously. Pair with ApplyResults.
func (c *Controller) BeginQuery(text string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Query = text
	c.state.Generation++
	return c.state.Generation
}

// ApplyResults installs results computed for generation gen.
// Results for any older generation are discarded and false is returned.
func (c *Controller) ApplyResults(ctx context.Context, gen uint64, results []domain.Result) bool {
	c.mu.Lock()
	if gen != c.state.Generation {
		c.mu.Unlock()
		c.logger.Debug("stale results discarded", "generation", gen, "current", c.state.Generation)
		return false
	}
	c.visible = slices.Clone(results)
	c.seenVersion = c.src.Version()
	c.computed = true
	c.clampLocked()
	ev := c.visibleEventLocked()
	c.mu.Unlock()

	c.emitVisible(ctx, ev)
	return true
}

// MoveActive moves the highlight by delta, wrapping around both ends.
func (c *Controller) MoveActive(ctx context.Context, delta int) {
	c.mu.Lock()
	n := len(c.visible)
	if !c.state.Open || n == 0 || delta == 0 {
		c.mu.Unlock()
		return
	}
	cur := max(c.state.ActiveIndex, 0)
	c.state.ActiveIndex = ((cur+delta)%n + n) % n
	ev := c.visibleEventLocked()
	c.mu.Unlock()

	c.emitVisible(ctx, ev)
}

// SetActive highlights index i if it is in range.
func (c *Controller) SetActive(ctx context.Context, i int) bool {
	c.mu.Lock()
	if !c.state.Open || i < 0 || i >= len(c.visible) {
		c.mu.Unlock()
		return false
	}
	c.state.ActiveIndex = i
	ev := c.visibleEventLocked()
	c.mu.Unlock()

	c.emitVisible(ctx, ev)
	return true
}

// Commit acts on the highlighted result: a group is drilled into, anything else is
// performed and the palette closes. A closed palette or an empty highlight is a no-op.
func (c *Controller) Commit(ctx context.Context) (domain.Outcome, error) {
	if st := c.State(); !st.Open || st.ActiveIndex < 0 {
		return domain.Outcome{}, nil
	}
	res, ok := c.Active(ctx)
	if !ok {
		return domain.Outcome{}, nil
	}
	node, exists := c.src.Get(res.Node.ID)
	if !exists {
		return domain.Outcome{}, &domain.ActionError{Op: "commit", ID: res.Node.ID, Err: domain.ErrActionNotFound}
	}

	if node.HasChildren() {
		if err := c.DrillInto(ctx, node.ID); err != nil {
			return domain.Outcome{}, err
		}
		return domain.Outcome{Kind: domain.OutcomeDrilled, ActionID: node.ID}, nil
	}

	err := c.perform(ctx, node, "commit")
	c.close(ctx, domain.ClosePerformed)
	return domain.Outcome{Kind: domain.OutcomePerformed, ActionID: node.ID, Err: err}, nil
}

// Perform runs the action id directly, as a shortcut match would.
func (c *Controller) Perform(ctx context.Context, id string) (domain.Outcome, error) {
	node, ok := c.src.Get(id)
	if !ok {
		return domain.Outcome{}, &domain.ActionError{Op: "perform", ID: id, Err: domain.ErrActionNotFound}
	}
	return c.activate(ctx, node, "shortcut")
}

// activate opens the palette on a group, or performs a leaf.
func (c *Controller) activate(ctx context.Context, node domain.ActionNode, source string) (domain.Outcome, error) {
	if node.HasChildren() {
		if err := c.Open(ctx, node.ID); err != nil {
			return domain.Outcome{}, err
		}
		return domain.Outcome{Kind: domain.OutcomeOpened, ActionID: node.ID}, nil
	}
	err := c.perform(ctx, node, source)
	c.close(ctx, domain.ClosePerformed)
	return domain.Outcome{Kind: domain.OutcomePerformed, ActionID: node.ID, Err: err}, nil
}
