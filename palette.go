package palette

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/ports"
	"github.com/aretw0/palette/pkg/registry"
	"github.com/aretw0/palette/pkg/search"
	"github.com/aretw0/palette/pkg/shortcut"
	"github.com/aretw0/palette/pkg/tree"
	"github.com/google/uuid"
)

// Engine is the high-level entry point for the palette library.
// It owns one action tree shared by every session and wires search, shortcut
// matching and navigation on top of it.
type Engine struct {
	tree     *tree.Tree
	registry *registry.Registry
	loader   ports.ActionLoader
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	clock      shortcut.Clock
	timeout    time.Duration
	limit      int
	focusGuard func() bool
	Name       string

	mu     sync.Mutex
	loaded []string
	main   *Session
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
// Calling it more than once merges the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLoader sets the source of action definitions used by Load.
func WithLoader(l ports.ActionLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithRegistry sets the registry used to resolve perform handler names.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithShortcutTimeout sets the maximum gap between keys of one shortcut sequence.
func WithShortcutTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithClock injects the clock used by shortcut matchers.
func WithClock(c shortcut.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithSearchLimit caps the visible result list of every session.
func WithSearchLimit(n int) Option {
	return func(e *Engine) {
		e.limit = n
	}
}

// WithFocusGuard makes sessions ignore shortcut keys while fn reports true.
func WithFocusGuard(fn func() bool) Option {
	return func(e *Engine) {
		e.focusGuard = fn
	}
}

// WithName labels the engine; the name is added to every log line.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes a new palette Engine with an empty action tree.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized so the inner packages never see nil.
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("palette", eng.Name)
	}
	if eng.registry == nil {
		eng.registry = registry.NewRegistry()
	}
	if eng.timeout <= 0 {
		eng.timeout = shortcut.DefaultTimeout
	}

	eng.tree = tree.New(
		tree.WithLogger(eng.logger),
		tree.WithConflictHandler(eng.reportConflict),
	)
	return eng
}

func (e *Engine) reportConflict(c domain.ShortcutConflict) {
	if e.hooks.OnShortcutConflict != nil {
		e.hooks.OnShortcutConflict(context.Background(), &domain.ConflictEvent{
			EventBase:        domain.NewEventBase(domain.EventShortcutConflict, ""),
			ShortcutConflict: c,
		})
	}
}

// CreateAction returns n with a generated id when it has none.
func CreateAction(n domain.ActionNode) domain.ActionNode {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return n
}

// Register adds nodes as one atomic batch: either all are registered or none.
func (e *Engine) Register(nodes ...domain.ActionNode) error {
	return e.tree.RegisterAll(nodes...)
}

// RegisterActions registers a dynamic set of actions and returns a func that
// removes exactly those actions again. Nodes without an id get a generated one.
func (e *Engine) RegisterActions(nodes ...domain.ActionNode) (unregister func(), err error) {
	batch := make([]domain.ActionNode, len(nodes))
	for i, n := range nodes {
		batch[i] = CreateAction(n)
	}
	if err := e.tree.RegisterAll(batch...); err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(batch) - 1; i >= 0; i-- {
				// Parents may already have taken their children with them.
				_, _ = e.tree.Deregister(batch[i].ID)
			}
		})
	}, nil
}

// Update merges patch into the content of action id.
func (e *Engine) Update(id string, patch domain.ActionPatch) error {
	return e.tree.Update(id, patch)
}

// Upsert registers n or overwrites the action with the same id.
func (e *Engine) Upsert(n domain.ActionNode) error {
	_, err := e.tree.Upsert(n)
	return err
}

// Reparent moves action id under parentID ("" for root).
func (e *Engine) Reparent(id, parentID string) error {
	return e.tree.Reparent(id, parentID)
}

// Deregister removes id and its whole subtree, returning the removed ids.
func (e *Engine) Deregister(id string) ([]string, error) {
	return e.tree.Deregister(id)
}

// Get returns the action with the given id.
func (e *Engine) Get(id string) (domain.ActionNode, bool) {
	return e.tree.Get(id)
}

// Actions returns every action in depth-first display order.
func (e *Engine) Actions() []domain.ActionNode {
	return slices.Collect(e.tree.All())
}

// Tree exposes the underlying action tree.
func (e *Engine) Tree() *tree.Tree {
	return e.tree
}

// Registry returns the handler registry used to resolve spec perform names.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Conflicts lists shortcut bindings that currently cannot fire.
func (e *Engine) Conflicts() []domain.ShortcutConflict {
	return e.tree.Conflicts()
}

// Search ranks actions in scope against query, honouring WithSearchLimit.
func (e *Engine) Search(query string, scope domain.Scope) ([]domain.Result, error) {
	return search.Search(e.tree, query, scope, search.WithLimit(e.limit))
}

// Suggest returns up to n action names close to a query, for "did you mean" hints.
func (e *Engine) Suggest(query string, n int) []string {
	return search.Suggest(e.tree, query, n)
}

// Watch returns a channel that signals when the loader's source changes.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

// Loader returns the configured ActionLoader, or nil.
func (e *Engine) Loader() ports.ActionLoader {
	return e.loader
}

// Close stops the default session's shortcut timer. Sessions created with
// NewSession are stopped by their owners.
func (e *Engine) Close() {
	e.mu.Lock()
	main := e.main
	e.mu.Unlock()
	if main != nil {
		main.Stop()
	}
}
