package palette

import (
	"github.com/aretw0/palette/internal/runtime"
	"github.com/aretw0/palette/pkg/ports"
	"github.com/aretw0/palette/pkg/shortcut"
)

var _ ports.Navigator = (*Session)(nil)

// Session is one palette view over the engine's shared tree: its own scope stack,
// query, selection and shortcut state. A Session is safe for concurrent use.
type Session struct {
	*runtime.Controller
	matcher *shortcut.Matcher
	id      string
}

// ID returns the session id ("" for the default session).
func (s *Session) ID() string { return s.id }

// Matcher exposes the session's shortcut matcher.
func (s *Session) Matcher() *shortcut.Matcher { return s.matcher }

// Stop cancels a pending shortcut sequence and its timer. The session stays usable.
func (s *Session) Stop() {
	s.matcher.Close()
}

// NewSession creates an independent session sharing the engine's tree.
func (e *Engine) NewSession(id string) *Session {
	opts := []shortcut.Option{
		shortcut.WithTimeout(e.timeout),
		shortcut.WithLogger(e.logger),
	}
	if e.clock != nil {
		opts = append(opts, shortcut.WithClock(e.clock))
	}
	if e.focusGuard != nil {
		opts = append(opts, shortcut.WithFocusGuard(e.focusGuard))
	}
	m := shortcut.New(e.tree, opts...)

	logger := e.logger
	if id != "" {
		logger = logger.With("session_id", id)
	}
	c := runtime.NewController(e.tree, m,
		runtime.WithHooks(e.hooks),
		runtime.WithLogger(logger),
		runtime.WithSearchLimit(e.limit),
		runtime.WithSessionID(id),
	)
	return &Session{Controller: c, matcher: m, id: id}
}

// Session returns the engine's default session, creating it on first use.
// Single-user hosts (line runner, TUI) drive the palette through it.
func (e *Engine) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.main == nil {
		e.main = e.NewSession("")
	}
	return e.main
}
