// Package shortcut recognises ordered key-chord sequences bound to palette actions.
package shortcut

import (
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/palette/pkg/domain"
)

// DefaultTimeout is the maximum gap between two keys of one sequence.
const DefaultTimeout = 400 * time.Millisecond

// BindingSource supplies bindings and a version that changes whenever they may have.
type BindingSource interface {
	Version() uint64
	Bindings() []domain.Binding
}

// State of the matcher.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Match is a completed shortcut.
type Match struct {
	ActionID string
	Keys     []string
}

// Matcher is the Idle/Pending state machine over key events.
// It is safe for concurrent use.
type Matcher struct {
	mu sync.Mutex

	src        BindingSource
	clock      Clock
	timeout    time.Duration
	focusGuard func() bool
	logger     *slog.Logger

	indexed  bool
	version  uint64
	exact    map[string]string
	prefixes map[string]struct{}

	pending []string
	lastAt  time.Time
	timer   Timer
	armed   uint64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Matcher) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithClock injects the clock used for timestamps and the reset timer.
func WithClock(c Clock) Option {
	return func(m *Matcher) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithFocusGuard installs a predicate that, when true, makes the matcher ignore keys.
// Hosts use it to keep typing in text inputs from triggering shortcuts.
func WithFocusGuard(fn func() bool) Option {
	return func(m *Matcher) {
		m.focusGuard = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a matcher reading bindings from src.
func New(src BindingSource, opts ...Option) *Matcher {
	m := &Matcher{
		src:     src,
		clock:   SystemClock(),
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Timeout returns the configured chord window.
func (m *Matcher) Timeout() time.Duration { return m.timeout }

// Feed processes one key event and reports a completed match, if any.
func (m *Matcher) Feed(ev domain.KeyEvent) (Match, bool) {
	if m.focusGuard != nil && m.focusGuard() {
		return Match{}, false
	}
	if ev.IsModifierOnly() {
		return Match{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tok := ev.Token()
	if tok == "" {
		m.resetLocked()
		return Match{}, false
	}
	now := ev.Time
	if now.IsZero() {
		now = m.clock.Now()
	}

	m.reindexLocked()

	if len(m.pending) > 0 {
		if now.Sub(m.lastAt) > m.timeout {
			m.logger.Debug("shortcut sequence expired", "pending", m.pending)
			m.resetLocked()
		} else {
			seq := append(slices.Clone(m.pending), tok)
			if match, ok := m.stepLocked(seq, now); ok {
				return match, true
			}
			if len(m.pending) > 0 {
				return Match{}, false
			}
			// Dead end: evaluate this key as a fresh first key.
		}
	}

	return m.stepLocked([]string{tok}, now)
}

// stepLocked advances to seq: an exact binding matches, a strict prefix waits,
// anything else returns to Idle.
func (m *Matcher) stepLocked(seq []string, now time.Time) (Match, bool) {
	key := strings.Join(seq, " ")
	if id, ok := m.exact[key]; ok {
		m.resetLocked()
		m.logger.Debug("shortcut matched", "action_id", id, "keys", seq)
		return Match{ActionID: id, Keys: seq}, true
	}
	if _, ok := m.prefixes[key]; ok {
		m.pending = seq
		m.lastAt = now
		m.armLocked()
		return Match{}, false
	}
	m.resetLocked()
	return Match{}, false
}

// State reports Idle or Pending.
func (m *Matcher) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) > 0 {
		return Pending
	}
	return Idle
}

// PendingKeys returns the keys of the sequence in progress.
func (m *Matcher) PendingKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.pending)
}

// Reset drops any sequence in progress.
func (m *Matcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// Close stops the reset timer. The matcher stays usable.
func (m *Matcher) Close() {
	m.Reset()
}

func (m *Matcher) resetLocked() {
	m.pending = nil
	m.lastAt = time.Time{}
	m.stopTimerLocked()
}

func (m *Matcher) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.armed++
}

func (m *Matcher) armLocked() {
	m.stopTimerLocked()
	gen := m.armed
	m.timer = m.clock.AfterFunc(m.timeout, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.armed != gen {
			return
		}
		m.logger.Debug("shortcut sequence timed out", "pending", m.pending)
		m.pending = nil
		m.lastAt = time.Time{}
		m.timer = nil
	})
}

func (m *Matcher) reindexLocked() {
	if m.src == nil {
		return
	}
	v := m.src.Version()
	if m.indexed && v == m.version {
		return
	}
	exact := make(map[string]string)
	prefixes := make(map[string]struct{})
	for _, b := range m.src.Bindings() {
		if len(b.Keys) == 0 {
			continue
		}
		// Later registrations overwrite earlier ones.
		exact[strings.Join(b.Keys, " ")] = b.ActionID
		for i := 1; i < len(b.Keys); i++ {
			prefixes[strings.Join(b.Keys[:i], " ")] = struct{}{}
		}
	}
	m.exact = exact
	m.prefixes = prefixes
	m.version = v
	m.indexed = true
	m.logger.Debug("shortcut index rebuilt", "version", v, "bindings", len(exact))
}
