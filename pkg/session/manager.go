package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/palette/internal/logging"
	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a session lock.
const DefaultLockTTL = 30 * time.Second

// NavigatorFactory creates a fresh navigator for a session id.
// Managers restore stored state into it before use.
type NavigatorFactory func(sessionID string) ports.Navigator

// Manager serialises access to stored palette sessions. Calls for one id are
// ordered in-process, and across replicas too when a DistributedLocker is set.
type Manager struct {
	store   ports.StateStore
	keys    *keyedMutex
	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session manager over store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		keys:    newKeyedMutex(),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns the stored state of sessionID, or ErrSessionNotFound.
func (m *Manager) Load(ctx context.Context, sessionID string) (state *domain.NavigationState, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// LoadOrStart returns the stored state, creating a closed session at the root
// when sessionID is unknown.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (state *domain.NavigationState, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err = m.loadOrStart(ctx, sessionID)
		return err
	})
	return state, err
}

// loadOrStart must run under the session lock.
func (m *Manager) loadOrStart(ctx context.Context, sessionID string) (*domain.NavigationState, error) {
	state, err := m.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		return state, nil
	case !errors.Is(err, domain.ErrSessionNotFound):
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}

	state = domain.NewNavigationState(sessionID)
	if err := m.store.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	m.logger.Debug("session started", "session_id", sessionID)
	return state, nil
}

// Save persists the session state.
func (m *Manager) Save(ctx context.Context, sessionID string, state *domain.NavigationState) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, state)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// Navigate runs fn against a navigator holding the stored state of sessionID,
// then saves the resulting state. The session is created if it does not exist.
// The state is saved even when fn fails: a failed perform still closes the palette.
func (m *Manager) Navigate(ctx context.Context, sessionID string, factory NavigatorFactory, fn func(ports.Navigator) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := m.loadOrStart(ctx, sessionID)
		if err != nil {
			return err
		}
		nav := factory(sessionID)
		nav.Restore(ctx, state)

		fnErr := fn(nav)
		if err := m.store.Save(ctx, sessionID, nav.Snapshot()); err != nil {
			return errors.Join(fnErr, fmt.Errorf("failed to save session: %w", err))
		}
		return fnErr
	})
}

// WithLock runs fn while holding the lock for sessionID.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	unlock := m.keys.lock(sessionID)
	defer unlock()

	if m.locker == nil {
		return fn(ctx)
	}
	release, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire distributed lock: %w", err)
	}
	defer func() {
		if err := release(ctx); err != nil {
			m.logger.Warn("failed to release distributed lock, it expires with its TTL",
				"session_id", sessionID, "err", err)
		}
	}()
	return fn(ctx)
}
