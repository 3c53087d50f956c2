package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/palette"
	"github.com/aretw0/palette/pkg/adapters/memory"
	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/ports"
	"github.com/aretw0/palette/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.NavigationState
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state *domain.NavigationState) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.NavigationState)
	}
	s.data[sessionID] = state.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.NavigationState, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[sessionID]; ok {
		return state.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, state)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, state.SessionID)
	assert.False(t, state.Open)
	assert.Equal(t, -1, state.ActiveIndex)
}

func newEngine(t *testing.T) *palette.Engine {
	t.Helper()
	eng := palette.New()
	require.NoError(t, eng.Register(
		domain.ActionNode{ID: "settings", Name: "Settings"},
		domain.ActionNode{ID: "advanced", Name: "Settings Advanced", ParentID: "settings"},
		domain.ActionNode{ID: "home", Name: "Home"},
	))
	return eng
}

func factoryFor(eng *palette.Engine) session.NavigatorFactory {
	return func(id string) ports.Navigator {
		return eng.NewSession(id)
	}
}

func TestManager_NavigatePersistsState(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	mgr := session.NewManager(memory.NewStore())

	err := mgr.Navigate(ctx, "s1", factoryFor(eng), func(nav ports.Navigator) error {
		return nav.DrillInto(ctx, "settings")
	})
	require.NoError(t, err)

	var visible []domain.Result
	err = mgr.Navigate(ctx, "s1", factoryFor(eng), func(nav ports.Navigator) error {
		visible = nav.Visible(ctx)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "advanced", visible[0].Node.ID)

	state, err := mgr.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "settings", state.CurrentRootID)
	assert.True(t, state.Open)
}

func TestManager_NavigateSavesOnError(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	mgr := session.NewManager(memory.NewStore())
	boom := errors.New("boom")

	err := mgr.Navigate(ctx, "s2", factoryFor(eng), func(nav ports.Navigator) error {
		require.NoError(t, nav.Open(ctx, ""))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := mgr.Load(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, state.Open)
}

type countingLocker struct {
	mu    sync.Mutex
	locks int
	held  bool
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, errors.New("already held")
	}
	l.held = true
	l.locks++
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()
	locker := &countingLocker{}
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))

	require.NoError(t, mgr.Save(ctx, "a", domain.NewNavigationState("a")))
	_, err := mgr.Load(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, mgr.Delete(ctx, "a"))

	assert.Equal(t, 3, locker.locks)
	assert.False(t, locker.held)
}
