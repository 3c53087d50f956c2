package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/palette/pkg/adapters/memory"
	"github.com/aretw0/palette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LocksAreReleased(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sid := fmt.Sprintf("session-%d", i%5)
			_ = mgr.Save(ctx, sid, domain.NewNavigationState(sid))
			_ = mgr.Delete(ctx, sid)
		}()
	}
	wg.Wait()

	assert.Zero(t, mgr.keys.len(), "no lock entry should outlive its callers")
}

func TestKeyedMutex_SerialisesOneID(t *testing.T) {
	k := newKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.lock("same")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 100, counter)
	assert.Zero(t, k.len())
}
