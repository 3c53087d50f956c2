package session

import "sync"

// keyedMutex hands out one mutex per session id. Entries are reference counted
// and dropped once nobody holds or waits on them, so ids never accumulate.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[string]*refMutex)}
}

// lock blocks until id is held and returns its unlock func.
func (k *keyedMutex) lock(id string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		e = &refMutex{}
		k.entries[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		k.mu.Lock()
		if e.refs--; e.refs == 0 {
			delete(k.entries, id)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
