// Package middleware wraps session stores to change what reaches the backend.
// The only free text in a NavigationState is the query, so both middlewares here
// act on it: one seals it with AES-GCM, the other drops queries matching patterns.
package middleware

import "github.com/aretw0/palette/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain applies mws to store so that the first middleware sees calls first.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
