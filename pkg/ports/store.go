package ports

import (
	"context"

	"github.com/aretw0/palette/pkg/domain"
)

// StateStore defines the interface for persisting palette sessions.
// Only navigation state is stored; actions are always resolved against the live tree.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.NavigationState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.NavigationState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
