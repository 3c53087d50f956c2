package ports

import (
	"context"

	"github.com/aretw0/palette/pkg/domain"
)

// ActionLoader defines how the engine retrieves action definitions.
// This allows the source (files, memory, remote config) to be decoupled.
type ActionLoader interface {
	// LoadActions returns every action spec, parents before children.
	LoadActions(ctx context.Context) ([]domain.ActionSpec, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying definitions change.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
