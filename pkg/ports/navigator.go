package ports

import (
	"context"

	"github.com/aretw0/palette/pkg/domain"
)

// Navigator is one palette session as driven by a transport adapter.
type Navigator interface {
	State() domain.NavigationState
	Visible(ctx context.Context) []domain.Result

	Open(ctx context.Context, scopeID string) error
	Close(ctx context.Context)
	SetQuery(ctx context.Context, text string)
	MoveActive(ctx context.Context, delta int)
	DrillInto(ctx context.Context, id string) error
	Back(ctx context.Context) (closed bool)
	Commit(ctx context.Context) (domain.Outcome, error)
	Perform(ctx context.Context, id string) (domain.Outcome, error)
	HandleKey(ctx context.Context, ev domain.KeyEvent) (domain.Outcome, error)

	Snapshot() *domain.NavigationState
	Restore(ctx context.Context, s *domain.NavigationState)
}
