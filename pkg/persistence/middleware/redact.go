package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/ports"
)

type redactionMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware drops the stored query when it matches any pattern.
// The in-memory state is left untouched; a restored session comes back with an
// empty query and the first result highlighted.
func NewRedactionMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &redactionMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, sessionID string, state *domain.NavigationState) error {
	if !m.matches(state.Query) {
		return m.next.Save(ctx, sessionID, state)
	}
	redacted := state.Clone()
	redacted.Query = ""
	if redacted.Open {
		redacted.ActiveIndex = 0
	}
	return m.next.Save(ctx, sessionID, redacted)
}

func (m *redactionMiddleware) matches(query string) bool {
	if query == "" {
		return false
	}
	for _, p := range m.patterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}

func (m *redactionMiddleware) Load(ctx context.Context, sessionID string) (*domain.NavigationState, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
