package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/palette/pkg/domain"
)

// Loader implements ports.ActionLoader over a fixed list of specs.
// Specs are returned in the order given, so callers list parents first.
type Loader struct {
	mu    sync.RWMutex
	specs []domain.ActionSpec
}

// NewLoader creates a Loader serving specs.
func NewLoader(specs ...domain.ActionSpec) *Loader {
	l := &Loader{}
	l.Set(specs...)
	return l
}

// NewFromNodes creates a Loader from nodes. Perform callbacks are dropped;
// the resulting specs load as groups unless a handler name is set afterwards.
func NewFromNodes(nodes ...domain.ActionNode) *Loader {
	specs := make([]domain.ActionSpec, len(nodes))
	for i, n := range nodes {
		specs[i] = domain.SpecOf(n)
	}
	return NewLoader(specs...)
}

// Set replaces the served specs, e.g. to simulate an edited source in tests.
func (l *Loader) Set(specs ...domain.ActionSpec) {
	cp := make([]domain.ActionSpec, len(specs))
	for i, s := range specs {
		cp[i] = cloneSpec(s)
	}
	l.mu.Lock()
	l.specs = cp
	l.mu.Unlock()
}

// LoadActions returns a copy of the specs.
func (l *Loader) LoadActions(ctx context.Context) ([]domain.ActionSpec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.ActionSpec, len(l.specs))
	for i, s := range l.specs {
		out[i] = cloneSpec(s)
	}
	return out, nil
}

func cloneSpec(s domain.ActionSpec) domain.ActionSpec {
	s.Shortcut = slices.Clone(s.Shortcut)
	if s.Order != nil {
		o := *s.Order
		s.Order = &o
	}
	if s.Args != nil {
		args := make(map[string]any, len(s.Args))
		for k, v := range s.Args {
			args[k] = v
		}
		s.Args = args
	}
	return s
}
