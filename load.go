package palette

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/google/uuid"
)

// ErrNoLoader is returned by Load when the engine has no ActionLoader.
var ErrNoLoader = errors.New("no action loader configured")

// Load reads every spec from the configured loader and reconciles the tree with it.
//
// The first load registers all specs atomically. Later loads upsert each spec and
// deregister actions a previous load created that the source no longer lists.
// Actions registered through the Go API survive a reload unless they sit under a
// loaded action the reload removes; deregistration takes the whole subtree.
func (e *Engine) Load(ctx context.Context) error {
	if e.loader == nil {
		return ErrNoLoader
	}
	specs, err := e.loader.LoadActions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load actions: %w", err)
	}
	nodes, err := e.NodesFromSpecs(specs)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}

	if len(e.loaded) == 0 {
		if err := e.tree.RegisterAll(nodes...); err != nil {
			return err
		}
		e.loaded = ids
		e.logger.Info("actions loaded", "count", len(nodes))
		return nil
	}

	for _, n := range nodes {
		if _, err := e.tree.Upsert(n); err != nil {
			return err
		}
	}
	removed := 0
	for _, id := range e.loaded {
		if slices.Contains(ids, id) || !e.tree.Has(id) {
			continue
		}
		gone, err := e.tree.Deregister(id)
		if err != nil && !errors.Is(err, domain.ErrActionNotFound) {
			return err
		}
		removed += len(gone)
	}
	e.loaded = ids
	e.logger.Info("actions reloaded", "count", len(nodes), "removed", removed)
	return nil
}

// NodesFromSpecs converts specs to nodes, generating missing ids and resolving
// perform handler names through the registry.
func (e *Engine) NodesFromSpecs(specs []domain.ActionSpec) ([]domain.ActionNode, error) {
	nodes := make([]domain.ActionNode, 0, len(specs))
	for _, s := range specs {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		perform, err := e.registry.Resolve(s.Perform, s.Args)
		if err != nil {
			return nil, &domain.ActionError{Op: "load", ID: s.ID, Err: err}
		}
		n := s.Node()
		n.Perform = perform
		nodes = append(nodes, n)
	}
	return nodes, nil
}
