package dsl

import (
	"fmt"

	"github.com/aretw0/palette/pkg/adapters/memory"
	"github.com/aretw0/palette/pkg/domain"
)

// Registrar is anything that accepts an atomic batch of actions and can resolve
// handler names, usually *palette.Engine.
type Registrar interface {
	Register(nodes ...domain.ActionNode) error
	NodesFromSpecs(specs []domain.ActionSpec) ([]domain.ActionNode, error)
}

// Builder manages the tree construction.
type Builder struct {
	order []string
	nodes map[string]*ActionBuilder
}

// New creates a new action tree builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*ActionBuilder),
	}
}

// Add creates a new root action in the tree.
// If the action already exists, it returns the existing builder.
func (b *Builder) Add(id string) *ActionBuilder {
	if ab, ok := b.nodes[id]; ok {
		return ab
	}
	ab := &ActionBuilder{
		node:    domain.ActionNode{ID: id, Name: id},
		builder: b,
	}
	b.nodes[id] = ab
	b.order = append(b.order, id)
	return ab
}

// Nodes returns the built actions with every parent ahead of its children.
// Siblings keep the order in which they were added.
func (b *Builder) Nodes() ([]domain.ActionNode, error) {
	out := make([]domain.ActionNode, 0, len(b.order))
	state := make(map[string]int, len(b.order)) // 1 visiting, 2 done

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case 1:
			return &domain.ActionError{Op: "build", ID: id, Err: domain.ErrCycle}
		case 2:
			return nil
		}
		ab := b.nodes[id]
		if ab.node.ID == "" {
			return &domain.ActionError{Op: "build", ID: id, Err: fmt.Errorf("%w: empty id", domain.ErrInvalidAction)}
		}
		state[id] = 1
		if parent := ab.node.ParentID; parent != "" {
			if _, ok := b.nodes[parent]; !ok {
				return &domain.ActionError{Op: "build", ID: id, Err: fmt.Errorf("%w %q", domain.ErrUnknownParent, parent)}
			}
			if err := visit(parent); err != nil {
				return err
			}
		}
		state[id] = 2
		out = append(out, ab.Build())
		return nil
	}

	for _, id := range b.order {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Specs returns the declarative form of the tree. Closures attached with Do are
// not representable and are dropped.
func (b *Builder) Specs() ([]domain.ActionSpec, error) {
	nodes, err := b.Nodes()
	if err != nil {
		return nil, err
	}
	specs := make([]domain.ActionSpec, len(nodes))
	for i, n := range nodes {
		specs[i] = b.nodes[n.ID].Spec()
	}
	return specs, nil
}

// Build compiles the tree into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	specs, err := b.Specs()
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return memory.NewLoader(specs...), nil
}

// Register adds the whole tree to r in one batch. Handler names set with Perform
// are resolved through r first, so an unknown handler registers nothing.
func (b *Builder) Register(r Registrar) error {
	nodes, err := b.Nodes()
	if err != nil {
		return err
	}

	var named []domain.ActionSpec
	for _, n := range nodes {
		if ab := b.nodes[n.ID]; ab.handler != "" {
			named = append(named, ab.Spec())
		}
	}
	if len(named) > 0 {
		resolved, err := r.NodesFromSpecs(named)
		if err != nil {
			return err
		}
		performs := make(map[string]domain.Perform, len(resolved))
		for _, n := range resolved {
			performs[n.ID] = n.Perform
		}
		for i := range nodes {
			if p, ok := performs[nodes[i].ID]; ok {
				nodes[i].Perform = p
			}
		}
	}
	return r.Register(nodes...)
}
