// Package tree implements the action tree: the registry of palette actions and their
// parent/child relations.
//
// A Tree is safe for concurrent use. Every mutation either applies completely or
// not at all, and bumps Version so that dependent indexes know when to rebuild.
package tree

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/palette/pkg/domain"
)

type entry struct {
	node domain.ActionNode
	seq  uint64
}

// Tree owns every registered ActionNode.
type Tree struct {
	mu      sync.RWMutex
	nodes   map[string]*entry
	roots   []string
	seq     uint64
	version uint64

	logger     *slog.Logger
	onConflict func(domain.ShortcutConflict)
	reported   map[string]struct{}
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger used for conflict warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithConflictHandler registers a callback for newly detected shortcut conflicts.
// It is invoked after the mutation that caused the conflict, outside the tree lock.
func WithConflictHandler(fn func(domain.ShortcutConflict)) Option {
	return func(t *Tree) {
		t.onConflict = fn
	}
}

// New creates an empty tree.
func New(opts ...Option) *Tree {
	t := &Tree{
		nodes:    make(map[string]*entry),
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		reported: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register adds a single node. The parent is taken from node.ParentID.
func (t *Tree) Register(node domain.ActionNode) error {
	return t.RegisterAll(node)
}

// RegisterAll adds nodes in order as one atomic batch.
// A node may name as parent a node that appears earlier in the same batch.
// If any node is rejected, nothing is registered.
func (t *Tree) RegisterAll(nodes ...domain.ActionNode) error {
	prepared := make([]domain.ActionNode, 0, len(nodes))
	for _, n := range nodes {
		p, err := prepare(n, "register")
		if err != nil {
			return err
		}
		prepared = append(prepared, p)
	}

	t.mu.Lock()
	pending := make(map[string]struct{}, len(prepared))
	for _, n := range prepared {
		if _, exists := t.nodes[n.ID]; exists {
			t.mu.Unlock()
			return &domain.ActionError{Op: "register", ID: n.ID, Err: domain.ErrDuplicateActionID}
		}
		if _, exists := pending[n.ID]; exists {
			t.mu.Unlock()
			return &domain.ActionError{Op: "register", ID: n.ID, Err: domain.ErrDuplicateActionID}
		}
		if n.ParentID != "" {
			_, inTree := t.nodes[n.ParentID]
			_, inBatch := pending[n.ParentID]
			if !inTree && !inBatch {
				t.mu.Unlock()
				return &domain.ActionError{Op: "register", ID: n.ID, Err: fmt.Errorf("%w %q", domain.ErrUnknownParent, n.ParentID)}
			}
		}
		pending[n.ID] = struct{}{}
	}

	touched := false
	for _, n := range prepared {
		t.insertLocked(n)
		touched = touched || len(n.Shortcut) > 0
	}
	if len(prepared) > 0 {
		t.version++
	}
	conflicts := t.newConflictsLocked(touched)
	t.mu.Unlock()

	t.report(conflicts)
	return nil
}

// Update merges patch into the node's content fields.
func (t *Tree) Update(id string, patch domain.ActionPatch) error {
	if patch.Shortcut != nil {
		keys, err := domain.NormalizeShortcut(*patch.Shortcut)
		if err != nil {
			return &domain.ActionError{Op: "update", ID: id, Err: err}
		}
		patch.Shortcut = &keys
	}

	t.mu.Lock()
	e, ok := t.nodes[id]
	if !ok {
		t.mu.Unlock()
		return &domain.ActionError{Op: "update", ID: id, Err: domain.ErrActionNotFound}
	}
	patch.Apply(&e.node)
	t.version++
	conflicts := t.newConflictsLocked(patch.TouchesShortcut())
	t.mu.Unlock()

	t.report(conflicts)
	return nil
}

// Upsert registers node if its id is unknown; otherwise it overwrites the content
// fields and, when ParentID differs, reparents it. Existing children are kept.
func (t *Tree) Upsert(node domain.ActionNode) (created bool, err error) {
	prepared, err := prepare(node, "upsert")
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	e, exists := t.nodes[prepared.ID]
	if !exists {
		t.mu.Unlock()
		return true, t.Register(prepared)
	}

	if e.node.ParentID != prepared.ParentID {
		if err := t.checkReparentLocked(prepared.ID, prepared.ParentID); err != nil {
			t.mu.Unlock()
			return false, &domain.ActionError{Op: "upsert", ID: prepared.ID, Err: err}
		}
		t.moveLocked(e, prepared.ParentID)
	}
	domain.PatchFrom(prepared).Apply(&e.node)
	t.version++
	conflicts := t.newConflictsLocked(true)
	t.mu.Unlock()

	t.report(conflicts)
	return false, nil
}

// Reparent moves id under newParentID ("" for root).
func (t *Tree) Reparent(id, newParentID string) error {
	t.mu.Lock()
	e, ok := t.nodes[id]
	if !ok {
		t.mu.Unlock()
		return &domain.ActionError{Op: "reparent", ID: id, Err: domain.ErrActionNotFound}
	}
	if e.node.ParentID == newParentID {
		t.mu.Unlock()
		return nil
	}
	if err := t.checkReparentLocked(id, newParentID); err != nil {
		t.mu.Unlock()
		return &domain.ActionError{Op: "reparent", ID: id, Err: err}
	}
	t.moveLocked(e, newParentID)
	t.version++
	t.mu.Unlock()
	return nil
}

// Deregister removes id and all its descendants. It returns the removed ids,
// parents before children.
func (t *Tree) Deregister(id string) ([]string, error) {
	t.mu.Lock()
	e, ok := t.nodes[id]
	if !ok {
		t.mu.Unlock()
		return nil, &domain.ActionError{Op: "deregister", ID: id, Err: domain.ErrActionNotFound}
	}

	removed := t.subtreeLocked(id)
	t.detachLocked(e.node.ParentID, id)
	for _, rid := range removed {
		delete(t.nodes, rid)
	}
	t.version++
	// Removal can only resolve conflicts; refresh the reported set quietly.
	t.newConflictsLocked(true)
	t.mu.Unlock()

	return removed, nil
}

// Get returns a copy of the node with the given id.
func (t *Tree) Get(id string) (domain.ActionNode, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.nodes[id]
	if !ok {
		return domain.ActionNode{}, false
	}
	return e.node.Clone(), true
}

// Has reports whether id is registered.
func (t *Tree) Has(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.nodes[id]
	return ok
}

// Len returns the number of registered nodes.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Version is a counter bumped by every successful mutation.
func (t *Tree) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Ancestors returns the ancestors of id ordered from the root down to its parent.
func (t *Tree) Ancestors(id string) ([]domain.ActionNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.nodes[id]
	if !ok {
		return nil, &domain.ActionError{Op: "ancestors", ID: id, Err: domain.ErrActionNotFound}
	}

	var chain []domain.ActionNode
	parent := e.node.ParentID
	for parent != "" {
		if len(chain) >= len(t.nodes) {
			return nil, &domain.ActionError{Op: "ancestors", ID: id, Err: domain.ErrCycle}
		}
		pe, ok := t.nodes[parent]
		if !ok {
			return nil, &domain.ActionError{Op: "ancestors", ID: id, Err: fmt.Errorf("%w %q", domain.ErrUnknownParent, parent)}
		}
		chain = append(chain, pe.node.Clone())
		parent = pe.node.ParentID
	}
	slices.Reverse(chain)
	return chain, nil
}

// Depth is the number of ancestors of id. Roots have depth 0.
func (t *Tree) Depth(id string) (int, error) {
	chain, err := t.Ancestors(id)
	if err != nil {
		return 0, err
	}
	return len(chain), nil
}

// Children returns the direct children of id in display order.
func (t *Tree) Children(id string) ([]domain.ActionNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.nodes[id]
	if !ok {
		return nil, &domain.ActionError{Op: "children", ID: id, Err: domain.ErrActionNotFound}
	}
	return t.collectLocked(e.node.ChildrenIDs), nil
}

// Roots returns the root nodes in display order.
func (t *Tree) Roots() []domain.ActionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.collectLocked(t.roots)
}

// All walks the tree depth-first in display order.
// Each iteration re-reads current state, so mutations between yields are visible
// and never corrupt the walk; removed nodes are skipped.
func (t *Tree) All() iter.Seq[domain.ActionNode] {
	return func(yield func(domain.ActionNode) bool) {
		stack := idsOf(t.Roots())
		slices.Reverse(stack)

		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			t.mu.RLock()
			e, ok := t.nodes[id]
			var node domain.ActionNode
			var children []string
			if ok {
				node = e.node.Clone()
				children = idsOf(t.collectLocked(e.node.ChildrenIDs))
			}
			t.mu.RUnlock()
			if !ok {
				continue
			}

			if !yield(node) {
				return
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
}

// Nodes returns every node in registration order.
func (t *Tree) Nodes() []domain.ActionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byRegistrationLocked()
}

// Bindings returns every shortcut binding in registration order.
func (t *Tree) Bindings() []domain.Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bindingsLocked()
}

// Conflicts returns every shortcut conflict currently present in the tree.
func (t *Tree) Conflicts() []domain.ShortcutConflict {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return detectConflicts(t.bindingsLocked())
}

func prepare(n domain.ActionNode, op string) (domain.ActionNode, error) {
	if n.ID == "" {
		return n, &domain.ActionError{Op: op, ID: n.ID, Err: fmt.Errorf("%w: empty id", domain.ErrInvalidAction)}
	}
	if n.ParentID == n.ID {
		return n, &domain.ActionError{Op: op, ID: n.ID, Err: domain.ErrCycle}
	}
	keys, err := domain.NormalizeShortcut(n.Shortcut)
	if err != nil {
		return n, &domain.ActionError{Op: op, ID: n.ID, Err: err}
	}
	c := n.Clone()
	c.Shortcut = keys
	c.ChildrenIDs = nil
	return c, nil
}

func (t *Tree) insertLocked(n domain.ActionNode) {
	t.seq++
	t.nodes[n.ID] = &entry{node: n, seq: t.seq}
	if n.ParentID == "" {
		t.roots = append(t.roots, n.ID)
		return
	}
	p := t.nodes[n.ParentID]
	p.node.ChildrenIDs = append(p.node.ChildrenIDs, n.ID)
}

func (t *Tree) checkReparentLocked(id, newParentID string) error {
	if newParentID == "" {
		return nil
	}
	if _, ok := t.nodes[newParentID]; !ok {
		return fmt.Errorf("%w %q", domain.ErrUnknownParent, newParentID)
	}
	if slices.Contains(t.subtreeLocked(id), newParentID) {
		return domain.ErrCycle
	}
	return nil
}

// moveLocked detaches e from its parent and appends it to newParentID's children.
func (t *Tree) moveLocked(e *entry, newParentID string) {
	t.detachLocked(e.node.ParentID, e.node.ID)
	e.node.ParentID = newParentID
	if newParentID == "" {
		t.roots = append(t.roots, e.node.ID)
		return
	}
	p := t.nodes[newParentID]
	p.node.ChildrenIDs = append(p.node.ChildrenIDs, e.node.ID)
}

func (t *Tree) detachLocked(parentID, id string) {
	if parentID == "" {
		t.roots = slices.DeleteFunc(t.roots, func(s string) bool { return s == id })
		return
	}
	if p, ok := t.nodes[parentID]; ok {
		p.node.ChildrenIDs = slices.DeleteFunc(p.node.ChildrenIDs, func(s string) bool { return s == id })
	}
}

// subtreeLocked returns id and its descendants in pre-order.
func (t *Tree) subtreeLocked(id string) []string {
	var out []string
	seen := make(map[string]struct{})
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, dup := seen[cur]; dup {
			continue
		}
		seen[cur] = struct{}{}
		out = append(out, cur)
		if e, ok := t.nodes[cur]; ok {
			for i := len(e.node.ChildrenIDs) - 1; i >= 0; i-- {
				stack = append(stack, e.node.ChildrenIDs[i])
			}
		}
	}
	return out
}

// collectLocked resolves ids and sorts them: explicit Order ascending first,
// then the rest in their stored (registration) order.
func (t *Tree) collectLocked(ids []string) []domain.ActionNode {
	out := make([]domain.ActionNode, 0, len(ids))
	for _, id := range ids {
		if e, ok := t.nodes[id]; ok {
			out = append(out, e.node.Clone())
		}
	}
	slices.SortStableFunc(out, compareOrder)
	return out
}

func compareOrder(a, b domain.ActionNode) int {
	switch {
	case a.Order != nil && b.Order != nil:
		return *a.Order - *b.Order
	case a.Order != nil:
		return -1
	case b.Order != nil:
		return 1
	default:
		return 0
	}
}

func (t *Tree) byRegistrationLocked() []domain.ActionNode {
	entries := make([]*entry, 0, len(t.nodes))
	for _, e := range t.nodes {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	out := make([]domain.ActionNode, len(entries))
	for i, e := range entries {
		out[i] = e.node.Clone()
	}
	return out
}

func (t *Tree) bindingsLocked() []domain.Binding {
	var out []domain.Binding
	for _, n := range t.byRegistrationLocked() {
		if len(n.Shortcut) > 0 {
			out = append(out, domain.Binding{ActionID: n.ID, Keys: n.Shortcut})
		}
	}
	return out
}

// newConflictsLocked recomputes conflicts and returns the ones not reported before.
func (t *Tree) newConflictsLocked(touched bool) []domain.ShortcutConflict {
	if !touched {
		return nil
	}
	current := detectConflicts(t.bindingsLocked())
	next := make(map[string]struct{}, len(current))
	var fresh []domain.ShortcutConflict
	for _, c := range current {
		k := conflictKey(c)
		next[k] = struct{}{}
		if _, seen := t.reported[k]; !seen {
			fresh = append(fresh, c)
		}
	}
	t.reported = next
	return fresh
}

func (t *Tree) report(conflicts []domain.ShortcutConflict) {
	for _, c := range conflicts {
		t.logger.Warn("shortcut conflict",
			"kind", c.Kind,
			"keys", c.Keys,
			"winner", c.Winner,
			"shadowed", c.Shadowed,
		)
		if t.onConflict != nil {
			t.onConflict(c)
		}
	}
}

func idsOf(nodes []domain.ActionNode) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
