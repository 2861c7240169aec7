// Package flowtree provides structural operations on onboarding flow trees.
//
// A Tree wraps the recursive node document with a flat id index and a
// parent map, so lookups are O(1), id uniqueness is enforced at insertion
// time, and cycle-freedom holds by construction (the index is built by a
// single pre-order walk of the decoded document).
package flowtree

import (
	"fmt"

	"gottadoit/internal/domain/models/onboarding"
)

// Tree is a flow tree plus its id index. The zero value is not usable;
// construct with New. A Tree is not safe for concurrent mutation.
type Tree struct {
	root    *onboarding.Node
	index   map[string]*onboarding.Node
	parents map[string]string
	// duplicate ids found while indexing, in pre-order. The index keeps the
	// first occurrence, so reads stay first-match; Validate reports these.
	dupes []string
}

// New builds a Tree over root. Duplicate ids do not fail construction (reads
// must stay resilient to documents authored before uniqueness was enforced);
// they are reported by Validate.
func New(root *onboarding.Node) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("flow root is required")
	}
	t := &Tree{root: root}
	t.reindex()
	return t, nil
}

// Root returns the root node. The root always exists and has no parent.
func (t *Tree) Root() *onboarding.Node { return t.root }

// reindex rebuilds the id index and parent map with a pre-order walk.
func (t *Tree) reindex() {
	t.index = make(map[string]*onboarding.Node)
	t.parents = make(map[string]string)
	t.dupes = t.dupes[:0]
	var walk func(n *onboarding.Node, parentID string)
	walk = func(n *onboarding.Node, parentID string) {
		if n == nil {
			return
		}
		if _, seen := t.index[n.ID]; seen {
			t.dupes = append(t.dupes, n.ID)
		} else {
			t.index[n.ID] = n
			if parentID != "" {
				t.parents[n.ID] = parentID
			}
		}
		for _, c := range n.Children {
			walk(c, n.ID)
		}
	}
	walk(t.root, "")
}

// FindByID returns the node with the given id, or nil if absent. With
// duplicate ids the first pre-order occurrence wins.
func (t *Tree) FindByID(id string) *onboarding.Node {
	if id == "" {
		return nil
	}
	return t.index[id]
}

// Parent returns the parent of the node with the given id, or nil for the
// root and for unknown ids.
func (t *Tree) Parent(id string) *onboarding.Node {
	pid, ok := t.parents[id]
	if !ok {
		return nil
	}
	return t.index[pid]
}

// UpdateByID applies mutate to the node with the given id and its parent
// (parent is nil for the root). Returns whether a node was found. The index
// is rebuilt afterwards, so the mutator may restructure children.
func (t *Tree) UpdateByID(id string, mutate func(n, parent *onboarding.Node)) bool {
	n := t.FindByID(id)
	if n == nil {
		return false
	}
	mutate(n, t.Parent(id))
	t.reindex()
	return true
}

// RemoveByID removes the node with the given id (and its whole subtree) from
// its parent's children. The root cannot be removed. Returns whether removal
// occurred.
func (t *Tree) RemoveByID(id string) bool {
	if id == t.root.ID {
		return false
	}
	parent := t.Parent(id)
	if parent == nil {
		return false
	}
	for i, c := range parent.Children {
		if c.ID == id {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			t.reindex()
			return true
		}
	}
	return false
}

// InsertChild appends n to the end of parentID's children. A missing parent
// is a no-op (false, nil). Ids anywhere in n that collide with the tree are
// rejected before any mutation.
func (t *Tree) InsertChild(parentID string, n *onboarding.Node) (bool, error) {
	parent := t.FindByID(parentID)
	if parent == nil {
		return false, nil
	}
	if err := t.checkNewIDs(n); err != nil {
		return false, err
	}
	parent.Children = append(parent.Children, n)
	t.reindex()
	return true, nil
}

// InsertSibling appends n as a new last child of the parent of afterNodeID.
// The reference node must have a parent, so this is a no-op on the root.
func (t *Tree) InsertSibling(afterNodeID string, n *onboarding.Node) (bool, error) {
	parent := t.Parent(afterNodeID)
	if parent == nil {
		return false, nil
	}
	return t.InsertChild(parent.ID, n)
}

// checkNewIDs verifies no id in the subtree rooted at n exists in the tree
// or repeats within the subtree itself.
func (t *Tree) checkNewIDs(n *onboarding.Node) error {
	seen := map[string]struct{}{}
	var walk func(n *onboarding.Node) error
	walk = func(n *onboarding.Node) error {
		if n == nil {
			return nil
		}
		if n.ID == "" {
			return fmt.Errorf("node id is required")
		}
		if _, ok := t.index[n.ID]; ok {
			return fmt.Errorf("node id %q already exists in tree", n.ID)
		}
		if _, ok := seen[n.ID]; ok {
			return fmt.Errorf("duplicate node id %q in inserted subtree", n.ID)
		}
		seen[n.ID] = struct{}{}
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(n)
}

// Clone returns a deep, structure-preserving copy sharing no mutable state
// with t. Editors clone before every mutation so in-flight reads of the
// previous snapshot remain valid.
func (t *Tree) Clone() *Tree {
	clone := &Tree{root: CloneNode(t.root)}
	clone.reindex()
	return clone
}

// CloneNode deep-copies a node subtree.
func CloneNode(n *onboarding.Node) *onboarding.Node {
	if n == nil {
		return nil
	}
	out := &onboarding.Node{
		ID:      n.ID,
		Title:   n.Title,
		Type:    n.Type,
		Content: n.Content,
	}
	if n.Static != nil {
		out.Static = append([]byte(nil), n.Static...)
	}
	if n.Actions != nil {
		out.Actions = make([]onboarding.ActionDef, len(n.Actions))
		for i, a := range n.Actions {
			out.Actions[i] = a
			if a.Headers != nil {
				h := make(map[string]string, len(a.Headers))
				for k, v := range a.Headers {
					h[k] = v
				}
				out.Actions[i].Headers = h
			}
		}
	}
	if n.Buttons != nil {
		out.Buttons = append([]onboarding.ButtonDef(nil), n.Buttons...)
	}
	if n.Children != nil {
		out.Children = make([]*onboarding.Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = CloneNode(c)
		}
	}
	return out
}

// Validate checks the structural invariants an authored tree must satisfy
// before publish: unique ids, non-empty ids, and closed node/action type
// sets. Returns the first violation found.
func (t *Tree) Validate() error {
	if len(t.dupes) > 0 {
		return fmt.Errorf("duplicate node id %q", t.dupes[0])
	}
	var walk func(n *onboarding.Node) error
	walk = func(n *onboarding.Node) error {
		if n.ID == "" {
			return fmt.Errorf("node id is required")
		}
		if !onboarding.IsValidNodeType(n.Type) {
			return fmt.Errorf("node %q: unknown type %q", n.ID, n.Type)
		}
		actionIDs := map[string]struct{}{}
		for _, a := range n.Actions {
			if a.ID == "" {
				return fmt.Errorf("node %q: action id is required", n.ID)
			}
			if _, ok := actionIDs[a.ID]; ok {
				return fmt.Errorf("node %q: duplicate action id %q", n.ID, a.ID)
			}
			actionIDs[a.ID] = struct{}{}
			if !onboarding.IsValidActionType(a.Type) {
				return fmt.Errorf("node %q: action %q: unknown type %q", n.ID, a.ID, a.Type)
			}
		}
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(t.root)
}
