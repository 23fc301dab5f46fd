package domain

import (
	"sort"

	"github.com/taintgraph/droidtaint/internal/path"
)

// TaintTree is an abstract tree indexed by Path whose node values are
// Taint (spec.md §3). "Reading down a path yields the union of all
// prefixes' taint (a tree subsumes its prefix)" — every ancestor's taint
// flows into every descendant's read.
type TaintTree struct {
	value    Taint
	children map[path.PathElement]*TaintTree
}

func NewTaintTree() *TaintTree { return &TaintTree{value: BottomTaint} }

func (t *TaintTree) IsBottom() bool {
	if t == nil {
		return true
	}
	if !t.value.IsBottom() {
		return false
	}
	for _, c := range t.children {
		if !c.IsBottom() {
			return false
		}
	}
	return true
}

// WriteKind distinguishes Weak (join at the node) from Strong (replace
// the subtree) writes, spec.md §4.1.
type WriteKind int

const (
	Weak WriteKind = iota
	Strong
)

// Write records taint at p. A Weak write joins into the existing node; a
// Strong write discards whatever subtree previously lived at p.
func (t *TaintTree) Write(p path.Path, taint Taint, kind WriteKind) *TaintTree {
	if t == nil {
		t = NewTaintTree()
	}
	out := t.cloneShallow()
	if p.IsEmpty() {
		if kind == Strong {
			out.value = taint
			out.children = nil
		} else {
			out.value = out.value.Join(taint)
		}
		return out
	}
	els := p.Elements()
	head, rest := els[0], path.Of(els[1:]...)
	if out.children == nil {
		out.children = make(map[path.PathElement]*TaintTree)
	}
	child := out.children[head]
	out.children[head] = child.Write(rest, taint, kind)
	return out
}

func (t *TaintTree) cloneShallow() *TaintTree {
	out := &TaintTree{value: t.value}
	if len(t.children) > 0 {
		out.children = make(map[path.PathElement]*TaintTree, len(t.children))
		for k, v := range t.children {
			out.children[k] = v
		}
	}
	return out
}

// Read returns the taint visible at p, folding propagate across every
// step taken down the tree (spec.md §3: "folds propagate_fn across path
// steps, used to append output paths when reading down into backward
// taint"). propagate receives the accumulated taint so far and the
// PathElement about to be descended through, and returns the taint to
// carry past that element.
func (t *TaintTree) Read(p path.Path, propagate func(Taint, path.PathElement) Taint) Taint {
	if t == nil {
		return BottomTaint
	}
	acc := t.value
	cur := t
	for _, el := range p.Elements() {
		next, ok := cur.children[el]
		if !ok {
			break
		}
		carried := acc
		if propagate != nil {
			carried = propagate(acc, el)
		}
		acc = carried.Join(next.value)
		cur = next
	}
	return acc
}

// Join merges two trees node-by-node.
func (t *TaintTree) Join(o *TaintTree) *TaintTree {
	if t == nil {
		return o
	}
	if o == nil {
		return t
	}
	out := &TaintTree{value: t.value.Join(o.value)}
	if len(t.children) > 0 || len(o.children) > 0 {
		out.children = make(map[path.PathElement]*TaintTree, len(t.children)+len(o.children))
		for k, v := range t.children {
			out.children[k] = v
		}
		for k, v := range o.children {
			if existing, ok := out.children[k]; ok {
				out.children[k] = existing.Join(v)
			} else {
				out.children[k] = v
			}
		}
	}
	return out
}

func (t *TaintTree) Widen(o *TaintTree, maxDistance, maxDepth int) *TaintTree {
	return widenTree(t, o, maxDistance, maxDepth, 0)
}

func widenTree(t, o *TaintTree, maxDistance, maxDepth, depth int) *TaintTree {
	if t == nil {
		t = NewTaintTree()
	}
	if o == nil {
		o = NewTaintTree()
	}
	out := &TaintTree{value: t.value.Widen(o.value, maxDistance)}
	if depth >= maxDepth {
		// Collapse: fold every descendant's value up into this node
		// instead of recursing further (spec.md §4.1 widening policy).
		out.value = out.value.Join(t.flatten()).Join(o.flatten())
		return out
	}
	if len(t.children) > 0 || len(o.children) > 0 {
		out.children = make(map[path.PathElement]*TaintTree, len(t.children)+len(o.children))
		for k, v := range t.children {
			out.children[k] = widenTree(v, o.children[k], maxDistance, maxDepth, depth+1)
		}
		for k, v := range o.children {
			if _, ok := out.children[k]; !ok {
				out.children[k] = widenTree(nil, v, maxDistance, maxDepth, depth+1)
			}
		}
	}
	return out
}

func (t *TaintTree) flatten() Taint {
	if t == nil {
		return BottomTaint
	}
	acc := t.value
	for _, c := range t.children {
		acc = acc.Join(c.flatten())
	}
	return acc
}

func (t *TaintTree) Leq(o *TaintTree) bool {
	if t.IsBottom() {
		return true
	}
	if o == nil {
		return false
	}
	if !t.value.Leq(o.value) {
		return false
	}
	for k, v := range t.children {
		if !v.Leq(o.children[k]) {
			return false
		}
	}
	return true
}

func (t *TaintTree) Equals(o *TaintTree) bool {
	return t.Leq(o) && o.Leq(t)
}

// NarrowWith is spec.md §4.1's narrow_with, adopting o's subtree only
// where it is already proven no more informative than t's — the same
// safe-fallback rule as Taint.NarrowWith, applied node-by-node.
func (t *TaintTree) NarrowWith(o *TaintTree) *TaintTree {
	if t == nil {
		return NewTaintTree()
	}
	if o == nil {
		return t
	}
	out := &TaintTree{value: t.value.NarrowWith(o.value)}
	if len(t.children) > 0 || len(o.children) > 0 {
		out.children = make(map[path.PathElement]*TaintTree, len(t.children))
		for k, v := range t.children {
			out.children[k] = v.NarrowWith(o.children[k])
		}
	}
	return out
}

// Entry is one non-bottom (path, taint) pair surfaced by Entries.
type Entry struct {
	Path  path.Path
	Taint Taint
}

// Entries walks the whole tree and returns every node whose own value
// is non-bottom, in lexicographic path order — the public enumeration
// Read(path) alone can't provide, since Read needs the path in hand
// already. Used by internal/output to project a Model's taint-access-
// path trees into the model@NNNN.json shard format (spec.md §6).
func (t *TaintTree) Entries() []Entry {
	var out []Entry
	var walk func(prefix []path.PathElement, n *TaintTree)
	walk = func(prefix []path.PathElement, n *TaintTree) {
		if n == nil {
			return
		}
		if !n.value.IsBottom() {
			out = append(out, Entry{Path: path.Of(append([]path.PathElement(nil), prefix...)...), Taint: n.value})
		}
		keys := make([]path.PathElement, 0, len(n.children))
		for k := range n.children {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			walk(append(prefix, k), n.children[k])
		}
	}
	walk(nil, t)
	return out
}
