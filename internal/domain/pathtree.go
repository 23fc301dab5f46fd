package domain

import (
	"sort"
	"strings"

	"github.com/taintgraph/droidtaint/internal/path"
)

// PathTree is the "PathTree<CollapseDepth>" of spec.md §3: a tree of
// path.PathElement whose leaves mark complete output paths (used to
// record a propagation frame's output paths, spec.md §4.1). Unlike
// TaintTree (whose nodes carry a Taint value), PathTree nodes carry no
// payload — it is purely a membership structure, collapsed by depth
// under the widening policy in spec.md §4.1 ("Leaves beyond the limit
// are collapsed into the nearest ancestor; a via-broadening feature is
// added").
type PathTree struct {
	isLeaf   bool
	children map[path.PathElement]*PathTree
}

// NewPathTree returns an empty tree (bottom: no paths recorded).
func NewPathTree() *PathTree { return &PathTree{} }

// Add records p as a member path.
func (t *PathTree) Add(p path.Path) *PathTree {
	if t == nil {
		t = NewPathTree()
	}
	cur := t
	for _, el := range p.Elements() {
		if cur.children == nil {
			cur.children = make(map[path.PathElement]*PathTree)
		}
		next, ok := cur.children[el]
		if !ok {
			next = NewPathTree()
			cur.children[el] = next
		}
		cur = next
	}
	cur.isLeaf = true
	return t
}

// Paths returns every member path in lexicographic order.
func (t *PathTree) Paths() []path.Path {
	if t == nil {
		return nil
	}
	var out []path.Path
	var walk func(prefix []path.PathElement, n *PathTree)
	walk = func(prefix []path.PathElement, n *PathTree) {
		if n.isLeaf {
			out = append(out, path.Of(append([]path.PathElement(nil), prefix...)...))
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

// Leaves counts the member paths (spec.md §8 testable property 5:
// "the resulting generations tree has <=50 leaves").
func (t *PathTree) Leaves() int {
	if t == nil {
		return 0
	}
	if t.isLeaf && len(t.children) == 0 {
		return 1
	}
	n := 0
	if t.isLeaf {
		n++
	}
	for _, c := range t.children {
		n += c.Leaves()
	}
	if n == 0 {
		return 0
	}
	return n
}

func joinPathTrees(a, b *PathTree) *PathTree {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := &PathTree{isLeaf: a.isLeaf || b.isLeaf}
	if len(a.children) > 0 || len(b.children) > 0 {
		out.children = make(map[path.PathElement]*PathTree, len(a.children)+len(b.children))
		for k, v := range a.children {
			out.children[k] = v
		}
		for k, v := range b.children {
			if existing, ok := out.children[k]; ok {
				out.children[k] = joinPathTrees(existing, v)
			} else {
				out.children[k] = v
			}
		}
	}
	return out
}

// CollapseToDepth collapses every subtree deeper than maxDepth into its
// ancestor at maxDepth, reporting whether any collapse occurred (the
// caller attaches feature.ViaBroadening when it did, per spec.md §4.1).
func (t *PathTree) CollapseToDepth(maxDepth int) (*PathTree, bool) {
	if t == nil {
		return nil, false
	}
	collapsed := false
	var walk func(n *PathTree, depth int) *PathTree
	walk = func(n *PathTree, depth int) *PathTree {
		if depth >= maxDepth && len(n.children) > 0 {
			collapsed = true
			return &PathTree{isLeaf: true}
		}
		out := &PathTree{isLeaf: n.isLeaf}
		if len(n.children) > 0 {
			out.children = make(map[path.PathElement]*PathTree, len(n.children))
			for k, v := range n.children {
				out.children[k] = walk(v, depth+1)
			}
		}
		return out
	}
	return walk(t, 0), collapsed
}

// CollapseToLeafCount repeatedly shrinks the tree (deepest level first,
// one level at a time toward the root) until at most maxLeaves member
// paths remain, reporting whether
// any collapse occurred. Used for
// k_generation_max_output_path_leaves (spec.md §4.1).
func (t *PathTree) CollapseToLeafCount(maxLeaves int) (*PathTree, bool) {
	if t == nil || maxLeaves <= 0 {
		return t, false
	}
	cur := t
	collapsedAny := false
	for depth := maxPathDepth(cur); depth >= 0 && cur.Leaves() > maxLeaves; depth-- {
		next, collapsed := cur.CollapseToDepth(depth)
		if !collapsed {
			continue
		}
		cur = next
		collapsedAny = true
	}
	return cur, collapsedAny
}

func maxPathDepth(t *PathTree) int {
	if t == nil || len(t.children) == 0 {
		return 0
	}
	max := 0
	for _, c := range t.children {
		if d := maxPathDepth(c); d > max {
			max = d
		}
	}
	return max + 1
}

func (t *PathTree) String() string {
	if t == nil {
		return "{}"
	}
	var parts []string
	for _, p := range t.Paths() {
		parts = append(parts, p.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
