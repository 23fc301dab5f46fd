package domain

import "github.com/taintgraph/droidtaint/internal/path"

// TaintAccessPathTree is a map Root -> TaintTree, used inside Model for
// generations, sinks, parameter sources, and propagations (spec.md §3).
type TaintAccessPathTree struct {
	roots map[path.Root]*TaintTree
}

func NewTaintAccessPathTree() TaintAccessPathTree {
	return TaintAccessPathTree{roots: make(map[path.Root]*TaintTree)}
}

func (t TaintAccessPathTree) IsBottom() bool {
	for _, tr := range t.roots {
		if !tr.IsBottom() {
			return false
		}
	}
	return true
}

func (t TaintAccessPathTree) clone() TaintAccessPathTree {
	out := TaintAccessPathTree{roots: make(map[path.Root]*TaintTree, len(t.roots)+1)}
	for k, v := range t.roots {
		out.roots[k] = v
	}
	return out
}

func (t TaintAccessPathTree) Write(root path.Root, p path.Path, taint Taint, kind WriteKind) TaintAccessPathTree {
	out := t.clone()
	out.roots[root] = out.roots[root].Write(p, taint, kind)
	return out
}

func (t TaintAccessPathTree) Read(root path.Root, p path.Path, propagate func(Taint, path.PathElement) Taint) Taint {
	tr, ok := t.roots[root]
	if !ok {
		return BottomTaint
	}
	return tr.Read(p, propagate)
}

func (t TaintAccessPathTree) Tree(root path.Root) *TaintTree { return t.roots[root] }

func (t TaintAccessPathTree) Roots() []path.Root {
	out := make([]path.Root, 0, len(t.roots))
	for r := range t.roots {
		out = append(out, r)
	}
	return out
}

func (t TaintAccessPathTree) Join(o TaintAccessPathTree) TaintAccessPathTree {
	out := t.clone()
	for k, v := range o.roots {
		if existing, ok := out.roots[k]; ok {
			out.roots[k] = existing.Join(v)
		} else {
			out.roots[k] = v
		}
	}
	return out
}

func (t TaintAccessPathTree) Widen(o TaintAccessPathTree, maxDistance, maxDepth int) TaintAccessPathTree {
	out := t.clone()
	for k, v := range o.roots {
		out.roots[k] = out.roots[k].Widen(v, maxDistance, maxDepth)
	}
	return out
}

func (t TaintAccessPathTree) Leq(o TaintAccessPathTree) bool {
	for k, v := range t.roots {
		if !v.Leq(o.roots[k]) {
			return false
		}
	}
	return true
}

func (t TaintAccessPathTree) Equals(o TaintAccessPathTree) bool {
	return t.Leq(o) && o.Leq(t)
}

// NarrowWith is spec.md §4.1's narrow_with, root-by-root.
func (t TaintAccessPathTree) NarrowWith(o TaintAccessPathTree) TaintAccessPathTree {
	out := t.clone()
	for k, v := range out.roots {
		out.roots[k] = v.NarrowWith(o.roots[k])
	}
	return out
}
