package feature

import (
	"sort"
	"strings"
)

// Set is an immutable set of interned Features, kept as a slice sorted by
// name so that two structurally-equal sets compare equal and serialize
// deterministically (needed for the idempotence property in spec.md §8:
// "running the analysis twice ... yields byte-identical sharded models").
type Set struct {
	items []*Feature
}

// Empty is the bottom element of the (join = union) feature-set lattice.
var Empty = Set{}

// NewSet builds a Set from a list of features, deduplicating and sorting.
func NewSet(fs ...*Feature) Set {
	return Empty.Union(Set{items: fs})
}

func (s Set) Has(f *Feature) bool {
	for _, x := range s.items {
		if x == f {
			return true
		}
	}
	return false
}

func (s Set) IsEmpty() bool { return len(s.items) == 0 }

func (s Set) Len() int { return len(s.items) }

// List returns the features in sorted (deterministic) order.
func (s Set) List() []*Feature {
	out := make([]*Feature, len(s.items))
	copy(out, s.items)
	return out
}

// Union is the join of two feature sets.
func (s Set) Union(other Set) Set {
	seen := make(map[*Feature]bool, len(s.items)+len(other.items))
	var merged []*Feature
	for _, f := range s.items {
		if !seen[f] {
			seen[f] = true
			merged = append(merged, f)
		}
	}
	for _, f := range other.items {
		if !seen[f] {
			seen[f] = true
			merged = append(merged, f)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].name < merged[j].name })
	return Set{items: merged}
}

// Intersect returns the features present in both sets.
func (s Set) Intersect(other Set) Set {
	if s.IsEmpty() || other.IsEmpty() {
		return Empty
	}
	has := make(map[*Feature]bool, len(other.items))
	for _, f := range other.items {
		has[f] = true
	}
	var out []*Feature
	for _, f := range s.items {
		if has[f] {
			out = append(out, f)
		}
	}
	return Set{items: out}
}

// Leq holds when s is a subset of other — the set lattice's partial order
// under join = union.
func (s Set) Leq(other Set) bool {
	for _, f := range s.items {
		if !other.Has(f) {
			return false
		}
	}
	return true
}

func (s Set) Equals(other Set) bool {
	return s.Leq(other) && other.Leq(s)
}

func (s Set) Add(f *Feature) Set {
	return s.Union(Set{items: []*Feature{f}})
}

func (s Set) String() string {
	names := make([]string, len(s.items))
	for i, f := range s.items {
		names[i] = f.name
	}
	return strings.Join(names, ",")
}
