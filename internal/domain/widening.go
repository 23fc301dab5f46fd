package domain

// WideningPolicy bundles the thresholds spec.md §4.1 names for collapsing
// taint-access-path trees and capping frame distance:
// k_generation_max_port_size, k_generation_max_output_path_leaves (and
// their sink/propagation/parameter-source counterparts), plus the
// distance cap used by Frame.Widen. internal/config loads these from the
// on-disk Heuristics document and constructs one of these to hand to the
// per-method fixpoint driver in internal/transfer.
type WideningPolicy struct {
	MaxSourceSinkDistance int

	MaxGenerationPortSize       int
	MaxGenerationOutputLeaves   int
	MaxSinkPortSize             int
	MaxSinkOutputLeaves         int
	MaxPropagationPortSize      int
	MaxPropagationOutputLeaves  int
	MaxParameterSourcePortSize  int
	MaxParameterSourceOutLeaves int

	MaxIterationsPerSCC int
}

// DefaultWideningPolicy matches the teacher-independent defaults implied
// by spec.md's worked examples (§8, testable property 5 uses
// k_generation_max_output_path_leaves=50 as an overridden, non-default
// value — these are the library's fallback when no Heuristics document
// overrides them).
var DefaultWideningPolicy = WideningPolicy{
	MaxSourceSinkDistance:       10,
	MaxGenerationPortSize:       4,
	MaxGenerationOutputLeaves:   100,
	MaxSinkPortSize:             4,
	MaxSinkOutputLeaves:         100,
	MaxPropagationPortSize:      4,
	MaxPropagationOutputLeaves:  100,
	MaxParameterSourcePortSize:  4,
	MaxParameterSourceOutLeaves: 100,
	MaxIterationsPerSCC:         5,
}

// CollapseOutputPaths applies the output-path-leaf-count limit to t,
// returning the possibly-collapsed tree and whether collapsing occurred
// (spec.md §4.1: "Leaves beyond the limit are collapsed into the nearest
// ancestor; a via-broadening feature is added").
func (p WideningPolicy) CollapseOutputPaths(t *PathTree, maxLeaves int) (*PathTree, bool) {
	return t.CollapseToLeafCount(maxLeaves)
}
