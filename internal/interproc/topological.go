package interproc

import (
	"sort"

	"github.com/taintgraph/droidtaint/internal/ir"
)

// TopologicalSort returns methods in reverse topological order (leaves
// first). Processing in this order ensures callees are analyzed before
// their callers in the fixpoint worklist's initial pass. Methods inside
// an SCC are ordered arbitrarily with respect to each other — the
// scheduler analyzes an SCC's members together, not one at a time.
func TopologicalSort(cg *ir.CallGraph) []ir.MethodID {
	var (
		visited = make(map[ir.MethodID]bool)
		result  []ir.MethodID
	)

	var visit func(ir.MethodID)
	visit = func(m ir.MethodID) {
		if visited[m] {
			return
		}
		visited[m] = true

		callees := cg.Callees(m)
		sort.Slice(callees, func(i, j int) bool {
			return callees[i].String() < callees[j].String()
		})
		for _, callee := range callees {
			visit(callee)
		}
		result = append(result, m)
	}

	all := cg.AllMethods()
	sort.Slice(all, func(i, j int) bool { return all[i].String() < all[j].String() })
	for _, m := range all {
		visit(m)
	}
	return result
}

// ReverseTopologicalSort returns methods in topological order (roots
// first) — useful for forward dataflow passes that need callers before
// callees.
func ReverseTopologicalSort(cg *ir.CallGraph) []ir.MethodID {
	order := TopologicalSort(cg)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// GetRoots returns every method with no callers (entry points).
func GetRoots(cg *ir.CallGraph) []ir.MethodID {
	var roots []ir.MethodID
	for _, m := range cg.AllMethods() {
		if len(cg.Callers(m)) == 0 {
			roots = append(roots, m)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].String() < roots[j].String() })
	return roots
}

// GetLeaves returns every method with no callees.
func GetLeaves(cg *ir.CallGraph) []ir.MethodID {
	var leaves []ir.MethodID
	for _, m := range cg.AllMethods() {
		if len(cg.Callees(m)) == 0 {
			leaves = append(leaves, m)
		}
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].String() < leaves[j].String() })
	return leaves
}
