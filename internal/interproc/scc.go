// Package interproc is the whole-program interprocedural scheduler
// (spec.md §4.4/§4.6): Tarjan SCC detection, topological ordering, and
// the deterministic worklist fixpoint that drives internal/transfer's
// per-method analysis to a whole-program fixed point, reading and
// writing internal/model.Models through an internal/registry.Registry.
//
// Directly adapted from the teacher's internal/interproc/scc.go,
// internal/interproc/topological.go and internal/interproc/fixpoint.go
// — the Tarjan-with-explicit-stack shape, the deterministic
// lexicographically-smallest-pending-key worklist pop, and the
// re-enqueue-callers-on-change discipline survive unchanged; what
// changes is the node type (ir.MethodID instead of ir.ContextNode) and
// what gets joined at each node (model.Model instead of
// ir.FunctionSummary).
package interproc

import (
	"github.com/taintgraph/droidtaint/internal/ir"
)

// SCC is one strongly connected component of the call graph: a set of
// methods that call each other, directly or indirectly, and so must be
// analyzed together to a local fixpoint before their callers can see a
// stable model (spec.md §4.4).
type SCC struct {
	ID      int
	Methods []ir.MethodID
}

// sccState holds Tarjan's algorithm bookkeeping for a single method.
type sccState struct {
	index   int
	lowlink int
	onStack bool
}

// DetectSCCs partitions cg's methods into strongly connected components
// using Tarjan's algorithm over cg.Callees. Only components with more
// than one method, or a single method with a self-loop, are reported —
// a singleton with no self-edge is its own trivial "SCC of one" and the
// scheduler treats it as an ordinary non-cyclic method.
func DetectSCCs(cg *ir.CallGraph) (sccs []*SCC, methodToSCC map[ir.MethodID]int) {
	all := cg.AllMethods()
	Debugf("[scc] Starting SCC detection on %d methods", len(all))

	var (
		index     = 0
		stack     []ir.MethodID
		state     = make(map[ir.MethodID]*sccState)
		sccID     = 0
		result    []*SCC
		ownerOf   = make(map[ir.MethodID]int)
	)

	var strongConnect func(ir.MethodID)
	strongConnect = func(v ir.MethodID) {
		state[v] = &sccState{index: index, lowlink: index, onStack: true}
		index++
		stack = append(stack, v)

		for _, w := range cg.Callees(v) {
			wState := state[w]
			if wState == nil {
				strongConnect(w)
				if state[w].lowlink < state[v].lowlink {
					state[v].lowlink = state[w].lowlink
				}
			} else if wState.onStack {
				if wState.index < state[v].lowlink {
					state[v].lowlink = wState.index
				}
			}
		}

		if state[v].lowlink == state[v].index {
			var members []ir.MethodID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				state[w].onStack = false
				members = append(members, w)
				if w == v {
					break
				}
			}

			if len(members) > 1 || hasSelfLoop(cg, members[0]) {
				scc := &SCC{ID: sccID, Methods: members}
				result = append(result, scc)
				for _, m := range members {
					ownerOf[m] = sccID
				}
				Debugf("[scc] Found SCC #%d with %d methods", sccID, len(members))
				sccID++
			}
		}
	}

	for _, id := range all {
		if state[id] == nil {
			strongConnect(id)
		}
	}

	total := 0
	for _, scc := range result {
		total += len(scc.Methods)
	}
	Infof("[scc] Detected %d SCCs containing %d methods total", len(result), total)
	return result, ownerOf
}

// hasSelfLoop reports whether m calls itself directly.
func hasSelfLoop(cg *ir.CallGraph, m ir.MethodID) bool {
	for _, callee := range cg.Callees(m) {
		if callee == m {
			return true
		}
	}
	return false
}
