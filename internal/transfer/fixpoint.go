package transfer

import (
	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/model"
)

// AnalyzeMethod runs m's intraprocedural forward monotone fixpoint
// (spec.md §4.4): a worklist iterates basic blocks, joining every
// predecessor's exit Environment into a block's entry Environment and
// re-running the instruction transfer table until every block's exit
// Environment stabilizes. Blocks revisited more than
// Policy.MaxIterationsPerSCC times switch from Join to Widen so that a
// CFG loop whose taint keeps growing (e.g. an accumulator fed by a
// tainted source each iteration) still terminates — the same
// iterate-then-widen discipline spec.md §4.4 describes for the
// interprocedural call-graph scheduler, applied here one level down to
// intraprocedural loops.
//
// Every Step call threads s.model by pointer, so generations/sinks/
// issues discovered mid-fixpoint accumulate directly onto the Model
// this function returns; re-running an already-stable instruction on a
// later iteration is a harmless no-op since Write and Issues.Add are
// idempotent under repetition.
func (it *Interpreter) AnalyzeMethod(m *ir.Method) model.Model {
	s := newState(m)
	if len(m.Blocks) == 0 {
		return s.model
	}

	globalIndex := make([][]int, len(m.Blocks))
	next := 0
	for i, b := range m.Blocks {
		globalIndex[i] = make([]int, len(b.Instructions))
		for j := range b.Instructions {
			globalIndex[i][j] = next
			next++
		}
	}

	preds := computePredecessors(m)
	entry := s.entryEnvironment()

	blockOut := make([]*domain.Environment, len(m.Blocks))
	for i := range m.Blocks {
		blockOut[i] = domain.NewEnvironment(s.table)
	}

	iterations := make([]int, len(m.Blocks))
	worklist := []int{0}
	inWorklist := make([]bool, len(m.Blocks))
	inWorklist[0] = true

	for len(worklist) > 0 {
		bi := worklist[0]
		worklist = worklist[1:]
		inWorklist[bi] = false

		in := domain.NewEnvironment(s.table)
		if bi == 0 {
			in = in.Join(entry)
		}
		for _, p := range preds[bi] {
			in = in.Join(blockOut[p])
		}

		out := it.runBlock(s, in, m.Blocks[bi].Instructions, globalIndex[bi])

		iterations[bi]++
		if iterations[bi] > it.Policy.MaxIterationsPerSCC {
			out = blockOut[bi].Widen(out, it.Policy.MaxSourceSinkDistance, it.Policy.MaxPropagationPortSize)
		}

		if out.Equals(blockOut[bi]) {
			continue
		}
		blockOut[bi] = out
		for _, succ := range m.Blocks[bi].Successors {
			if succ < 0 || succ >= len(m.Blocks) {
				continue
			}
			if !inWorklist[succ] {
				worklist = append(worklist, succ)
				inWorklist[succ] = true
			}
		}
	}
	return s.model
}

func (it *Interpreter) runBlock(s *state, in *domain.Environment, instrs []ir.Instruction, indices []int) *domain.Environment {
	env := in
	for j, instr := range instrs {
		env = it.Step(s, env, instr, indices[j])
	}
	return env
}

// computePredecessors inverts each block's Successors list.
func computePredecessors(m *ir.Method) [][]int {
	preds := make([][]int, len(m.Blocks))
	for i, b := range m.Blocks {
		for _, succ := range b.Successors {
			if succ < 0 || succ >= len(m.Blocks) {
				continue
			}
			preds[succ] = append(preds[succ], i)
		}
	}
	return preds
}
