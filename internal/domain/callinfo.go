// Package domain implements the abstract-domain algebra of spec.md §3-4:
// Frame, KindFrames, LocalTaint, Taint, TaintTree, TaintAccessPathTree,
// MemoryLocation/Environment, each a join-semilattice with bottom, leq,
// join, widen, and meet. The arena/index shape for memory locations and
// the persistent-map join pattern are grounded on
// google-go-flow-levee/internal/pkg/earpointer/{heap,state}.go; the
// confidence/evidence merge shape (min on narrowing fields, union on
// additive fields) is grounded on the teacher's
// internal/interproc/lattice.go JoinSummaries/SummariesEqual.
package domain

import (
	"fmt"

	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/kind"
	"github.com/taintgraph/droidtaint/internal/position"
)

// CallInfoTag distinguishes how a Frame's taint was produced, per
// spec.md §3's Frame.call-info-tag.
type CallInfoTag uint8

const (
	Declaration CallInfoTag = iota
	Origin
	CallSite
	Propagation
	PropagationWithTrace
	PropagationWithoutTrace
)

func (t CallInfoTag) String() string {
	switch t {
	case Declaration:
		return "Declaration"
	case Origin:
		return "Origin"
	case CallSite:
		return "CallSite"
	case Propagation:
		return "Propagation"
	case PropagationWithTrace:
		return "PropagationWithTrace"
	case PropagationWithoutTrace:
		return "PropagationWithoutTrace"
	default:
		return "Unknown"
	}
}

// CallInfo is the grouping key of Taint: "Map CallInfo -> LocalTaint"
// (spec.md §3). Two frames sharing a CallInfo are collapsed into one
// LocalTaint's frame set.
type CallInfo struct {
	Tag        CallInfoTag
	Callee     *ir.MethodID    // nil for Declaration/Origin frames with no callee
	CalleePort *kind.AccessPath
	Position   *position.Position
}

// Equals compares CallInfo by value; Callee/CalleePort/Position are
// pointer-interned so pointer comparison suffices for them too, but we
// compare structurally since a caller may hold a freshly constructed,
// not-yet-interned *ir.MethodID.
func (c CallInfo) Equals(o CallInfo) bool {
	if c.Tag != o.Tag || c.CalleePort != o.CalleePort || c.Position != o.Position {
		return false
	}
	if (c.Callee == nil) != (o.Callee == nil) {
		return false
	}
	if c.Callee != nil && *c.Callee != *o.Callee {
		return false
	}
	return true
}

func (c CallInfo) String() string {
	callee := "<none>"
	if c.Callee != nil {
		callee = c.Callee.String()
	}
	return fmt.Sprintf("%s(callee=%s, port=%s, pos=%s)", c.Tag, callee, c.CalleePort, c.Position)
}

// key returns a comparable value usable as a Go map key; CallInfo itself
// holds a pointer field (*ir.MethodID) that two structurally-equal but
// distinct allocations would make unequal under Go's built-in ==, so
// Taint is keyed by this derived, fully-comparable key instead.
type callInfoKey struct {
	tag      CallInfoTag
	callee   ir.MethodID
	hasCallee bool
	port     *kind.AccessPath
	pos      *position.Position
}

func (c CallInfo) key() callInfoKey {
	k := callInfoKey{tag: c.Tag, port: c.CalleePort, pos: c.Position}
	if c.Callee != nil {
		k.callee = *c.Callee
		k.hasCallee = true
	}
	return k
}
