// Package classhierarchy computes DFS pre/post-order intervals over the
// class hierarchy (spec.md §4.6) used to approximate subtype relations at
// virtual call sites without carrying full type information through the
// taint domain. The DFS shape is adapted from the teacher's Tarjan SCC
// walk (internal/interproc/scc.go), repurposed from cycle detection to
// interval numbering; Build walks the hierarchy with a recursive closure
// rather than an explicit stack.
package classhierarchy

import "fmt"

// Interval is a DFS [enter, exit] numbering on the class hierarchy. A
// subclass's interval is strictly contained in its ancestors'.
// PreservesTypeContext additionally tracks the "this.*-call" invariant
// (spec.md §4.6): at such calls, the receiver's dynamic type must be a
// subtype of the static call target. Meet ANDs the flag of its operands
// and intersects the ranges whatever its value.
type Interval struct {
	Lower, Upper         int
	PreservesTypeContext bool
}

// Top is the universal interval: no class filtering applies.
var Top = Interval{Lower: -1, Upper: -1, PreservesTypeContext: true}

func (i Interval) IsTop() bool { return i == Top }

// Contains reports whether other is nested within i (other is a subtype
// interval of i, or equal).
func (i Interval) Contains(other Interval) bool {
	if i.IsTop() {
		return true
	}
	if other.IsTop() {
		return false
	}
	return i.Lower <= other.Lower && other.Upper <= i.Upper
}

// NarrowWith is spec.md §4.1's narrow_with for Interval. The interval
// lattice is finite and already narrows exactly via Meet (the
// intersection of two [lower, upper] ranges), so there is no separate
// "descending but not all the way to the meet" step to take here the
// way there is for an unbounded-depth taint tree.
func (i Interval) NarrowWith(other Interval) Interval {
	return i.Meet(other)
}

// Meet computes the numeric intersection of two intervals (spec.md §4.6:
// "Meet is numeric intersection"). An empty result (Lower > Upper) means
// the two classes are unrelated and any frame carrying it must be dropped.
func (i Interval) Meet(other Interval) Interval {
	if i.IsTop() {
		return other
	}
	if other.IsTop() {
		return i
	}
	lo := i.Lower
	if other.Lower > lo {
		lo = other.Lower
	}
	hi := i.Upper
	if other.Upper < hi {
		hi = other.Upper
	}
	return Interval{
		Lower:                lo,
		Upper:                hi,
		PreservesTypeContext: i.PreservesTypeContext && other.PreservesTypeContext,
	}
}

// IsEmpty reports whether the interval denotes no classes at all — the
// result of meeting two unrelated class intervals.
func (i Interval) IsEmpty() bool {
	return !i.IsTop() && i.Lower > i.Upper
}

func (i Interval) String() string {
	if i.IsTop() {
		return "Top"
	}
	return fmt.Sprintf("[%d,%d]", i.Lower, i.Upper)
}
