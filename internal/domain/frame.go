package domain

import (
	"fmt"

	"github.com/taintgraph/droidtaint/internal/classhierarchy"
	"github.com/taintgraph/droidtaint/internal/feature"
	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/kind"
	"github.com/taintgraph/droidtaint/internal/path"
	"github.com/taintgraph/droidtaint/internal/position"
)

// Frame is the atom of taint (spec.md §3). It is a value type: callers
// copy it rather than mutate it in place, so Frame itself never needs a
// lock.
type Frame struct {
	Kind          *kind.Kind
	CalleePort    *kind.AccessPath
	CalleeMethod  *ir.MethodID
	FieldCallee   *ir.FieldID
	CallPosition  *position.Position
	ClassInterval classhierarchy.Interval
	Distance      int

	Origins      []ir.MethodID
	FieldOrigins []ir.FieldID

	// MayFeatures hold only when at least one path to this frame carries
	// them; AlwaysFeatures hold on every path (join of Always is
	// intersection, the opposite direction of every other field here).
	MayFeatures    feature.Set
	AlwaysFeatures feature.Set
	UserFeatures   feature.Set

	ViaTypeOf  []path.Root
	ViaValueOf []path.Root

	CanonicalNames []string

	CallInfoTag CallInfoTag

	// OutputPaths holds the propagation output paths for
	// Propagation/PropagationWithTrace frames (spec.md §3: "output paths
	// (propagation only; PathTree<CollapseDepth>)").
	OutputPaths *PathTree

	ExtraTraces []Frame
}

// BottomFrame is the empty, uninformative frame: zero distance, no
// features, no origins. It is the identity element for Join.
var BottomFrame = Frame{}

func (f Frame) IsBottom() bool {
	return f.Kind == nil && len(f.Origins) == 0 && len(f.FieldOrigins) == 0 && f.Distance == 0 &&
		f.MayFeatures.IsEmpty() && f.AlwaysFeatures.IsEmpty() && f.UserFeatures.IsEmpty()
}

// Leq holds when f carries no information o does not already carry: a
// subset of origins/features and a distance no smaller (farther from the
// source is "more" information in the sense that widening only grows
// distance, never shrinks it — spec.md §4.1 invariant (i)).
func (f Frame) Leq(o Frame) bool {
	if f.Kind != o.Kind {
		return f.IsBottom()
	}
	if f.Distance < o.Distance {
		return false
	}
	if !subsetMethods(f.Origins, o.Origins) || !subsetFields(f.FieldOrigins, o.FieldOrigins) {
		return false
	}
	if !f.MayFeatures.Leq(o.MayFeatures) {
		return false
	}
	// AlwaysFeatures, UserFeatures, ClassInterval, the via-* ports and
	// OutputPaths are not compared: Leq decides on Kind, Distance,
	// origins and MayFeatures alone.
	return true
}

func (f Frame) Equals(o Frame) bool {
	return f.Leq(o) && o.Leq(f)
}

// Join merges two frames of the same Kind produced along different
// control-flow paths: origins/may-features union, always-features
// intersect, distance takes the minimum (the closer witness dominates),
// class interval takes the Meet (spec.md §4.6).
func (f Frame) Join(o Frame) Frame {
	if f.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return f
	}
	out := f
	out.Origins = unionMethods(f.Origins, o.Origins)
	out.FieldOrigins = unionFields(f.FieldOrigins, o.FieldOrigins)
	out.MayFeatures = f.MayFeatures.Union(o.MayFeatures)
	out.AlwaysFeatures = f.AlwaysFeatures.Intersect(o.AlwaysFeatures)
	out.UserFeatures = f.UserFeatures.Union(o.UserFeatures)
	out.ClassInterval = f.ClassInterval.Meet(o.ClassInterval)
	if o.Distance < out.Distance {
		out.Distance = o.Distance
	}
	out.ViaTypeOf = unionRoots(f.ViaTypeOf, o.ViaTypeOf)
	out.ViaValueOf = unionRoots(f.ViaValueOf, o.ViaValueOf)
	out.ExtraTraces = append(append([]Frame(nil), f.ExtraTraces...), o.ExtraTraces...)
	if f.OutputPaths != nil || o.OutputPaths != nil {
		out.OutputPaths = joinPathTrees(f.OutputPaths, o.OutputPaths)
	}
	return out
}

// Meet is the dual of Join: the frame carrying only what f and o both
// independently support, used to narrow a read back down along two
// resolved branches of the same kind (spec.md §4.1 invariant (iv):
// "meet is dual of join"). Frames of different Kind have nothing in
// common and meet to BottomFrame.
func (f Frame) Meet(o Frame) Frame {
	if f.Kind != o.Kind {
		return BottomFrame
	}
	out := f
	out.Origins = intersectMethods(f.Origins, o.Origins)
	out.FieldOrigins = intersectFields(f.FieldOrigins, o.FieldOrigins)
	out.MayFeatures = f.MayFeatures.Intersect(o.MayFeatures)
	out.AlwaysFeatures = f.AlwaysFeatures.Union(o.AlwaysFeatures)
	out.UserFeatures = f.UserFeatures.Intersect(o.UserFeatures)
	out.ClassInterval = f.ClassInterval.Meet(o.ClassInterval)
	if o.Distance > out.Distance {
		out.Distance = o.Distance
	}
	out.ViaTypeOf = intersectRoots(f.ViaTypeOf, o.ViaTypeOf)
	out.ViaValueOf = intersectRoots(f.ViaValueOf, o.ViaValueOf)
	out.ExtraTraces = nil
	out.OutputPaths = nil
	return out
}

// NarrowWith is spec.md §4.1's narrow_with: applied during a descending
// fixpoint pass to recover precision a prior Widen gave up. o is only
// adopted when it is already known to be no more informative than f
// (o.Leq(f)); otherwise f is kept as the safe fallback, since a
// narrowing step must never lose soundness.
func (f Frame) NarrowWith(o Frame) Frame {
	if o.Leq(f) {
		return o
	}
	return f
}

// Widen is Join plus a cap on distance: a joined distance above
// maxDistance is lowered to maxDistance and via-broadening is added
// (spec.md §4.1 invariant (iii), §9 "Widening terminators"). The
// output-path tree is joined as in Join and is not collapsed here.
func (f Frame) Widen(o Frame, maxDistance int) Frame {
	out := f.Join(o)
	if out.Distance > maxDistance {
		out.Distance = maxDistance
		out.MayFeatures = out.MayFeatures.Add(feature.ViaBroadening)
	}
	return out
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame{kind=%s, tag=%s, distance=%d}", f.Kind, f.CallInfoTag, f.Distance)
}

func subsetMethods(a, b []ir.MethodID) bool {
	set := make(map[ir.MethodID]bool, len(b))
	for _, m := range b {
		set[m] = true
	}
	for _, m := range a {
		if !set[m] {
			return false
		}
	}
	return true
}

func subsetFields(a, b []ir.FieldID) bool {
	set := make(map[ir.FieldID]bool, len(b))
	for _, m := range b {
		set[m] = true
	}
	for _, m := range a {
		if !set[m] {
			return false
		}
	}
	return true
}

func unionMethods(a, b []ir.MethodID) []ir.MethodID {
	seen := make(map[ir.MethodID]bool, len(a)+len(b))
	var out []ir.MethodID
	for _, m := range append(append([]ir.MethodID(nil), a...), b...) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func unionFields(a, b []ir.FieldID) []ir.FieldID {
	seen := make(map[ir.FieldID]bool, len(a)+len(b))
	var out []ir.FieldID
	for _, m := range append(append([]ir.FieldID(nil), a...), b...) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func unionRoots(a, b []path.Root) []path.Root {
	seen := make(map[path.Root]bool, len(a)+len(b))
	var out []path.Root
	for _, r := range append(append([]path.Root(nil), a...), b...) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func intersectMethods(a, b []ir.MethodID) []ir.MethodID {
	set := make(map[ir.MethodID]bool, len(b))
	for _, m := range b {
		set[m] = true
	}
	var out []ir.MethodID
	for _, m := range a {
		if set[m] {
			out = append(out, m)
		}
	}
	return out
}

func intersectFields(a, b []ir.FieldID) []ir.FieldID {
	set := make(map[ir.FieldID]bool, len(b))
	for _, m := range b {
		set[m] = true
	}
	var out []ir.FieldID
	for _, m := range a {
		if set[m] {
			out = append(out, m)
		}
	}
	return out
}

func intersectRoots(a, b []path.Root) []path.Root {
	set := make(map[path.Root]bool, len(b))
	for _, r := range b {
		set[r] = true
	}
	var out []path.Root
	for _, r := range a {
		if set[r] {
			out = append(out, r)
		}
	}
	return out
}
