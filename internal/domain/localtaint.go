package domain

import (
	"github.com/taintgraph/droidtaint/internal/classhierarchy"
	"github.com/taintgraph/droidtaint/internal/feature"
	"github.com/taintgraph/droidtaint/internal/kind"
	"github.com/taintgraph/droidtaint/internal/position"
)

// LocalTaint is a set of frames sharing one CallInfo, keyed by Kind
// (spec.md §3). CallInfo itself is carried alongside rather than
// embedded in LocalTaint's Go type so that Taint (keyed by CallInfo) can
// store LocalTaint as a plain value.
type LocalTaint struct {
	CallInfo CallInfo
	frames   map[*kind.Kind]KindFrames

	LocalPositions          []*position.Position
	LocallyInferredFeatures feature.Set
}

func NewLocalTaint(info CallInfo) LocalTaint {
	return LocalTaint{CallInfo: info, frames: make(map[*kind.Kind]KindFrames)}
}

func (lt LocalTaint) IsBottom() bool { return len(lt.frames) == 0 }

// AddFrame folds frame into the KindFrames bucket for frame.Kind under
// the given class-interval context.
func (lt LocalTaint) AddFrame(interval classhierarchy.Interval, frame Frame) LocalTaint {
	out := lt.clone()
	out.frames[frame.Kind] = out.frames[frame.Kind].Add(interval, frame)
	return out
}

func (lt LocalTaint) Kinds() []*kind.Kind {
	out := make([]*kind.Kind, 0, len(lt.frames))
	for k := range lt.frames {
		out = append(out, k)
	}
	return out
}

func (lt LocalTaint) KindFrames(k *kind.Kind) KindFrames {
	return lt.frames[k]
}

func (lt LocalTaint) clone() LocalTaint {
	out := LocalTaint{
		CallInfo:                lt.CallInfo,
		frames:                  make(map[*kind.Kind]KindFrames, len(lt.frames)+1),
		LocalPositions:          append([]*position.Position(nil), lt.LocalPositions...),
		LocallyInferredFeatures: lt.LocallyInferredFeatures,
	}
	for k, v := range lt.frames {
		out.frames[k] = v
	}
	return out
}

// Join requires lt and o to share a CallInfo (spec.md §7: "joining
// LocalTaints with different call-info" is a programmer invariant
// violation, not a recoverable case) and merges their per-kind frames.
func (lt LocalTaint) Join(o LocalTaint) LocalTaint {
	if lt.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return lt
	}
	if !lt.CallInfo.Equals(o.CallInfo) {
		panic("domain: Join of LocalTaint with mismatched CallInfo")
	}
	out := lt.clone()
	for k, v := range o.frames {
		out.frames[k] = out.frames[k].Join(v)
	}
	out.LocalPositions = unionPositions(lt.LocalPositions, o.LocalPositions)
	out.LocallyInferredFeatures = lt.LocallyInferredFeatures.Union(o.LocallyInferredFeatures)
	return out
}

// Meet is the dual of Join: a LocalTaint carrying only what lt and o
// both independently support. LocalTaints with mismatched CallInfo, or
// either bottom, have nothing guaranteed in common and meet to bottom
// (spec.md §4.1 invariant (iv)).
func (lt LocalTaint) Meet(o LocalTaint) LocalTaint {
	if lt.IsBottom() || o.IsBottom() || !lt.CallInfo.Equals(o.CallInfo) {
		return LocalTaint{}
	}
	out := NewLocalTaint(lt.CallInfo)
	for k, v := range lt.frames {
		if ov, ok := o.frames[k]; ok {
			if mf := v.Meet(ov); !mf.IsBottom() {
				out.frames[k] = mf
			}
		}
	}
	out.LocalPositions = intersectPositions(lt.LocalPositions, o.LocalPositions)
	out.LocallyInferredFeatures = lt.LocallyInferredFeatures.Intersect(o.LocallyInferredFeatures)
	return out
}

// NarrowWith is spec.md §4.1's narrow_with, adopting o only when it is
// already proven no more informative than lt.
func (lt LocalTaint) NarrowWith(o LocalTaint) LocalTaint {
	if o.Leq(lt) {
		return o
	}
	return lt
}

func (lt LocalTaint) Leq(o LocalTaint) bool {
	if lt.IsBottom() {
		return true
	}
	if !lt.CallInfo.Equals(o.CallInfo) {
		return false
	}
	for k, v := range lt.frames {
		if !v.Leq(o.frames[k]) {
			return false
		}
	}
	return lt.LocallyInferredFeatures.Leq(o.LocallyInferredFeatures)
}

func (lt LocalTaint) Equals(o LocalTaint) bool {
	return lt.Leq(o) && o.Leq(lt)
}

func (lt LocalTaint) Widen(o LocalTaint, maxDistance int) LocalTaint {
	if lt.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return lt
	}
	if !lt.CallInfo.Equals(o.CallInfo) {
		panic("domain: Widen of LocalTaint with mismatched CallInfo")
	}
	out := lt.clone()
	for k, v := range o.frames {
		out.frames[k] = out.frames[k].Widen(v, maxDistance)
	}
	out.LocalPositions = unionPositions(lt.LocalPositions, o.LocalPositions)
	out.LocallyInferredFeatures = lt.LocallyInferredFeatures.Union(o.LocallyInferredFeatures)
	return out
}

func unionPositions(a, b []*position.Position) []*position.Position {
	seen := make(map[*position.Position]bool, len(a)+len(b))
	var out []*position.Position
	for _, p := range append(append([]*position.Position(nil), a...), b...) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func intersectPositions(a, b []*position.Position) []*position.Position {
	set := make(map[*position.Position]bool, len(b))
	for _, p := range b {
		set[p] = true
	}
	var out []*position.Position
	for _, p := range a {
		if set[p] {
			out = append(out, p)
		}
	}
	return out
}
