package domain

import "github.com/taintgraph/droidtaint/internal/classhierarchy"

// KindFrames maps a class-interval context to the Frame observed there,
// for a single Kind (spec.md §3). A kind.Kind rarely has more than a
// handful of distinct interval contexts in practice, so a slice rather
// than a map keeps iteration order stable without extra bookkeeping.
type KindFrames struct {
	entries []intervalFrame
}

type intervalFrame struct {
	interval classhierarchy.Interval
	frame    Frame
}

func NewKindFrames() KindFrames { return KindFrames{} }

func (kf KindFrames) IsBottom() bool { return len(kf.entries) == 0 }

// Add records frame at interval, joining with any existing frame whose
// interval exactly matches.
func (kf KindFrames) Add(interval classhierarchy.Interval, frame Frame) KindFrames {
	out := KindFrames{entries: append([]intervalFrame(nil), kf.entries...)}
	for i, e := range out.entries {
		if e.interval == interval {
			out.entries[i].frame = e.frame.Join(frame)
			return out
		}
	}
	out.entries = append(out.entries, intervalFrame{interval: interval, frame: frame})
	return out
}

// Frames returns the frame of every (interval, frame) pair, in insertion
// order; the intervals themselves are not returned.
func (kf KindFrames) Frames() []Frame {
	out := make([]Frame, len(kf.entries))
	for i, e := range kf.entries {
		out[i] = e.frame
	}
	return out
}

// Join merges frames with compatible (equal) intervals and keeps
// incompatible ones side by side (spec.md §3: "Join merges frames with
// compatible intervals").
func (kf KindFrames) Join(o KindFrames) KindFrames {
	out := kf
	for _, e := range o.entries {
		out = out.Add(e.interval, e.frame)
	}
	return out
}

// Meet keeps only the (interval, frame) pairs whose interval matches
// exactly in both operands, narrowing each surviving pair via
// Frame.Meet — the dual of Join, which keeps every interval from either
// side (spec.md §4.1 invariant (iv)).
func (kf KindFrames) Meet(o KindFrames) KindFrames {
	var out KindFrames
	for _, e := range kf.entries {
		for _, oe := range o.entries {
			if e.interval != oe.interval {
				continue
			}
			mf := e.frame.Meet(oe.frame)
			if !mf.IsBottom() {
				out = out.Add(e.interval, mf)
			}
		}
	}
	return out
}

// NarrowWith is spec.md §4.1's narrow_with, adopting o only when it is
// already proven no more informative than kf (the same safe-fallback
// rule as Frame.NarrowWith, lifted to a whole interval-bucketed set).
func (kf KindFrames) NarrowWith(o KindFrames) KindFrames {
	if o.Leq(kf) {
		return o
	}
	return kf
}

func (kf KindFrames) Leq(o KindFrames) bool {
	for _, e := range kf.entries {
		found := false
		for _, oe := range o.entries {
			if oe.interval == e.interval && e.frame.Leq(oe.frame) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (kf KindFrames) Equals(o KindFrames) bool {
	return kf.Leq(o) && o.Leq(kf)
}

// Widen joins and caps each resulting frame's distance.
func (kf KindFrames) Widen(o KindFrames, maxDistance int) KindFrames {
	out := KindFrames{entries: append([]intervalFrame(nil), kf.entries...)}
	for _, e := range o.entries {
		found := false
		for i, oe := range out.entries {
			if oe.interval == e.interval {
				out.entries[i].frame = oe.frame.Widen(e.frame, maxDistance)
				found = true
				break
			}
		}
		if !found {
			out.entries = append(out.entries, e)
		}
	}
	return out
}
