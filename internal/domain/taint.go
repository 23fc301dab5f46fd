package domain

// Taint is the principal taint domain: a map CallInfo -> LocalTaint
// (spec.md §3). Keyed internally by callInfoKey so two structurally
// equal CallInfos (possibly holding distinct *ir.MethodID allocations)
// collapse to one entry, matching the persistent-map style used
// throughout this package.
type Taint struct {
	locals map[callInfoKey]LocalTaint
}

// BottomTaint carries no information.
var BottomTaint = Taint{}

func NewTaint() Taint { return Taint{locals: make(map[callInfoKey]LocalTaint)} }

func (t Taint) IsBottom() bool { return len(t.locals) == 0 }

func (t Taint) clone() Taint {
	out := Taint{locals: make(map[callInfoKey]LocalTaint, len(t.locals)+1)}
	for k, v := range t.locals {
		out.locals[k] = v
	}
	return out
}

// WithLocal joins lt into the LocalTaint bucket for lt.CallInfo.
func (t Taint) WithLocal(lt LocalTaint) Taint {
	out := t.clone()
	k := lt.CallInfo.key()
	if existing, ok := out.locals[k]; ok {
		out.locals[k] = existing.Join(lt)
	} else {
		out.locals[k] = lt
	}
	return out
}

// Locals returns every LocalTaint bucket, in no particular order; callers
// that need determinism (e.g. serialization) sort by CallInfo.String().
func (t Taint) Locals() []LocalTaint {
	out := make([]LocalTaint, 0, len(t.locals))
	for _, v := range t.locals {
		out = append(out, v)
	}
	return out
}

func (t Taint) Join(o Taint) Taint {
	if t.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return t
	}
	out := t.clone()
	for k, v := range o.locals {
		if existing, ok := out.locals[k]; ok {
			out.locals[k] = existing.Join(v)
		} else {
			out.locals[k] = v
		}
	}
	return out
}

func (t Taint) Widen(o Taint, maxDistance int) Taint {
	if t.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return t
	}
	out := t.clone()
	for k, v := range o.locals {
		if existing, ok := out.locals[k]; ok {
			out.locals[k] = existing.Widen(v, maxDistance)
		} else {
			out.locals[k] = v
		}
	}
	return out
}

// Leq holds when every local of t is dominated by a matching local of o
// (spec.md §4.1 invariant (i): x.leq(y) <=> x.join(y) == y).
func (t Taint) Leq(o Taint) bool {
	for k, v := range t.locals {
		ov, ok := o.locals[k]
		if !ok || !v.Leq(ov) {
			return false
		}
	}
	return true
}

func (t Taint) Equals(o Taint) bool {
	return t.Leq(o) && o.Leq(t)
}

// Meet keeps only locals present in both operands, narrowing each via
// LocalTaint.Meet (a true dual of Join, not a union) — used when
// narrowing a taint tree read back down to a single resolved subtype
// (spec.md §4.1 rule (iv): "meet is dual of join").
func (t Taint) Meet(o Taint) Taint {
	out := NewTaint()
	for k, v := range t.locals {
		if ov, ok := o.locals[k]; ok {
			if m := v.Meet(ov); !m.IsBottom() {
				out.locals[k] = m
			}
		}
	}
	return out
}

// NarrowWith is spec.md §4.1's narrow_with, adopting o only when it is
// already proven no more informative than t — the safe fallback a
// descending fixpoint pass takes when it cannot otherwise recover
// precision lost to an earlier Widen.
func (t Taint) NarrowWith(o Taint) Taint {
	if o.Leq(t) {
		return o
	}
	return t
}

// DifferenceWith removes from t every local present in o, used only when
// o is known-safe (spec.md §4.1: "Taint* additionally support
// difference_with (used only when known-safe)").
func (t Taint) DifferenceWith(o Taint) Taint {
	out := NewTaint()
	for k, v := range t.locals {
		if _, ok := o.locals[k]; !ok {
			out.locals[k] = v
		}
	}
	return out
}
