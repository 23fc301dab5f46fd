package domain

import (
	"github.com/taintgraph/droidtaint/internal/path"
	"github.com/taintgraph/droidtaint/internal/position"
)

// Environment is the per-instruction lattice element of the method
// transfer (spec.md §3): a partition from registers to the memory
// locations they may alias, a map from memory location to its taint
// tree, and two small constant-propagation domains used by the
// transfer functions (last source position seen, last parameter index
// loaded — needed to attribute a later instruction's provenance).
type Environment struct {
	table *MemoryTable

	// registerPoints partitions registers into the (possibly several)
	// memory locations they may point to — an over-approximation of
	// aliasing, same shape as a points-to set.
	registerPoints map[int]map[MemoryLocation]bool

	// locationTaint is the taint tree rooted at each memory location.
	locationTaint map[MemoryLocation]*TaintTree

	LastPosition      constantPosition
	LastParameterLoad constantInt
}

// constantPosition is the small constant-propagation lattice used for
// "last-position": Unknown (bottom AND top, since we never need a
// genuine top) until set once, then Value, then Conflicting once two
// distinct values are joined (spec.md §3: "last-position (constant
// domain)").
type constantPosition struct {
	known       bool
	conflicting bool
	value       *position.Position
}

func (c constantPosition) Join(o constantPosition) constantPosition {
	if !c.known {
		return o
	}
	if !o.known {
		return c
	}
	if c.conflicting || o.conflicting || c.value != o.value {
		return constantPosition{known: true, conflicting: true}
	}
	return c
}

func constPos(p *position.Position) constantPosition {
	return constantPosition{known: true, value: p}
}

// constantInt mirrors constantPosition for an integer constant (the last
// loaded parameter index).
type constantInt struct {
	known       bool
	conflicting bool
	value       int
}

func (c constantInt) Join(o constantInt) constantInt {
	if !c.known {
		return o
	}
	if !o.known {
		return c
	}
	if c.conflicting || o.conflicting || c.value != o.value {
		return constantInt{known: true, conflicting: true}
	}
	return c
}

func constInt(v int) constantInt { return constantInt{known: true, value: v} }

// NewEnvironment returns the bottom environment for a method backed by
// table (shared across every Environment value within one method's
// fixpoint, since MemoryLocation indices are only meaningful relative to
// one table).
func NewEnvironment(table *MemoryTable) *Environment {
	return &Environment{
		table:          table,
		registerPoints: make(map[int]map[MemoryLocation]bool),
		locationTaint:  make(map[MemoryLocation]*TaintTree),
	}
}

func (e *Environment) clone() *Environment {
	out := &Environment{
		table:             e.table,
		registerPoints:    make(map[int]map[MemoryLocation]bool, len(e.registerPoints)),
		locationTaint:     make(map[MemoryLocation]*TaintTree, len(e.locationTaint)),
		LastPosition:      e.LastPosition,
		LastParameterLoad: e.LastParameterLoad,
	}
	for r, locs := range e.registerPoints {
		cp := make(map[MemoryLocation]bool, len(locs))
		for l := range locs {
			cp[l] = true
		}
		out.registerPoints[r] = cp
	}
	for l, tr := range e.locationTaint {
		out.locationTaint[l] = tr
	}
	return out
}

// BindRegister sets register reg to point only at loc (a strong update,
// e.g. after const/move/new-instance).
func (e *Environment) BindRegister(reg int, loc MemoryLocation) *Environment {
	out := e.clone()
	out.registerPoints[reg] = map[MemoryLocation]bool{loc: true}
	return out
}

// AddRegisterPoint adds loc to reg's possible locations without removing
// the existing ones (a weak update, used at join points / phis).
func (e *Environment) AddRegisterPoint(reg int, loc MemoryLocation) *Environment {
	out := e.clone()
	if out.registerPoints[reg] == nil {
		out.registerPoints[reg] = make(map[MemoryLocation]bool)
	}
	out.registerPoints[reg][loc] = true
	return out
}

// LocationsOf returns the memory locations register reg may point to.
func (e *Environment) LocationsOf(reg int) []MemoryLocation {
	out := make([]MemoryLocation, 0, len(e.registerPoints[reg]))
	for l := range e.registerPoints[reg] {
		out = append(out, l)
	}
	return out
}

// TaintAt returns the taint tree rooted at loc.
func (e *Environment) TaintAt(loc MemoryLocation) *TaintTree {
	return e.locationTaint[loc]
}

// WriteTaint writes taint at (loc, p) using kind.
func (e *Environment) WriteTaint(loc MemoryLocation, p path.Path, taint Taint, kind WriteKind) *Environment {
	out := e.clone()
	out.locationTaint[loc] = out.locationTaint[loc].Write(p, taint, kind)
	return out
}

// Table returns the shared memory arena backing this environment.
func (e *Environment) Table() *MemoryTable { return e.table }

func (e *Environment) IsBottom() bool {
	if e == nil {
		return true
	}
	for _, tr := range e.locationTaint {
		if !tr.IsBottom() {
			return false
		}
	}
	return len(e.registerPoints) == 0
}

// Join merges two environments: register partitions union, location
// taint trees join, and the two constant domains join per their own
// rule.
func (e *Environment) Join(o *Environment) *Environment {
	if e.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return e
	}
	out := e.clone()
	for r, locs := range o.registerPoints {
		if out.registerPoints[r] == nil {
			out.registerPoints[r] = make(map[MemoryLocation]bool, len(locs))
		}
		for l := range locs {
			out.registerPoints[r][l] = true
		}
	}
	for l, tr := range o.locationTaint {
		out.locationTaint[l] = out.locationTaint[l].Join(tr)
	}
	out.LastPosition = e.LastPosition.Join(o.LastPosition)
	out.LastParameterLoad = e.LastParameterLoad.Join(o.LastParameterLoad)
	return out
}

func (e *Environment) Widen(o *Environment, maxDistance, maxDepth int) *Environment {
	if e.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return e
	}
	out := e.clone()
	for r, locs := range o.registerPoints {
		if out.registerPoints[r] == nil {
			out.registerPoints[r] = make(map[MemoryLocation]bool, len(locs))
		}
		for l := range locs {
			out.registerPoints[r][l] = true
		}
	}
	for l, tr := range o.locationTaint {
		out.locationTaint[l] = out.locationTaint[l].Widen(tr, maxDistance, maxDepth)
	}
	out.LastPosition = e.LastPosition.Join(o.LastPosition)
	out.LastParameterLoad = e.LastParameterLoad.Join(o.LastParameterLoad)
	return out
}

// Leq holds when every register partition and location taint tree of e
// is subsumed by o's.
func (e *Environment) Leq(o *Environment) bool {
	if e.IsBottom() {
		return true
	}
	if o == nil {
		return false
	}
	for r, locs := range e.registerPoints {
		olocs := o.registerPoints[r]
		for l := range locs {
			if !olocs[l] {
				return false
			}
		}
	}
	for l, tr := range e.locationTaint {
		if !tr.Leq(o.locationTaint[l]) {
			return false
		}
	}
	return true
}

func (e *Environment) Equals(o *Environment) bool {
	return e.Leq(o) && o.Leq(e)
}

// NarrowWith is spec.md §4.1's narrow_with: register partitions keep only
// the locations o agrees e may point to (the dual of Join's union), and
// each location's taint tree narrows via TaintTree.NarrowWith.
func (e *Environment) NarrowWith(o *Environment) *Environment {
	if e.IsBottom() {
		return NewEnvironment(e.table)
	}
	if o == nil {
		return e
	}
	out := e.clone()
	for r, locs := range out.registerPoints {
		olocs := o.registerPoints[r]
		narrowed := make(map[MemoryLocation]bool, len(locs))
		for l := range locs {
			if olocs[l] {
				narrowed[l] = true
			}
		}
		out.registerPoints[r] = narrowed
	}
	for l, tr := range out.locationTaint {
		out.locationTaint[l] = tr.NarrowWith(o.locationTaint[l])
	}
	return out
}
