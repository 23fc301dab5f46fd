// Package ir defines the typed control-flow-graph and call-graph
// representation the core analysis consumes. Per spec.md §1, parsing real
// Android bytecode into this shape is an external collaborator's job
// (internal/ingest adapts either a JSON shard or real Go source into it);
// this package only defines the shape and the read-only call-graph
// queries the scheduler needs.
//
// MethodID/FieldID follow the teacher's internal/ir.Symbol
// (Package+Name+Kind, with a String() identity) generalized from a Go
// symbol to a class+method-signature pair.
package ir

import "fmt"

// MethodID identifies a method uniquely within one analysis run.
type MethodID struct {
	Class     string
	Name      string
	Signature string // e.g. "(Ljava/lang/String;)V"
}

func (m MethodID) String() string {
	return fmt.Sprintf("%s.%s%s", m.Class, m.Name, m.Signature)
}

// FieldID identifies a field.
type FieldID struct {
	Class string
	Name  string
}

func (f FieldID) String() string { return f.Class + "." + f.Name }

// LiteralID identifies a string/numeric literal tracked as a pseudo-method
// in the registry (spec.md §3: "Registry: Method -> Model, Field ->
// FieldModel, Literal -> LiteralModel").
type LiteralID string

// CallTarget is one statically resolved candidate at an invoke
// instruction; a virtual call may resolve to several (the overriding
// methods in the callee's subtree).
type CallTarget struct {
	Callee   MethodID
	Class    string // the declaring class of this particular override
	IsStatic bool
}

// CallEdge is a directed, resolved call from Caller to one of its
// invoke instructions' targets.
type CallEdge struct {
	Caller       MethodID
	Callee       MethodID
	InstrIndex   int // index of the invoke instruction within Caller's block
	BlockIndex   int
	IsVirtual    bool // true if this edge came from resolving an overridable call
	ReceiverArgs []int
}

// Method is one analyzable unit: its formal parameter count, its basic
// blocks, and whether it returns a value.
type Method struct {
	ID           MethodID
	IsStatic     bool
	NumParams    int // includes an implicit receiver at index 0 when !IsStatic
	HasReturn    bool
	Blocks       []BasicBlock
	DeclaredHere bool // false for methods only known via the call graph (e.g. stubs/APIs)
}

// BasicBlock is a straight-line sequence of instructions with explicit
// successor block indices (no implicit fallthrough past the last
// instruction, matching a typical bytecode CFG).
type BasicBlock struct {
	Instructions []Instruction
	Successors   []int
}

// CallGraph is the resolved, immutable-after-construction call graph
// (spec.md §5: "Immutable after construction: ... CallGraph"). Edges is
// keyed by caller MethodID; ReverseEdges by callee MethodID.
type CallGraph struct {
	Methods      map[MethodID]*Method
	Edges        map[MethodID][]CallEdge
	ReverseEdges map[MethodID][]CallEdge
}

// NewCallGraph returns an empty, ready-to-populate call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		Methods:      make(map[MethodID]*Method),
		Edges:        make(map[MethodID][]CallEdge),
		ReverseEdges: make(map[MethodID][]CallEdge),
	}
}

// AddMethod registers a method's body. Safe to call once per method ID
// during construction; the graph is treated as read-only afterwards.
func (g *CallGraph) AddMethod(m *Method) {
	g.Methods[m.ID] = m
}

// AddEdge records a resolved call edge in both directions.
func (g *CallGraph) AddEdge(e CallEdge) {
	g.Edges[e.Caller] = append(g.Edges[e.Caller], e)
	g.ReverseEdges[e.Callee] = append(g.ReverseEdges[e.Callee], e)
}

// Callees returns the distinct callee MethodIDs of m (de-duplicated across
// multiple call sites / virtual targets).
func (g *CallGraph) Callees(m MethodID) []MethodID {
	seen := make(map[MethodID]bool)
	var out []MethodID
	for _, e := range g.Edges[m] {
		if !seen[e.Callee] {
			seen[e.Callee] = true
			out = append(out, e.Callee)
		}
	}
	return out
}

// Callers returns the distinct caller MethodIDs of m.
func (g *CallGraph) Callers(m MethodID) []MethodID {
	seen := make(map[MethodID]bool)
	var out []MethodID
	for _, e := range g.ReverseEdges[m] {
		if !seen[e.Caller] {
			seen[e.Caller] = true
			out = append(out, e.Caller)
		}
	}
	return out
}

// AllMethods returns every known MethodID, including callees that are
// only known via the call graph (no declared body — treated as
// unanalyzable leaves using their declared model, if any).
func (g *CallGraph) AllMethods() []MethodID {
	seen := make(map[MethodID]bool, len(g.Methods))
	var out []MethodID
	for id := range g.Methods {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for id := range g.Edges {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for id := range g.ReverseEdges {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
