// Package ingest adapts external representations into the typed
// internal/ir.CallGraph the rest of the analysis consumes, standing in
// for the out-of-scope bytecode parser (SPEC_FULL.md §6). Two adapters
// are provided: a JSON CFG shard reader (the primary path: pre-parsed
// Android bytecode shipped by an external subsystem) and an optional
// Go-SSA adapter that lets the whole pipeline run against ordinary Go
// source when no such shard is available. The JSON shard reader's
// shape is grounded on internal/graph/loader.go's "decode a JSON
// document into raw structs, then build the typed graph" two-phase
// pattern.
package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/taintgraph/droidtaint/internal/classhierarchy"
	"github.com/taintgraph/droidtaint/internal/config"
	"github.com/taintgraph/droidtaint/internal/ir"
)

// jsonMethod mirrors one entry of the methods.json-shaped CFG shard
// (SPEC_FULL.md §6: "one object per method with its basic blocks/
// instructions").
type jsonMethod struct {
	Class        string            `json:"class"`
	Name         string            `json:"name"`
	Signature    string            `json:"signature"`
	IsStatic     bool              `json:"is_static"`
	NumParams    int               `json:"num_params"`
	HasReturn    bool              `json:"has_return"`
	Blocks       []jsonBlock       `json:"blocks"`
}

type jsonBlock struct {
	Instructions []jsonInstruction `json:"instructions"`
	Successors   []int             `json:"successors"`
}

type jsonInstruction struct {
	Op      string        `json:"op"`
	Dest    int           `json:"dest"`
	Srcs    []int         `json:"srcs"`
	Field   jsonFieldRef  `json:"field,omitempty"`
	Class   string        `json:"class,omitempty"`
	Literal string        `json:"literal,omitempty"`
	Targets []jsonTarget  `json:"targets,omitempty"`
	Line    int           `json:"line,omitempty"`
}

type jsonFieldRef struct {
	Class string `json:"class"`
	Name  string `json:"name"`
}

type jsonTarget struct {
	Class     string `json:"class"`
	Name      string `json:"name"`
	Signature string `json:"signature"`
	IsStatic  bool   `json:"is_static"`
}

var opByName = map[string]ir.Opcode{
	"const":            ir.OpConst,
	"move":             ir.OpMove,
	"iget":             ir.OpIget,
	"iput":             ir.OpIput,
	"sget":             ir.OpSget,
	"sput":             ir.OpSput,
	"aget":             ir.OpAget,
	"aput":             ir.OpAput,
	"new-instance":     ir.OpNewInstance,
	"new-array":        ir.OpNewArray,
	"filled-new-array": ir.OpFilledNewArray,
	"invoke":           ir.OpInvoke,
	"return":           ir.OpReturn,
	"throw":            ir.OpThrow,
	"check-cast":       ir.OpCheckCast,
	"phi":              ir.OpPhi,
}

// LoadCFGShard decodes a methods.json-shaped document into a CallGraph
// with resolved method bodies but no call edges (edges are resolved
// separately by ResolveCallGraph once every shard in a run has been
// loaded, since a callee may live in a different shard than its caller).
func LoadCFGShard(data []byte, strict bool) (*ir.CallGraph, error) {
	var raw []jsonMethod
	if err := config.DecodeJSON(data, &raw, strict); err != nil {
		return nil, err
	}
	g := ir.NewCallGraph()
	for _, jm := range raw {
		m, err := convertMethod(jm)
		if err != nil {
			return nil, err
		}
		g.AddMethod(m)
	}
	return g, nil
}

func convertMethod(jm jsonMethod) (*ir.Method, error) {
	m := &ir.Method{
		ID:           ir.MethodID{Class: jm.Class, Name: jm.Name, Signature: jm.Signature},
		IsStatic:     jm.IsStatic,
		NumParams:    jm.NumParams,
		HasReturn:    jm.HasReturn,
		DeclaredHere: true,
	}
	for _, jb := range jm.Blocks {
		block := ir.BasicBlock{Successors: append([]int(nil), jb.Successors...)}
		for _, ji := range jb.Instructions {
			instr, err := convertInstruction(ji)
			if err != nil {
				return nil, fmt.Errorf("method %s: %w", m.ID, err)
			}
			block.Instructions = append(block.Instructions, instr)
		}
		m.Blocks = append(m.Blocks, block)
	}
	return m, nil
}

func convertInstruction(ji jsonInstruction) (ir.Instruction, error) {
	op, ok := opByName[ji.Op]
	if !ok {
		return ir.Instruction{}, fmt.Errorf("unknown opcode %q", ji.Op)
	}
	instr := ir.Instruction{
		Op:      op,
		Dest:    ji.Dest,
		Srcs:    append([]int(nil), ji.Srcs...),
		Class:   ji.Class,
		Literal: ji.Literal,
		Pos:     ji.Line,
	}
	if ji.Field.Name != "" {
		instr.Field = ir.FieldID{Class: ji.Field.Class, Name: ji.Field.Name}
	}
	for _, jt := range ji.Targets {
		instr.Targets = append(instr.Targets, ir.CallTarget{
			Callee:   ir.MethodID{Class: jt.Class, Name: jt.Name, Signature: jt.Signature},
			Class:    jt.Class,
			IsStatic: jt.IsStatic,
		})
	}
	return instr, nil
}

// ResolveCallGraph walks every declared method's invoke instructions and
// adds the resolved CallEdges, after every shard that might contain a
// callee has already been merged in via Merge.
func ResolveCallGraph(g *ir.CallGraph) {
	for _, id := range g.AllMethods() {
		m, ok := g.Methods[id]
		if !ok {
			continue
		}
		for bi, b := range m.Blocks {
			for ii, instr := range b.Instructions {
				if instr.Op != ir.OpInvoke {
					continue
				}
				for _, t := range instr.Targets {
					g.AddEdge(ir.CallEdge{
						Caller:     id,
						Callee:     t.Callee,
						InstrIndex: ii,
						BlockIndex: bi,
						IsVirtual:  len(instr.Targets) > 1,
					})
				}
			}
		}
	}
}

// Merge folds src's methods into dst, returning dst for chaining. Used
// to combine multiple CFG shards (each covering a subset of classes)
// into the single CallGraph the scheduler operates over.
func Merge(dst, src *ir.CallGraph) *ir.CallGraph {
	for id, m := range src.Methods {
		dst.Methods[id] = m
	}
	return dst
}

// jsonClassHierarchy mirrors the optional class_hierarchies.json input
// shard: for each class, its direct subclasses.
type jsonClassHierarchy struct {
	Roots    []string            `json:"roots"`
	Children map[string][]string `json:"children"`
}

// LoadClassHierarchy decodes a class_hierarchies.json-shaped document.
func LoadClassHierarchy(data []byte, strict bool) (classhierarchy.Hierarchy, error) {
	var raw jsonClassHierarchy
	if err := config.DecodeJSON(data, &raw, strict); err != nil {
		return classhierarchy.Hierarchy{}, err
	}
	return classhierarchy.Hierarchy{Children: raw.Children, Roots: raw.Roots}, nil
}
