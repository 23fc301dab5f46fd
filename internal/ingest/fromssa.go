package ingest

import (
	"fmt"
	"go/token"
	"go/types"

	"github.com/taintgraph/droidtaint/internal/ir"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/rta"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// FromGoSource builds a CallGraph from ordinary Go source under dir,
// using go/packages + go/ssa + RTA the same way the teacher's
// internal/reachability/go.go loads a module to compute reachable
// packages — here repointed at building our typed CFG/call-graph
// instead of a package-reachability report, so the whole pipeline
// (transfer, scheduler, models, output) can be exercised end to end
// without real Android bytecode.
//
// Every SSA function becomes one ir.Method (its basic blocks and
// instructions translated 1:1 where the opcode table has an analogue;
// any other value-producing instruction becomes an OpMove with no
// sources, and instructions that produce no value, such as jumps and
// branches, are dropped). Every *ssa.Call becomes an OpInvoke: a call
// to a static *ssa.Function carries that function as its one Target,
// while an interface (invoke-mode) call carries its receiver as the
// first source and no Targets. RTA's reachable-function set seeds the
// CallGraph's edges the same way reachability.analyzeGo seeds its
// reachable-package set.
func FromGoSource(dir string) (*ir.CallGraph, error) {
	cfg := &packages.Config{
		Dir: dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedCompiledGoFiles |
			packages.NeedImports |
			packages.NeedDeps |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo,
		Fset: token.NewFileSet(),
	}

	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, fmt.Errorf("ingest: load Go packages: %w", err)
	}
	for _, p := range pkgs {
		if len(p.Errors) > 0 {
			return nil, fmt.Errorf("ingest: package %s has load errors: %v", p.PkgPath, p.Errors[0])
		}
	}

	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	g := ir.NewCallGraph()
	fnByValue := make(map[*ssa.Function]ir.MethodID)

	for _, p := range ssaPkgs {
		if p == nil {
			continue
		}
		for _, member := range p.Members {
			fn, ok := member.(*ssa.Function)
			if !ok {
				continue
			}
			id := methodIDForFunc(fn)
			fnByValue[fn] = id
			g.AddMethod(buildMethod(id, fn))
		}
	}

	var roots []*ssa.Function
	for _, p := range ssaPkgs {
		if p == nil || p.Pkg.Name() != "main" {
			continue
		}
		if f := p.Func("main"); f != nil {
			roots = append(roots, f)
		}
		if f := p.Func("init"); f != nil {
			roots = append(roots, f)
		}
	}
	if len(roots) > 0 {
		result := rta.Analyze(roots, true)
		result.CallGraph.DeleteSyntheticNodes()
		callgraph.GraphVisitEdges(result.CallGraph, func(e *callgraph.Edge) error {
			callerID, ok := fnByValue[e.Caller.Func]
			if !ok {
				return nil
			}
			calleeID, ok := fnByValue[e.Callee.Func]
			if !ok {
				return nil
			}
			g.AddEdge(ir.CallEdge{Caller: callerID, Callee: calleeID, IsVirtual: true})
			return nil
		})
	}

	return g, nil
}

func methodIDForFunc(fn *ssa.Function) ir.MethodID {
	class := "<package>"
	if recv := fn.Signature.Recv(); recv != nil {
		class = types.TypeString(recv.Type(), nil)
	} else if fn.Pkg != nil {
		class = fn.Pkg.Pkg.Path()
	}
	return ir.MethodID{Class: class, Name: fn.Name(), Signature: fn.Signature.String()}
}

func buildMethod(id ir.MethodID, fn *ssa.Function) *ir.Method {
	m := &ir.Method{
		ID:           id,
		NumParams:    len(fn.Params),
		HasReturn:    fn.Signature.Results() != nil && fn.Signature.Results().Len() > 0,
		DeclaredHere: true,
	}
	valueIndex := make(map[ssa.Value]int)
	nextReg := 0
	regOf := func(v ssa.Value) int {
		if idx, ok := valueIndex[v]; ok {
			return idx
		}
		idx := nextReg
		nextReg++
		valueIndex[v] = idx
		return idx
	}
	for _, p := range fn.Params {
		regOf(p)
	}

	blockIndex := make(map[*ssa.BasicBlock]int, len(fn.Blocks))
	for i, b := range fn.Blocks {
		blockIndex[b] = i
	}

	for _, b := range fn.Blocks {
		block := ir.BasicBlock{}
		for _, succ := range b.Succs {
			block.Successors = append(block.Successors, blockIndex[succ])
		}
		for _, instr := range b.Instrs {
			converted, ok := convertSSAInstruction(instr, regOf)
			if ok {
				block.Instructions = append(block.Instructions, converted)
			}
		}
		m.Blocks = append(m.Blocks, block)
	}
	return m
}

func convertSSAInstruction(instr ssa.Instruction, regOf func(ssa.Value) int) (ir.Instruction, bool) {
	switch v := instr.(type) {
	case *ssa.Call:
		out := ir.Instruction{Op: ir.OpInvoke, Dest: -1}
		if v.Call.IsInvoke() {
			out.Srcs = append(out.Srcs, regOf(v.Call.Value))
		} else if v.Call.Value != nil {
			if callee, ok := v.Call.Value.(*ssa.Function); ok {
				out.Targets = append(out.Targets, ir.CallTarget{Callee: methodIDForFunc(callee), IsStatic: true})
			}
		}
		for _, a := range v.Call.Args {
			out.Srcs = append(out.Srcs, regOf(a))
		}
		if v.Type() != nil {
			out.Dest = regOf(v)
		}
		return out, true
	case *ssa.Return:
		out := ir.Instruction{Op: ir.OpReturn, Dest: -1}
		for _, r := range v.Results {
			out.Srcs = append(out.Srcs, regOf(r))
		}
		return out, true
	case *ssa.FieldAddr:
		return ir.Instruction{Op: ir.OpIget, Dest: regOf(v), Srcs: []int{regOf(v.X)}, Field: ir.FieldID{Name: fmt.Sprintf("f%d", v.Field)}}, true
	case *ssa.Store:
		return ir.Instruction{Op: ir.OpIput, Dest: -1, Srcs: []int{regOf(v.Addr), regOf(v.Val)}}, true
	case *ssa.Alloc:
		return ir.Instruction{Op: ir.OpNewInstance, Dest: regOf(v)}, true
	case *ssa.MakeClosure:
		return ir.Instruction{Op: ir.OpMove, Dest: regOf(v)}, true
	case *ssa.Panic:
		return ir.Instruction{Op: ir.OpThrow, Dest: -1, Srcs: []int{regOf(v.X)}}, true
	case ssa.Value:
		return ir.Instruction{Op: ir.OpMove, Dest: regOf(v)}, true
	default:
		return ir.Instruction{}, false
	}
}
