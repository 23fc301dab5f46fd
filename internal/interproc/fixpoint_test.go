package interproc

import (
	"context"
	"testing"
	"time"

	"github.com/taintgraph/droidtaint/internal/analysiserror"
	"github.com/taintgraph/droidtaint/internal/classhierarchy"
	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/kind"
	"github.com/taintgraph/droidtaint/internal/model"
	"github.com/taintgraph/droidtaint/internal/path"
	"github.com/taintgraph/droidtaint/internal/position"
	"github.com/taintgraph/droidtaint/internal/registry"
	"github.com/taintgraph/droidtaint/internal/rules"
	"github.com/taintgraph/droidtaint/internal/transfer"
)

const fixpointTestRules = `[
  {"name": "tainted-intent", "code": 1, "description": "user input reaches a dangerous sink",
   "sources": ["UserInput"], "sinks": ["Exec"]}
]`

func newTestInterpreter(t *testing.T, f *kind.Factory, reg *registry.Registry) *transfer.Interpreter {
	t.Helper()
	catalog, err := rules.LoadCatalog([]byte(fixpointTestRules), true, f)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	return &transfer.Interpreter{
		Kinds:    f,
		Rules:    catalog,
		Policy:   domain.DefaultWideningPolicy,
		Callees:  reg.Get,
		Interval: func(string) classhierarchy.Interval { return classhierarchy.Top },
	}
}

// buildChainGraph wires source() -> middle() -> sink(), where middle
// forwards its caller's tainted value into the sink call. The scheduler
// must analyze caller's and middle's bodies (source and sink have
// declared models only), and middle's resulting
// model should expose a sink reachable from its own parameter before the
// issue surfaces in a caller that feeds it UserInput.
func buildChainGraph(f *kind.Factory) (*ir.CallGraph, ir.MethodID, ir.MethodID, ir.MethodID) {
	sourceID := ir.MethodID{Class: "LSource;", Name: "getInput", Signature: "()Ljava/lang/String;"}
	middleID := ir.MethodID{Class: "LMiddle;", Name: "forward", Signature: "(Ljava/lang/String;)V"}
	sinkID := ir.MethodID{Class: "LSink;", Name: "exec", Signature: "(Ljava/lang/String;)V"}

	cg := ir.NewCallGraph()

	caller := &ir.Method{
		ID:       ir.MethodID{Class: "LCaller;", Name: "run", Signature: "()V"},
		IsStatic: true,
		Blocks: []ir.BasicBlock{{
			Instructions: []ir.Instruction{
				{Op: ir.OpInvoke, Dest: 0, Targets: []ir.CallTarget{{Callee: sourceID, IsStatic: true}}},
				{Op: ir.OpInvoke, Dest: -1, Srcs: []int{0}, Targets: []ir.CallTarget{{Callee: middleID, IsStatic: true}}},
				{Op: ir.OpReturn, Dest: -1},
			},
		}},
		DeclaredHere: true,
	}
	middle := &ir.Method{
		ID:        middleID,
		IsStatic:  true,
		NumParams: 1,
		Blocks: []ir.BasicBlock{{
			Instructions: []ir.Instruction{
				{Op: ir.OpInvoke, Dest: -1, Srcs: []int{0}, Targets: []ir.CallTarget{{Callee: sinkID, IsStatic: true}}},
				{Op: ir.OpReturn, Dest: -1},
			},
		}},
		DeclaredHere: true,
	}

	cg.AddMethod(caller)
	cg.AddMethod(middle)
	cg.AddEdge(ir.CallEdge{Caller: caller.ID, Callee: sourceID})
	cg.AddEdge(ir.CallEdge{Caller: caller.ID, Callee: middleID})
	cg.AddEdge(ir.CallEdge{Caller: middleID, Callee: sinkID})

	return cg, caller.ID, middleID, sinkID
}

func declaredSourceModel(f *kind.Factory, method ir.MethodID) model.Model {
	m := model.New(method.String())
	taint := domain.NewTaint().WithLocal(
		domain.NewLocalTaint(domain.CallInfo{Tag: domain.Origin, Position: position.Unknown}).
			AddFrame(classhierarchy.Top, domain.Frame{Kind: f.Named("UserInput"), Distance: 0}))
	m.WriteGeneration(path.Return(), path.Path{}, taint, domain.Weak)
	return m
}

func declaredSinkModel(f *kind.Factory, method ir.MethodID) model.Model {
	m := model.New(method.String())
	taint := domain.NewTaint().WithLocal(
		domain.NewLocalTaint(domain.CallInfo{Tag: domain.Declaration, Position: position.Unknown}).
			AddFrame(classhierarchy.Top, domain.Frame{Kind: f.Named("Exec"), Distance: 0}))
	m.WriteSink(path.Argument(0), path.Path{}, taint, domain.Weak)
	return m
}

func TestSchedulerPropagatesThroughChain(t *testing.T) {
	f := kind.NewFactory()
	cg, callerID, middleID, sinkID := buildChainGraph(f)
	sourceID := ir.MethodID{Class: "LSource;", Name: "getInput", Signature: "()Ljava/lang/String;"}

	reg := registry.New()
	reg.Set(sourceID, declaredSourceModel(f, sourceID))
	reg.Set(sinkID, declaredSinkModel(f, sinkID))

	interp := newTestInterpreter(t, f, reg)
	sched := NewScheduler(cg, interp, reg, domain.DefaultWideningPolicy)
	sched.MaxIterations = 200

	if err := sched.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	callerModel, ok := reg.Get(callerID)
	if !ok {
		t.Fatal("expected a model for the caller method")
	}
	if callerModel.Issues.Len() != 1 {
		t.Fatalf("expected exactly one issue detected in the caller, got %d: %+v", callerModel.Issues.Len(), callerModel.Issues.All())
	}

	middleModel, ok := reg.Get(middleID)
	if !ok {
		t.Fatal("expected a model for the middle method")
	}
	if middleModel.Sinks.IsBottom() {
		t.Fatal("expected middle's model to expose a sink reachable from its own parameter")
	}
}

// TestSchedulerRecordsTimeoutInErrorsCollector exercises spec.md §7's
// per-method-timeout path end to end: a method whose timeout is set to
// an instant duration must still converge (via the conservative
// fallback model) and must leave a KindPerMethodFailure entry in the
// Scheduler's Errors collector.
func TestSchedulerRecordsTimeoutInErrorsCollector(t *testing.T) {
	f := kind.NewFactory()
	cg, callerID, _, sinkID := buildChainGraph(f)
	sourceID := ir.MethodID{Class: "LSource;", Name: "getInput", Signature: "()Ljava/lang/String;"}

	reg := registry.New()
	reg.Set(sourceID, declaredSourceModel(f, sourceID))
	reg.Set(sinkID, declaredSinkModel(f, sinkID))

	interp := newTestInterpreter(t, f, reg)
	sched := NewScheduler(cg, interp, reg, domain.DefaultWideningPolicy)
	sched.MaxIterations = 200
	sched.MethodTimeout = time.Nanosecond
	sched.Errors = analysiserror.NewCollector()

	if err := sched.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := reg.Get(callerID); !ok {
		t.Fatal("expected a model for the caller despite every method timing out")
	}
	if sched.Errors.Len() == 0 {
		t.Fatal("expected at least one recorded per-method timeout error")
	}
	for _, e := range sched.Errors.All() {
		if e.Kind != analysiserror.KindPerMethodFailure {
			t.Fatalf("expected only KindPerMethodFailure entries, got %s", e.Kind)
		}
	}
}

func TestSchedulerHandlesSelfRecursiveSCC(t *testing.T) {
	f := kind.NewFactory()
	recID := ir.MethodID{Class: "LRec;", Name: "loop", Signature: "(Ljava/lang/String;)V"}

	cg := ir.NewCallGraph()
	rec := &ir.Method{
		ID:        recID,
		IsStatic:  true,
		NumParams: 1,
		Blocks: []ir.BasicBlock{{
			Instructions: []ir.Instruction{
				{Op: ir.OpInvoke, Dest: -1, Srcs: []int{0}, Targets: []ir.CallTarget{{Callee: recID, IsStatic: true}}},
				{Op: ir.OpReturn, Dest: -1},
			},
		}},
		DeclaredHere: true,
	}
	cg.AddMethod(rec)
	cg.AddEdge(ir.CallEdge{Caller: recID, Callee: recID})

	reg := registry.New()
	interp := newTestInterpreter(t, f, reg)
	sched := NewScheduler(cg, interp, reg, domain.DefaultWideningPolicy)
	sched.MaxIterations = 200

	done := make(chan error, 1)
	go func() { done <- sched.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not terminate on a self-recursive method")
	}
}
