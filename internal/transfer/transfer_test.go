package transfer

import (
	"testing"
	"time"

	"github.com/taintgraph/droidtaint/internal/classhierarchy"
	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/kind"
	"github.com/taintgraph/droidtaint/internal/model"
	"github.com/taintgraph/droidtaint/internal/path"
	"github.com/taintgraph/droidtaint/internal/position"
	"github.com/taintgraph/droidtaint/internal/rules"
)

func testInterpreter(t *testing.T, f *kind.Factory, rulesDoc string, callees map[ir.MethodID]model.Model) *Interpreter {
	t.Helper()
	catalog, err := rules.LoadCatalog([]byte(rulesDoc), true, f)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	return &Interpreter{
		Kinds:  f,
		Rules:  catalog,
		Policy: domain.DefaultWideningPolicy,
		Callees: func(id ir.MethodID) (model.Model, bool) {
			m, ok := callees[id]
			return m, ok
		},
		Interval: func(class string) classhierarchy.Interval { return classhierarchy.Top },
	}
}

const testRules = `[
  {"name": "tainted-intent", "code": 1, "description": "user input reaches a dangerous sink",
   "sources": ["UserInput"], "sinks": ["Exec"]}
]`

func sourceModel(f *kind.Factory) model.Model {
	m := model.New("LSource;.getInput()Ljava/lang/String;")
	taint := domain.NewTaint().WithLocal(
		domain.NewLocalTaint(domain.CallInfo{Tag: domain.Origin, Position: position.Unknown}).
			AddFrame(classhierarchy.Top, domain.Frame{Kind: f.Named("UserInput"), Distance: 0}))
	m.WriteGeneration(path.Return(), path.Path{}, taint, domain.Weak)
	return m
}

func sinkModel(f *kind.Factory) model.Model {
	m := model.New("LSink;.exec(Ljava/lang/String;)V")
	taint := domain.NewTaint().WithLocal(
		domain.NewLocalTaint(domain.CallInfo{Tag: domain.Declaration, Position: position.Unknown}).
			AddFrame(classhierarchy.Top, domain.Frame{Kind: f.Named("Exec"), Distance: 0}))
	m.WriteSink(path.Argument(0), path.Path{}, taint, domain.Weak)
	return m
}

// buildCallerMethod constructs: r0 = invoke Source.getInput(); invoke
// Sink.exec(r0); return.
func buildCallerMethod() *ir.Method {
	sourceID := ir.MethodID{Class: "LSource;", Name: "getInput", Signature: "()Ljava/lang/String;"}
	sinkID := ir.MethodID{Class: "LSink;", Name: "exec", Signature: "(Ljava/lang/String;)V"}
	return &ir.Method{
		ID:        ir.MethodID{Class: "LCaller;", Name: "run", Signature: "()V"},
		IsStatic:  true,
		NumParams: 0,
		Blocks: []ir.BasicBlock{{
			Instructions: []ir.Instruction{
				{Op: ir.OpInvoke, Dest: 0, Targets: []ir.CallTarget{{Callee: sourceID, IsStatic: true}}},
				{Op: ir.OpInvoke, Dest: -1, Srcs: []int{0}, Targets: []ir.CallTarget{{Callee: sinkID, IsStatic: true}}},
				{Op: ir.OpReturn, Dest: -1},
			},
		}},
	}
}

func TestAnalyzeMethodDetectsSourceToSinkIssue(t *testing.T) {
	f := kind.NewFactory()
	sourceID := ir.MethodID{Class: "LSource;", Name: "getInput", Signature: "()Ljava/lang/String;"}
	sinkID := ir.MethodID{Class: "LSink;", Name: "exec", Signature: "(Ljava/lang/String;)V"}

	it := testInterpreter(t, f, testRules, map[ir.MethodID]model.Model{
		sourceID: sourceModel(f),
		sinkID:   sinkModel(f),
	})

	m := it.AnalyzeMethod(buildCallerMethod())
	if m.Issues.Len() != 1 {
		t.Fatalf("expected exactly one issue, got %d: %+v", m.Issues.Len(), m.Issues.All())
	}
	iss := m.Issues.All()[0]
	if iss.RuleCode != 1 {
		t.Fatalf("expected rule code 1, got %d", iss.RuleCode)
	}
}

func TestAnalyzeMethodNoSourceNoIssue(t *testing.T) {
	f := kind.NewFactory()
	sourceID := ir.MethodID{Class: "LSource;", Name: "getInput", Signature: "()Ljava/lang/String;"}
	sinkID := ir.MethodID{Class: "LSink;", Name: "exec", Signature: "(Ljava/lang/String;)V"}

	benign := model.New(sourceID.String())
	it := testInterpreter(t, f, testRules, map[ir.MethodID]model.Model{
		sourceID: benign,
		sinkID:   sinkModel(f),
	})

	m := it.AnalyzeMethod(buildCallerMethod())
	if m.Issues.Len() != 0 {
		t.Fatalf("expected no issues when the source carries no taint, got %d", m.Issues.Len())
	}
}

func TestAnalyzeMethodUnresolvedCallDoesNotPanic(t *testing.T) {
	f := kind.NewFactory()
	it := testInterpreter(t, f, testRules, map[ir.MethodID]model.Model{})
	method := &ir.Method{
		ID: ir.MethodID{Class: "LCaller;", Name: "run", Signature: "()V"},
		Blocks: []ir.BasicBlock{{
			Instructions: []ir.Instruction{
				{Op: ir.OpInvoke, Dest: 0},
				{Op: ir.OpReturn, Dest: -1},
			},
		}},
	}
	m := it.AnalyzeMethod(method)
	if m.Issues.Len() != 0 {
		t.Fatalf("expected no issues, got %d", m.Issues.Len())
	}
}

func TestAnalyzeMethodLoopTerminates(t *testing.T) {
	f := kind.NewFactory()
	it := testInterpreter(t, f, testRules, map[ir.MethodID]model.Model{})
	// Block 0 -> block 1 (body, self-loop) -> block 2 (exit).
	method := &ir.Method{
		ID: ir.MethodID{Class: "LCaller;", Name: "loop", Signature: "()V"},
		Blocks: []ir.BasicBlock{
			{Instructions: []ir.Instruction{{Op: ir.OpConst, Dest: 0}}, Successors: []int{1}},
			{Instructions: []ir.Instruction{{Op: ir.OpMove, Dest: 0, Srcs: []int{0}}}, Successors: []int{1, 2}},
			{Instructions: []ir.Instruction{{Op: ir.OpReturn, Dest: -1, Srcs: []int{0}}}},
		},
	}
	done := make(chan struct{})
	go func() {
		it.AnalyzeMethod(method)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("AnalyzeMethod did not terminate on a looping CFG")
	}
}
