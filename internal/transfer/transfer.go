// Package transfer implements the intraprocedural instruction semantics
// (spec.md §4.2), the interprocedural call-site application algorithm
// (spec.md §4.3), and the per-method forward monotone fixpoint driver
// (spec.md §4.4) that together turn one internal/ir.Method plus its
// callees' internal/model.Models into that method's own Model.
//
// The instruction dispatch table's shape — one function per opcode,
// switched on in a single loop that folds a new Environment out of the
// old one — follows the teacher's internal/interproc/fixpoint.go
// "apply one step, compare to the fixed point, repeat" structure,
// generalized from a capability-bitset step to a full taint Environment
// step.
package transfer

import (
	"github.com/taintgraph/droidtaint/internal/classhierarchy"
	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/kind"
	"github.com/taintgraph/droidtaint/internal/model"
	"github.com/taintgraph/droidtaint/internal/path"
	"github.com/taintgraph/droidtaint/internal/position"
	"github.com/taintgraph/droidtaint/internal/rules"
)

// CalleeModels resolves a callee method's current Model, as tracked by
// the registry across the whole-program fixpoint. Returning
// (model.Model{}, false) signals "no declared or inferred model yet",
// which the call-site application treats as bottom (spec.md §4.4: "a
// callee with no model yet contributes bottom, not an error").
type CalleeModels func(ir.MethodID) (model.Model, bool)

// ClassIntervalOf resolves the declared-type class interval for a class
// name; transferInvoke looks it up for every resolved call target
// (spec.md §4.6).
type ClassIntervalOf func(class string) classhierarchy.Interval

// Interpreter holds the shared, read-only context for one analysis run:
// the interned-kind factory, the rule catalog used for issue detection,
// the widening thresholds, and the callbacks used to resolve callee
// models and class intervals. One Interpreter is reused across every
// method in the program (spec.md §5: "Immutable after construction").
type Interpreter struct {
	Kinds    *kind.Factory
	Rules    *rules.Catalog
	Policy   domain.WideningPolicy
	Callees  CalleeModels
	Interval ClassIntervalOf
}

// state is the mutable per-method working set threaded through one
// fixpoint run: the memory arena, the position factory used to stamp
// Frame.CallPosition, and the Model being accumulated.
type state struct {
	method *ir.Method
	table  *domain.MemoryTable
	pos    *position.Factory
	model  model.Model
}

// newState allocates the per-method memory table, position factory and
// bottom model; entryEnvironment binds the parameter registers. No
// ParameterSource frame is written into the model.
func newState(m *ir.Method) *state {
	return &state{
		method: m,
		table:  domain.NewMemoryTable(),
		pos:    position.NewFactory(),
		model:  model.New(m.ID.String()),
	}
}

// entryEnvironment builds the Environment at the method entry block:
// every formal parameter register points strongly at its own memory
// location.
func (s *state) entryEnvironment() *domain.Environment {
	env := domain.NewEnvironment(s.table)
	for i := 0; i < s.method.NumParams; i++ {
		env = env.BindRegister(i, s.table.Parameter(i))
	}
	return env
}

// Step applies one instruction's transfer function, returning the
// resulting Environment. idx is the instruction's method-wide index
// (numbered across all blocks in order), used to key its result memory
// location.
func (it *Interpreter) Step(s *state, env *domain.Environment, instr ir.Instruction, idx int) *domain.Environment {
	switch instr.Op {
	case ir.OpConst:
		return env.BindRegister(instr.Dest, s.table.Instruction(idx))
	case ir.OpMove:
		return it.transferMove(s, env, instr, idx)
	case ir.OpNewInstance, ir.OpNewArray:
		return env.BindRegister(instr.Dest, s.table.Instruction(idx))
	case ir.OpFilledNewArray:
		loc := s.table.Instruction(idx)
		out := env.BindRegister(instr.Dest, loc)
		elems := domain.BottomTaint
		for _, src := range instr.Srcs {
			elems = elems.Join(it.taintOfRegister(env, src))
		}
		if !elems.IsBottom() {
			out = out.WriteTaint(s.table.MakeField(loc, instr.Field.Name), path.Path{}, elems, domain.Weak)
		}
		return out
	case ir.OpCheckCast:
		return it.transferMove(s, env, instr, idx)
	case ir.OpIget:
		return it.transferIget(s, env, instr, idx)
	case ir.OpIput:
		return it.transferIput(s, env, instr)
	case ir.OpSget:
		return env.BindRegister(instr.Dest, s.table.Instruction(idx))
	case ir.OpSput:
		return env
	case ir.OpAget:
		return it.transferIget(s, env, instr, idx)
	case ir.OpAput:
		return it.transferIput(s, env, instr)
	case ir.OpInvoke:
		return it.transferInvoke(s, env, instr, idx)
	case ir.OpReturn:
		return it.transferReturn(s, env, instr)
	case ir.OpThrow:
		return it.transferThrow(s, env, instr)
	case ir.OpPhi:
		return it.transferPhi(s, env, instr)
	default:
		return env
	}
}

func (it *Interpreter) transferMove(s *state, env *domain.Environment, instr ir.Instruction, idx int) *domain.Environment {
	if len(instr.Srcs) == 0 {
		return env.BindRegister(instr.Dest, s.table.Instruction(idx))
	}
	out := env
	for _, loc := range env.LocationsOf(instr.Srcs[0]) {
		out = out.AddRegisterPoint(instr.Dest, loc)
	}
	return out
}

// transferPhi is a weak join of every incoming register's locations,
// same as transferMove but over every source rather than just the first
// (spec.md §4.2: "phi: union of every incoming register's memory
// locations").
func (it *Interpreter) transferPhi(s *state, env *domain.Environment, instr ir.Instruction) *domain.Environment {
	out := env
	for _, src := range instr.Srcs {
		for _, loc := range env.LocationsOf(src) {
			out = out.AddRegisterPoint(instr.Dest, loc)
		}
	}
	return out
}

// transferIget reads a field off the receiver's memory location(s),
// deriving (and memoizing) the per-field child cell, and reads whatever
// taint was previously written there (spec.md §4.2: "iget: deref +
// make_field").
func (it *Interpreter) transferIget(s *state, env *domain.Environment, instr ir.Instruction, idx int) *domain.Environment {
	if len(instr.Srcs) == 0 {
		return env.BindRegister(instr.Dest, s.table.Instruction(idx))
	}
	out := env
	for _, recvLoc := range env.LocationsOf(instr.Srcs[0]) {
		fieldLoc := s.table.MakeField(recvLoc, instr.Field.Name)
		out = out.AddRegisterPoint(instr.Dest, fieldLoc)
	}
	return out
}

// transferIput writes the source register's taint to the receiver's
// field cell. Every candidate receiver location gets a weak write,
// since aliasing means we cannot be sure which concrete object the
// abstract cell represents (spec.md §4.2: "iput is always a weak write
// onto the field cell, never strong, because the points-to set is an
// over-approximation").
//
// On the first iput encountered in the method, if both the receiver and
// the value resolve to a single singleton memory location rooted at a
// parameter, also infer InlineAsSetter as "target=value" access-path
// constants (spec.md §4.2: "On the first iput of a method with a
// single-src and single-target singleton cell, infer
// inline_as_setter(target, value)"), the setter counterpart of
// transferReturn's InlineAsGetter inference below.
func (it *Interpreter) transferIput(s *state, env *domain.Environment, instr ir.Instruction) *domain.Environment {
	if len(instr.Srcs) < 2 {
		return env
	}
	out := env
	srcTaint := it.taintOfRegister(env, instr.Srcs[1])
	for _, recvLoc := range env.LocationsOf(instr.Srcs[0]) {
		fieldLoc := s.table.MakeField(recvLoc, instr.Field.Name)
		out = out.WriteTaint(fieldLoc, path.Path{}, srcTaint, domain.Weak)
	}

	if s.model.InlineAsSetter == "" {
		if target, ok := s.singletonParameterPath(env, instr.Srcs[0], instr.Field.Name); ok {
			if value, ok := s.singletonParameterPath(env, instr.Srcs[1], ""); ok {
				s.model.InlineAsSetter = target + "=" + value
			}
		}
	}
	return out
}

// singletonParameterPath reports the constant access-path string of reg
// when reg resolves to exactly one memory location rooted at a formal
// parameter — the "singleton cell" precondition transferIput's
// InlineAsSetter inference and transferReturn's InlineAsGetter inference
// both require, since a non-singleton points-to set means the callee
// itself is unsure which object it reads or writes, so no caller-side
// substitution is safe. extraField, if non-empty, is appended as one
// more field-access step beyond reg's own location (used for the iput
// receiver, whose target is the field being written, not reg itself).
func (s *state) singletonParameterPath(env *domain.Environment, reg int, extraField string) (string, bool) {
	locs := env.LocationsOf(reg)
	if len(locs) != 1 {
		return "", false
	}
	loc := locs[0]
	if extraField != "" {
		loc = s.table.MakeField(loc, extraField)
	}
	isParam, idx := s.table.Root(loc)
	if !isParam {
		return "", false
	}
	return path.Argument(idx).String() + s.table.FieldPathOf(loc).String(), true
}

func (it *Interpreter) transferReturn(s *state, env *domain.Environment, instr ir.Instruction) *domain.Environment {
	if len(instr.Srcs) == 0 {
		return env
	}
	t := it.taintOfRegister(env, instr.Srcs[0])
	if t.IsBottom() {
		return env
	}
	s.model.WriteGeneration(path.Return(), path.Path{}, t, domain.Weak)
	if s.model.InlineAsGetter == "" {
		if value, ok := s.singletonParameterPath(env, instr.Srcs[0], ""); ok {
			s.model.InlineAsGetter = value
		}
	}
	return env
}

// transferThrow treats the thrown value as escaping the method along an
// exceptional edge, the same as a return for generation purposes, except
// that the generation is written at the synthetic CallEffect root
// (SPEC_FULL.md §4.2) so exception-carried taint is not dropped.
func (it *Interpreter) transferThrow(s *state, env *domain.Environment, instr ir.Instruction) *domain.Environment {
	if len(instr.Srcs) == 0 {
		return env
	}
	t := it.taintOfRegister(env, instr.Srcs[0])
	if !t.IsBottom() {
		s.model.WriteGeneration(path.CallEffect(), path.Path{}, t, domain.Weak)
	}
	return env
}

// taintOfRegister joins the taint trees at every memory location reg may
// point to, read at the empty path (the root taint of the value).
func (it *Interpreter) taintOfRegister(env *domain.Environment, reg int) domain.Taint {
	out := domain.BottomTaint
	for _, loc := range env.LocationsOf(reg) {
		tr := env.TaintAt(loc)
		if tr == nil {
			continue
		}
		out = out.Join(tr.Read(path.Path{}, identityPropagate))
	}
	return out
}

func identityPropagate(t domain.Taint, _ path.PathElement) domain.Taint { return t }
