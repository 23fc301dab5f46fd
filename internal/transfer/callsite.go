package transfer

import (
	"strconv"
	"strings"

	"github.com/taintgraph/droidtaint/internal/classhierarchy"
	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/feature"
	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/model"
	"github.com/taintgraph/droidtaint/internal/path"
	"github.com/taintgraph/droidtaint/internal/position"
)

// transferInvoke is the call-site application algorithm of spec.md §4.3,
// folded into the instruction dispatch loop. For every statically
// possible target (more than one at a virtual call site), it:
//
//  1. gathers each argument register's current Taint,
//  2. reads the callee's declared/inferred sinks and runs issue
//     detection against the argument taints (step 6 of the spec is done
//     first here since it does not depend on steps 2-5's output),
//  3. reads the callee's generations and writes the resulting Taint into
//     the call's result register, stamping CallInfo/Origin/Distance/
//     ClassInterval as it goes,
//  4. reads the callee's propagations and writes their effect back into
//     the caller's environment (argument aliasing / taint-in-taint-out).
//
// A callee with no resolvable model yet (the registry hasn't reached a
// fixpoint for it) contributes bottom, matching the teacher's
// interproc/lattice.go treatment of a missing FunctionSummary as the
// join identity rather than an error.
func (it *Interpreter) transferInvoke(s *state, env *domain.Environment, instr ir.Instruction, idx int) *domain.Environment {
	argTaints := make([]domain.Taint, len(instr.Srcs))
	for i, src := range instr.Srcs {
		argTaints[i] = it.taintOfRegister(env, src)
	}

	out := env
	if instr.Dest >= 0 {
		out = out.BindRegister(instr.Dest, s.table.Instruction(idx))
	}

	callPos := s.pos.At(s.method.ID.String(), instr.Pos, -1, -1)

	// No statically resolved target at all (an unresolved virtual call):
	// conservatively mark the result as obscure-tainted from every
	// argument, per spec.md §4.3's "no callee resolved" fallback.
	if len(instr.Targets) == 0 {
		if instr.Dest >= 0 {
			loc := s.table.Instruction(idx)
			obscure := it.obscureTaint(argTaints, callPos)
			if !obscure.IsBottom() {
				out = out.WriteTaint(loc, path.Path{}, obscure, domain.Weak)
			}
		}
		return out
	}

	for _, target := range instr.Targets {
		callee, ok := it.Callees(target.Callee)
		if !ok {
			continue
		}
		interval := it.Interval(target.Class)

		it.detectIssues(s, callee, target, argTaints, callPos)

		// Inline shortcut (spec.md §4.3 step 1), only attempted at a
		// monomorphic call site: a virtual call with more than one
		// resolved target has no single inline_as_getter/inline_as_setter
		// to trust, since different overrides may disagree.
		if len(instr.Targets) == 1 {
			out = it.applyInlineShortcuts(s, out, instr, idx, callee)
		}

		resultTaint := it.liftGeneration(callee, target, interval, callPos)
		if instr.Dest >= 0 && !resultTaint.IsBottom() {
			loc := s.table.Instruction(idx)
			out = out.WriteTaint(loc, path.Path{}, resultTaint, domain.Weak)
		}

		out = it.applyPropagations(s, out, callee, target, argTaints, instr, idx, interval, callPos)
	}
	return out
}

// applyInlineShortcuts consults callee's InlineAsGetter/InlineAsSetter
// constants and, when the caller can resolve them to a singleton memory
// location, takes the precise path instead of the general call-site
// lift (spec.md §4.3 step 1): a getter call becomes a direct alias onto
// the resolved location (no distance increment, no broadening), and a
// setter call becomes a strong write at the resolved target using the
// resolved value's exact current taint.
func (it *Interpreter) applyInlineShortcuts(s *state, env *domain.Environment, instr ir.Instruction, idx int, callee model.Model) *domain.Environment {
	out := env
	if instr.Dest >= 0 && callee.InlineAsGetter != "" {
		if argIdx, fields, ok := parseArgumentAccessPath(callee.InlineAsGetter); ok {
			if loc, ok := resolveInlineLocation(env, s.table, instr, argIdx, fields); ok {
				out = out.AddRegisterPoint(instr.Dest, loc)
			}
		}
	}
	if callee.InlineAsSetter != "" {
		targetPath, valuePath, ok := parseSetterAccessPath(callee.InlineAsSetter)
		if !ok {
			return out
		}
		targetArg, targetFields, tok := parseArgumentAccessPath(targetPath)
		valueArg, valueFields, vok := parseArgumentAccessPath(valuePath)
		if !tok || !vok {
			return out
		}
		targetLoc, ok := resolveInlineLocation(env, s.table, instr, targetArg, targetFields)
		if !ok {
			return out
		}
		valueLoc, ok := resolveInlineLocation(env, s.table, instr, valueArg, valueFields)
		if !ok {
			return out
		}
		valueTaint := domain.BottomTaint
		if tr := env.TaintAt(valueLoc); tr != nil {
			valueTaint = tr.Read(path.Path{}, identityPropagate)
		}
		out = out.WriteTaint(targetLoc, path.Path{}, valueTaint, domain.Strong)
	}
	return out
}

// parseArgumentAccessPath decodes the "Argument(i).field1.field2" shape
// transferIput/transferReturn encode InlineAsGetter/InlineAsSetter's
// operands in, back into an argument index plus its chain of field
// names. Only this constant shape is accepted; anything else (no
// argument prefix) reports ok=false.
func parseArgumentAccessPath(s string) (argIdx int, fields []string, ok bool) {
	const prefix = "Argument("
	if !strings.HasPrefix(s, prefix) {
		return 0, nil, false
	}
	rest := s[len(prefix):]
	close := strings.IndexByte(rest, ')')
	if close < 0 {
		return 0, nil, false
	}
	i, err := strconv.Atoi(rest[:close])
	if err != nil {
		return 0, nil, false
	}
	tail := rest[close+1:]
	if tail == "" {
		return i, nil, true
	}
	if tail[0] != '.' {
		return 0, nil, false
	}
	return i, strings.Split(tail[1:], "."), true
}

// parseSetterAccessPath splits InlineAsSetter's "target=value" encoding
// into its two access-path operands.
func parseSetterAccessPath(s string) (target, value string, ok bool) {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// resolveInlineLocation walks instr.Srcs[argIdx]'s current memory
// location (only when it is a genuine singleton — an over-approximated
// points-to set makes the constant unsafe to trust) through fields via
// MakeField, landing on the exact cell the inline constant names.
func resolveInlineLocation(env *domain.Environment, table *domain.MemoryTable, instr ir.Instruction, argIdx int, fields []string) (domain.MemoryLocation, bool) {
	if argIdx < 0 || argIdx >= len(instr.Srcs) {
		return -1, false
	}
	locs := env.LocationsOf(instr.Srcs[argIdx])
	if len(locs) != 1 {
		return -1, false
	}
	loc := locs[0]
	for _, f := range fields {
		loc = table.MakeField(loc, f)
	}
	return loc, true
}

// liftFrame is the per-frame lift applied at every call-site application:
// distance grows by one (farther from the origin), the class interval
// narrows by Meet with the call site's receiver interval, the callee
// joins Origins, and the tag becomes CallSite (spec.md §4.3 step 3/4:
// "each propagated frame records its callee, increments distance by 1,
// and narrows by the call's class interval").
func liftFrame(f domain.Frame, callee ir.MethodID, interval classhierarchy.Interval, callPos *position.Position) domain.Frame {
	out := f
	out.Distance = f.Distance + 1
	out.ClassInterval = f.ClassInterval.Meet(interval)
	out.Origins = append(append([]ir.MethodID(nil), f.Origins...), callee)
	out.CallInfoTag = domain.CallSite
	out.CalleeMethod = &callee
	out.CallPosition = callPos
	return out
}

// liftTaint lifts every frame of t via liftFrame, dropping any frame
// whose narrowed class interval comes back empty (an infeasible cast,
// spec.md §4.6: "an empty Meet result ... the frame is dropped").
func liftTaint(t domain.Taint, callee ir.MethodID, interval classhierarchy.Interval, callPos *position.Position, maxDistance int) domain.Taint {
	out := domain.NewTaint()
	for _, lt := range t.Locals() {
		info := domain.CallInfo{Tag: domain.CallSite, Callee: &callee, Position: callPos}
		nlt := domain.NewLocalTaint(info)
		for _, k := range lt.Kinds() {
			for _, f := range lt.KindFrames(k).Frames() {
				lifted := liftFrame(f, callee, interval, callPos)
				if lifted.ClassInterval.IsEmpty() {
					continue
				}
				if lifted.Distance > maxDistance {
					lifted.Distance = maxDistance
					lifted.MayFeatures = lifted.MayFeatures.Add(feature.ViaBroadening)
				}
				nlt = nlt.AddFrame(lifted.ClassInterval, lifted)
			}
		}
		if !nlt.IsBottom() {
			out = out.WithLocal(nlt)
		}
	}
	return out
}

// liftGeneration reads callee's Generations tree rooted at Return and
// lifts every frame found there one call-site level up.
func (it *Interpreter) liftGeneration(callee model.Model, target ir.CallTarget, interval classhierarchy.Interval, callPos *position.Position) domain.Taint {
	t := callee.Generations.Read(path.Return(), path.Path{}, identityPropagate)
	if t.IsBottom() {
		return domain.BottomTaint
	}
	return liftTaint(t, target.Callee, interval, callPos, it.Policy.MaxSourceSinkDistance)
}

// applyPropagations reads callee's Propagations tree (keyed by input
// argument root) and, for every argument whose incoming taint is
// non-bottom, folds the propagated effect into the call's own result
// cell (the same memory location transferInvoke binds instr.Dest to and
// writes liftGeneration's taint into) — spec.md §4.3 step 4's
// taint-in-taint-out behavior. A weak write there joins with whatever
// the generation lift already wrote, so a later transferReturn or
// taintOfRegister sees both. Propagation output targeting is simplified
// to "flows to the call result" (documented in DESIGN.md): the full
// per-output-path fanout described in spec.md §3's
// PathTree<CollapseDepth> would additionally redirect some propagations
// back onto sibling arguments, which this engine does not model.
func (it *Interpreter) applyPropagations(s *state, env *domain.Environment, callee model.Model, target ir.CallTarget, argTaints []domain.Taint, instr ir.Instruction, idx int, interval classhierarchy.Interval, callPos *position.Position) *domain.Environment {
	out := env
	if instr.Dest < 0 {
		return out
	}
	for _, root := range callee.Propagations.Roots() {
		if !root.IsArgument() {
			continue
		}
		i := root.ArgumentIndex()
		if i < 0 || i >= len(argTaints) {
			continue
		}
		incoming := argTaints[i]
		if incoming.IsBottom() {
			continue
		}
		propTaint := callee.Propagations.Read(root, path.Path{}, identityPropagate)
		if propTaint.IsBottom() {
			continue
		}
		lifted := liftTaint(incoming, target.Callee, interval, callPos, it.Policy.MaxSourceSinkDistance)
		if lifted.IsBottom() {
			continue
		}
		loc := s.table.Instruction(idx)
		out = out.WriteTaint(loc, path.Path{}, lifted, domain.Weak)
	}
	return out
}

// obscureTaint conservatively merges every argument's taint into a
// single Taint tagged via-obscure, used when a virtual call site has no
// statically resolvable target at all (spec.md §7: "an obscure/
// unresolved callee must not silently drop taint").
func (it *Interpreter) obscureTaint(argTaints []domain.Taint, callPos *position.Position) domain.Taint {
	out := domain.BottomTaint
	for _, t := range argTaints {
		for _, lt := range t.Locals() {
			info := domain.CallInfo{Tag: domain.CallSite, Position: callPos}
			nlt := domain.NewLocalTaint(info)
			for _, k := range lt.Kinds() {
				for _, f := range lt.KindFrames(k).Frames() {
					nf := f
					nf.MayFeatures = nf.MayFeatures.Add(feature.ViaObscure)
					nf.CallInfoTag = domain.CallSite
					nlt = nlt.AddFrame(nf.ClassInterval, nf)
				}
			}
			out = out.WithLocal(nlt)
		}
	}
	return out
}

// detectIssues matches each rule's sink-kind set against callee's
// declared Sinks (by argument root) and the incoming argument taint's
// source kinds, recording an Issue for each (rule, sink-argument,
// position) match (spec.md §4.3 step 6). Deduplication by
// (rule, callee, sink_index, position) happens in model.Issues.Add.
func (it *Interpreter) detectIssues(s *state, callee model.Model, target ir.CallTarget, argTaints []domain.Taint, callPos *position.Position) {
	for _, root := range callee.Sinks.Roots() {
		if !root.IsArgument() {
			continue
		}
		argIdx := root.ArgumentIndex()
		if argIdx < 0 || argIdx >= len(argTaints) {
			continue
		}
		incoming := argTaints[argIdx]
		if incoming.IsBottom() {
			continue
		}
		sinkTaint := callee.Sinks.Read(root, path.Path{}, identityPropagate)
		for _, sinkLocal := range sinkTaint.Locals() {
			for _, sinkKind := range sinkLocal.Kinds() {
				for _, rule := range it.Rules.Rules() {
					if !rule.MatchesSink(sinkKind) {
						continue
					}
					for _, srcLocal := range incoming.Locals() {
						for _, srcKind := range srcLocal.Kinds() {
							if !rule.MatchesSource(srcKind) {
								continue
							}
							s.model.Issues = s.model.Issues.Add(model.Issue{
								RuleCode:    rule.Code,
								RuleName:    rule.Name,
								Callee:      target.Callee.String(),
								SinkIndex:   argIdx,
								Position:    callPos,
								SourceKinds: []string{srcKind.String()},
								SinkKinds:   []string{sinkKind.String()},
								Message:     rule.Name + ": " + srcKind.String() + " flows into " + sinkKind.String(),
							})
						}
					}
				}
			}
		}
	}
}
