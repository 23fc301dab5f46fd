package interproc

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taintgraph/droidtaint/internal/analysiserror"
	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/model"
	"github.com/taintgraph/droidtaint/internal/registry"
	"github.com/taintgraph/droidtaint/internal/transfer"
)

// Scheduler drives internal/transfer.Interpreter.AnalyzeMethod across an
// entire call graph to a whole-program fixpoint (spec.md §4.4), reading
// and writing internal/model.Models through an internal/registry.Registry.
// The worklist/deterministic-pop/re-enqueue-callers discipline is
// unchanged from the teacher's ComputeFixpoint; SCC members are analyzed
// together, in parallel, via golang.org/x/sync/errgroup, and a method
// whose own analysis exceeds MethodTimeout falls back to
// model.TimeoutModel rather than stalling the whole run.
type Scheduler struct {
	Graph    *ir.CallGraph
	Interp   *transfer.Interpreter
	Registry *registry.Registry
	Policy   domain.WideningPolicy

	// MaxIterations bounds the total number of worklist pops before Run
	// gives up and reports non-convergence, mirroring the teacher's
	// ComputeFixpoint(cg, maxIterations) guard against a runaway
	// analysis.
	MaxIterations int

	// MethodTimeout bounds a single method's intraprocedural fixpoint;
	// zero disables the timeout.
	MethodTimeout time.Duration

	// Cache, if non-nil, persists each converged method's Issues across
	// runs (see cache.go); Run stores into it once convergence is
	// reached, it never gates re-analysis within a single run.
	Cache *IssueCache

	// Errors collects every recoverable per-method failure (spec.md §7's
	// KindPerMethodFailure), so a caller can surface them in
	// metadata.json's errors array without the run itself failing. A nil
	// Errors is legal; analyzeMethodModel simply drops the report.
	Errors *analysiserror.Collector

	sccs  []*SCC
	sccOf map[ir.MethodID]int
}

// NewScheduler builds a Scheduler and eagerly detects the call graph's
// SCCs, since every worklist pop needs to know whether the popped method
// belongs to one.
func NewScheduler(cg *ir.CallGraph, interp *transfer.Interpreter, reg *registry.Registry, policy domain.WideningPolicy) *Scheduler {
	sccs, sccOf := DetectSCCs(cg)
	return &Scheduler{
		Graph:         cg,
		Interp:        interp,
		Registry:      reg,
		Policy:        policy,
		MaxIterations: 10000,
		sccs:          sccs,
		sccOf:         sccOf,
	}
}

// Run drives the fixpoint to convergence. It returns an error only if
// the graph fails to converge within MaxIterations pops — an
// interprocedural analogue of transfer.AnalyzeMethod's intraprocedural
// widening guarantee, which bounds individual methods but not the
// whole-program schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	order := TopologicalSort(s.Graph) // leaves first
	pending := make(map[string]bool, len(order))
	byKey := make(map[string]ir.MethodID, len(order))
	for _, id := range order {
		pending[id.String()] = true
		byKey[id.String()] = id
	}

	pop := func() ir.MethodID {
		keys := make([]string, 0, len(pending))
		for k := range pending {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		key := keys[0]
		delete(pending, key)
		return byKey[key]
	}

	Infof("[fixpoint] initialized pending with %d methods", len(pending))
	iteration := 0

	for len(pending) > 0 {
		if iteration >= s.MaxIterations {
			Errorf("[fixpoint] did not converge after %d iterations (%d methods remaining)", iteration, len(pending))
			return fmt.Errorf("interproc: fixpoint did not converge after %d iterations (%d methods remaining)", iteration, len(pending))
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		id := pop()
		iteration++

		if sccID, inSCC := s.sccOf[id]; inSCC {
			scc := s.sccs[sccID]
			changed, err := s.analyzeSCC(ctx, scc)
			if err != nil {
				return err
			}
			if changed {
				s.enqueueOutsideCallers(scc.Methods, sccID, pending, byKey)
			}
			continue
		}

		changed, err := s.analyzeOne(ctx, id)
		if err != nil {
			return err
		}
		if changed {
			for _, caller := range s.Graph.Callers(id) {
				pending[caller.String()] = true
				byKey[caller.String()] = caller
			}
		}
	}

	Infof("[fixpoint] converged in %d iterations", iteration)
	s.persist()
	return nil
}

// enqueueOutsideCallers re-enqueues every caller of scc's members that is
// not itself a member of the same SCC (a same-SCC caller will be
// reprocessed as part of the SCC itself on a future pop).
func (s *Scheduler) enqueueOutsideCallers(members []ir.MethodID, sccID int, pending map[string]bool, byKey map[string]ir.MethodID) {
	for _, m := range members {
		for _, caller := range s.Graph.Callers(m) {
			if callerSCC, ok := s.sccOf[caller]; ok && callerSCC == sccID {
				continue
			}
			pending[caller.String()] = true
			byKey[caller.String()] = caller
		}
	}
}

// analyzeOne analyzes a single, non-cyclic method and joins the result
// into the registry, reporting whether the registry's entry changed.
func (s *Scheduler) analyzeOne(ctx context.Context, id ir.MethodID) (bool, error) {
	fresh, err := s.analyzeMethodModel(ctx, id)
	if err != nil {
		return false, err
	}
	old, hadOld := s.Registry.Get(id)
	joined := s.Registry.JoinWith(id, fresh)
	return !hadOld || !joined.Equals(old), nil
}

// analyzeSCC analyzes every member of a strongly connected component
// together, iterating rounds (each round analyzes every member in
// parallel via errgroup) until no member's registry entry changes or
// Policy.MaxIterationsPerSCC rounds have run — the same iterate-then-
// stop discipline internal/transfer.AnalyzeMethod uses for
// intraprocedural loops, applied here to call-graph cycles.
func (s *Scheduler) analyzeSCC(ctx context.Context, scc *SCC) (bool, error) {
	anyChanged := false
	for round := 0; round < s.Policy.MaxIterationsPerSCC; round++ {
		results := make([]model.Model, len(scc.Methods))
		g, gctx := errgroup.WithContext(ctx)
		for i, id := range scc.Methods {
			i, id := i, id
			g.Go(func() error {
				m, err := s.analyzeMethodModel(gctx, id)
				if err != nil {
					return err
				}
				results[i] = m
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return anyChanged, err
		}

		roundChanged := false
		for i, id := range scc.Methods {
			old, hadOld := s.Registry.Get(id)
			joined := s.Registry.JoinWith(id, results[i])
			if !hadOld || !joined.Equals(old) {
				roundChanged = true
			}
		}
		if roundChanged {
			anyChanged = true
		} else {
			break
		}
	}
	return anyChanged, nil
}

// analyzeMethodModel runs one method's intraprocedural fixpoint,
// resolving callees against the registry's current models. An
// undeclared method (no body — an external API known only via the call
// graph) contributes whatever the registry already knows about it, or
// bottom. A method whose analysis runs past MethodTimeout contributes a
// conservative model.TimeoutModel instead (spec.md §4.4).
func (s *Scheduler) analyzeMethodModel(ctx context.Context, id ir.MethodID) (model.Model, error) {
	method, ok := s.Graph.Methods[id]
	if !ok || !method.DeclaredHere {
		if m, ok := s.Registry.Get(id); ok {
			return m, nil
		}
		return model.New(id.String()), nil
	}

	analyze := func() model.Model { return s.Interp.AnalyzeMethod(method) }

	if s.MethodTimeout <= 0 {
		m, analysisErr := analysiserror.Recover(id.String(), method.NumParams, s.declaredSinks(id), analyze)
		s.reportMethodError(analysisErr)
		return m, nil
	}

	done := make(chan model.Model, 1)
	go func() {
		m, analysisErr := analysiserror.Recover(id.String(), method.NumParams, s.declaredSinks(id), analyze)
		s.reportMethodError(analysisErr)
		done <- m
	}()

	select {
	case m := <-done:
		return m, nil
	case <-time.After(s.MethodTimeout):
		Warnf("[fixpoint] %s exceeded its analysis timeout, falling back to a conservative model", id.String())
		s.reportMethodError(analysiserror.PerMethodFailure(id.String(), "exceeded per-method analysis timeout", nil))
		return analysiserror.ConservativeModel(id.String(), method.NumParams, s.declaredSinks(id)), nil
	case <-ctx.Done():
		return model.Model{}, ctx.Err()
	}
}

// declaredSinks returns id's already-registered sinks, so a fallback
// conservative model still reports the sinks a declared model already
// knew about rather than losing them.
func (s *Scheduler) declaredSinks(id ir.MethodID) domain.TaintAccessPathTree {
	declared, _ := s.Registry.Get(id)
	return declared.Sinks
}

// reportMethodError logs a recoverable per-method failure and records
// it in s.Errors, if configured. A nil err is a no-op.
func (s *Scheduler) reportMethodError(err *analysiserror.AnalysisError) {
	if err == nil {
		return
	}
	Warnf("[fixpoint] %s", err.Error())
	if s.Errors != nil {
		s.Errors.Add(err)
	}
}

// persist writes every method's converged Issues into the scheduler's
// IssueCache, if configured.
func (s *Scheduler) persist() {
	if s.Cache == nil {
		return
	}
	for _, id := range s.Registry.AllMethods() {
		m, ok := s.Registry.Get(id)
		if !ok || m.Issues.Len() == 0 {
			continue
		}
		method := s.Graph.Methods[id]
		key := IssueCacheKey{Method: id, CodeHash: ComputeCodeHash(method), CalleeHashes: s.calleeHashes(id)}
		s.Cache.Store(key, m.Issues.All())
	}
}

// calleeHashes returns a sorted list of m's callees' own code hashes, so
// an IssueCacheKey changes whenever any callee's body changes even if m
// itself did not.
func (s *Scheduler) calleeHashes(m ir.MethodID) []string {
	callees := s.Graph.Callees(m)
	out := make([]string, 0, len(callees))
	for _, c := range callees {
		out = append(out, ComputeCodeHash(s.Graph.Methods[c]))
	}
	sort.Strings(out)
	return out
}
