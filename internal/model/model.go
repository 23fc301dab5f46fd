// Package model implements the per-method Model summary (spec.md §3)
// and the Issue/Issues bookkeeping produced by call-site issue
// detection (spec.md §4.3 step 6). Grounded on
// internal/interproc/lattice.go's JoinSummaries/SummariesEqual
// (generalized from capability-bitset join to taint-access-path-tree
// join/leq) and internal/taint/taint.go's TaintFinding
// (generalized to Issue, with the same min-confidence-style
// deduplication-by-key discipline as taint.sortFindings/less).
package model

import (
	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/path"
	"github.com/taintgraph/droidtaint/internal/position"
)

// ModeBits are the per-method boolean switches spec.md §3 lists on
// Model (SkipAnalysis, AddViaObscureFeature, ...).
type ModeBits struct {
	SkipAnalysis               bool
	AddViaObscureFeature       bool
	TaintInTaintOut            bool
	TaintInTaintThis           bool
	NoJoinVirtualOverrides     bool
	NoCollapseOnPropagation    bool
	AliasMemoryLocationOnInvoke bool
	StrongWriteOnPropagation   bool
}

// Model is the per-method summary. Its taint-access-path trees are
// exported fields; New returns the bottom Model with every tree
// allocated.
type Model struct {
	Method string // ir.MethodID.String(), avoids an import cycle with internal/ir

	Generations   domain.TaintAccessPathTree
	Sinks         domain.TaintAccessPathTree
	ParameterSources domain.TaintAccessPathTree
	Propagations  domain.TaintAccessPathTree

	Modes ModeBits

	Frozen bool

	AttachToSources      domain.TaintAccessPathTree
	AttachToSinks        domain.TaintAccessPathTree
	AttachToPropagations domain.TaintAccessPathTree

	AddFeaturesToArguments map[int][]string

	InlineAsGetter string // constant access-path string, "" if unset
	InlineAsSetter string // setter access-path string, "" if unset

	Generator string // model-generator provenance, e.g. "declared", "inferred"

	Issues Issues
}

// New returns the bottom model for method.
func New(method string) Model {
	return Model{
		Method:                 method,
		Generations:            domain.NewTaintAccessPathTree(),
		Sinks:                  domain.NewTaintAccessPathTree(),
		ParameterSources:       domain.NewTaintAccessPathTree(),
		Propagations:           domain.NewTaintAccessPathTree(),
		AttachToSources:        domain.NewTaintAccessPathTree(),
		AttachToSinks:          domain.NewTaintAccessPathTree(),
		AttachToPropagations:   domain.NewTaintAccessPathTree(),
		AddFeaturesToArguments: make(map[int][]string),
	}
}

func (m Model) IsBottom() bool {
	return m.Generations.IsBottom() && m.Sinks.IsBottom() &&
		m.ParameterSources.IsBottom() && m.Propagations.IsBottom() &&
		len(m.Issues.issues) == 0
}

// Join merges two models of the same method: every taint-access-path
// tree joins component-wise, mode bits OR together (a mode observed by
// either analysis applies), and issues union with dedup (spec.md §4.5
// join_with).
func (m Model) Join(o Model) Model {
	out := m
	out.Generations = m.Generations.Join(o.Generations)
	out.Sinks = m.Sinks.Join(o.Sinks)
	out.ParameterSources = m.ParameterSources.Join(o.ParameterSources)
	out.Propagations = m.Propagations.Join(o.Propagations)
	out.AttachToSources = m.AttachToSources.Join(o.AttachToSources)
	out.AttachToSinks = m.AttachToSinks.Join(o.AttachToSinks)
	out.AttachToPropagations = m.AttachToPropagations.Join(o.AttachToPropagations)
	out.Modes = orModes(m.Modes, o.Modes)
	out.Issues = m.Issues.Merge(o.Issues)
	if out.InlineAsGetter == "" {
		out.InlineAsGetter = o.InlineAsGetter
	}
	if out.InlineAsSetter == "" {
		out.InlineAsSetter = o.InlineAsSetter
	}
	return out
}

// Leq holds when every component of m is subsumed by the matching
// component of o (spec.md §4.1 applied at the Model level, used by the
// scheduler's "Model'.leq(Model_old)" re-queue test, §4.4).
func (m Model) Leq(o Model) bool {
	return m.Generations.Leq(o.Generations) &&
		m.Sinks.Leq(o.Sinks) &&
		m.ParameterSources.Leq(o.ParameterSources) &&
		m.Propagations.Leq(o.Propagations) &&
		m.Issues.Leq(o.Issues)
}

func (m Model) Equals(o Model) bool { return m.Leq(o) && o.Leq(m) }

func orModes(a, b ModeBits) ModeBits {
	return ModeBits{
		SkipAnalysis:                a.SkipAnalysis || b.SkipAnalysis,
		AddViaObscureFeature:        a.AddViaObscureFeature || b.AddViaObscureFeature,
		TaintInTaintOut:             a.TaintInTaintOut || b.TaintInTaintOut,
		TaintInTaintThis:            a.TaintInTaintThis || b.TaintInTaintThis,
		NoJoinVirtualOverrides:      a.NoJoinVirtualOverrides || b.NoJoinVirtualOverrides,
		NoCollapseOnPropagation:     a.NoCollapseOnPropagation || b.NoCollapseOnPropagation,
		AliasMemoryLocationOnInvoke: a.AliasMemoryLocationOnInvoke || b.AliasMemoryLocationOnInvoke,
		StrongWriteOnPropagation:    a.StrongWriteOnPropagation || b.StrongWriteOnPropagation,
	}
}

// TimeoutModel is the conservative "top-safe" model assigned when a
// method's per-method fixpoint exceeds maximum_method_analysis_time
// (spec.md §4.4: "the method's model is set to top-safe defaults:
// conservative TaintInTaintOut, no generations, all sinks from declared
// models").
func TimeoutModel(method string, declaredSinks domain.TaintAccessPathTree) Model {
	m := New(method)
	m.Modes.TaintInTaintOut = true
	m.Sinks = declaredSinks
	m.Generator = "timeout-conservative"
	return m
}

// WriteGeneration records a tainted value escaping method at the given
// root/path — a single parameter source or a return-value generation
// depending on root.
func (m *Model) WriteGeneration(root path.Root, p path.Path, taint domain.Taint, kind domain.WriteKind) {
	m.Generations = m.Generations.Write(root, p, taint, kind)
}

func (m *Model) WriteSink(root path.Root, p path.Path, taint domain.Taint, kind domain.WriteKind) {
	m.Sinks = m.Sinks.Write(root, p, taint, kind)
}

func (m *Model) WriteParameterSource(root path.Root, p path.Path, taint domain.Taint, kind domain.WriteKind) {
	m.ParameterSources = m.ParameterSources.Write(root, p, taint, kind)
}

func (m *Model) WritePropagation(root path.Root, p path.Path, taint domain.Taint, kind domain.WriteKind) {
	m.Propagations = m.Propagations.Write(root, p, taint, kind)
}

// position is not otherwise used in this file; Issue's Position field
// is declared in issue.go, which imports position itself.
var _ = position.Unknown
