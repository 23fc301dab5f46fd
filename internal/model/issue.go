package model

import (
	"fmt"
	"sort"

	"github.com/taintgraph/droidtaint/internal/position"
)

// Issue is one detected source-to-sink flow (spec.md §4.3 step 6: "issue
// detection matches a frame's Kind against a rule's sinks, keyed by
// (rule, callee, sink_index, position) for deduplication"). Grounded on
// internal/taint/taint.go's TaintFinding (Rule/Message/Confidence fields,
// sortFindings-by-key dedup discipline), generalized from a single
// confidence-scored hit to a rule/callee/sink-index/position key with a
// full source/sink trace pair.
type Issue struct {
	RuleCode    int
	RuleName    string
	Callee      string // ir.MethodID.String() of the called method whose sink matched
	SinkIndex   int
	Position    *position.Position
	SourceKinds []string
	SinkKinds   []string
	Message     string
}

func (i Issue) key() string {
	return fmt.Sprintf("%d|%s|%d|%s", i.RuleCode, i.Callee, i.SinkIndex, i.Position.String())
}

// Issues is a deduplicated, deterministically ordered collection.
type Issues struct {
	issues []Issue
	seen   map[string]bool
}

func NewIssues() Issues { return Issues{seen: make(map[string]bool)} }

// Add appends iss unless an issue with the same (rule, callee, sink
// index, position) key has already been recorded.
func (s Issues) Add(iss Issue) Issues {
	out := s.clone()
	k := iss.key()
	if out.seen[k] {
		return out
	}
	out.seen[k] = true
	out.issues = append(out.issues, iss)
	return out
}

func (s Issues) clone() Issues {
	out := Issues{
		issues: append([]Issue(nil), s.issues...),
		seen:   make(map[string]bool, len(s.seen)+1),
	}
	for k := range s.seen {
		out.seen[k] = true
	}
	return out
}

// Merge unions two Issues sets, deduping by key, and returns the result
// sorted deterministically.
func (s Issues) Merge(o Issues) Issues {
	out := s.clone()
	for _, iss := range o.issues {
		out = out.Add(iss)
	}
	sort.Slice(out.issues, func(i, j int) bool {
		return out.issues[i].key() < out.issues[j].key()
	})
	return out
}

// Leq holds when every key in s is also present in o — issues only ever
// accumulate across a fixpoint, so this is the monotonicity check the
// scheduler's re-queue test relies on (spec.md §4.4).
func (s Issues) Leq(o Issues) bool {
	for k := range s.seen {
		if !o.seen[k] {
			return false
		}
	}
	return true
}

func (s Issues) All() []Issue {
	return append([]Issue(nil), s.issues...)
}

func (s Issues) Len() int { return len(s.issues) }

// Rekey returns a fresh Issues set in which every issue's Callee is
// newCallee, deduplicated again under the resulting keys.
func (s Issues) Rekey(newCallee string) Issues {
	out := NewIssues()
	for _, iss := range s.issues {
		iss.Callee = newCallee
		out = out.Add(iss)
	}
	return out
}
