// Package rules loads the rule catalog ("a pair of source-kind set and
// sink-kind set whose co-occurrence constitutes a reportable issue",
// spec.md glossary) and the data-driven intent-routing catalog (spec.md
// §9 Open Question ii). The table-of-rules shape is grounded on
// internal/taint/taint.go's taintRule/taintRules, generalized from a
// hardcoded Go slice of capability pairs to a JSON-loaded document of
// kind-name sets.
package rules

import (
	"sort"

	"github.com/taintgraph/droidtaint/internal/config"
	"github.com/taintgraph/droidtaint/internal/kind"
)

// Rule is one reportable source/sink co-occurrence (spec.md §6: "Rules
// JSON: [{ name, code, description, sources: [kind], sinks: [kind],
// transforms? }]").
type Rule struct {
	Name        string   `json:"name"`
	Code        int      `json:"code"`
	Description string   `json:"description"`
	Sources     []string `json:"sources"`
	Sinks       []string `json:"sinks"`
	Transforms  []string `json:"transforms,omitempty"`
}

// ResolvedRule is a Rule whose kind names have been interned against a
// kind.Factory, ready for the issue-detection check in spec.md §4.3
// step 6.
type ResolvedRule struct {
	Rule
	SourceKinds []*kind.Kind
	SinkKinds   []*kind.Kind
}

// Catalog is the immutable-after-construction rule set (spec.md §5:
// "Immutable after construction: ... Rules").
type Catalog struct {
	rules []ResolvedRule
}

// LoadCatalog decodes a rules JSON document and interns every kind name
// it references against f.
func LoadCatalog(data []byte, strict bool, f *kind.Factory) (*Catalog, error) {
	var raw []Rule
	if err := config.DecodeJSON(data, &raw, strict); err != nil {
		return nil, err
	}
	c := &Catalog{rules: make([]ResolvedRule, 0, len(raw))}
	for _, r := range raw {
		rr := ResolvedRule{Rule: r}
		for _, s := range r.Sources {
			rr.SourceKinds = append(rr.SourceKinds, f.Named(s))
		}
		for _, s := range r.Sinks {
			rr.SinkKinds = append(rr.SinkKinds, f.Named(s))
		}
		c.rules = append(c.rules, rr)
	}
	return c, nil
}

// Rules returns every rule in the catalog, ordered by Code for
// deterministic iteration.
func (c *Catalog) Rules() []ResolvedRule {
	out := append([]ResolvedRule(nil), c.rules...)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// MatchesSource reports whether k appears in rule's source-kind set.
func (r ResolvedRule) MatchesSource(k *kind.Kind) bool {
	for _, sk := range r.SourceKinds {
		if sk == k {
			return true
		}
	}
	return false
}

// MatchesSink reports whether k appears in rule's sink-kind set.
func (r ResolvedRule) MatchesSink(k *kind.Kind) bool {
	for _, sk := range r.SinkKinds {
		if sk == k {
			return true
		}
	}
	return false
}
