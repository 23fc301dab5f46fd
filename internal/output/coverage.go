// coverage.go writes the two coverage artifacts SPEC_FULL.md §6 names:
// a plain-text per-class analysis summary (file_coverage.txt — classes
// stand in for source files, since ir.Method carries no file path of
// its own, only a declaring class) and a per-rule issue tally
// cross-referenced against the full rule catalog so a rule with zero
// hits is still reported (rule_coverage.json). Grounded on the
// teacher's internal/report package's plain writer-per-format style.
package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/registry"
	"github.com/taintgraph/droidtaint/internal/rules"
)

// WriteFileCoverageTxt writes dir/file_coverage.txt: one line per class
// seen in graph, "<class>: <declared>/<total> methods analyzed",
// sorted by class name.
func WriteFileCoverageTxt(dir string, graph *ir.CallGraph) error {
	type tally struct{ declared, total int }
	byClass := make(map[string]*tally)

	for _, id := range graph.AllMethods() {
		t := byClass[id.Class]
		if t == nil {
			t = &tally{}
			byClass[id.Class] = t
		}
		t.total++
		if m := graph.Methods[id]; m != nil && m.DeclaredHere {
			t.declared++
		}
	}

	classes := make([]string, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("output: create %s: %w", dir, err)
	}
	f, err := os.Create(filepath.Join(dir, "file_coverage.txt"))
	if err != nil {
		return fmt.Errorf("output: create file_coverage.txt: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, c := range classes {
		t := byClass[c]
		fmt.Fprintf(w, "%s: %d/%d methods analyzed\n", c, t.declared, t.total)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("output: flush file_coverage.txt: %w", err)
	}
	return f.Close()
}

// RuleCoverageEntry is one rule_coverage.json entry: a rule from the
// catalog paired with how many converged issues cite it, so a rule that
// never fired is still visible (a zero-hit rule is often the first sign
// a source/sink kind was misspelled in the rules file).
type RuleCoverageEntry struct {
	Code       int    `json:"code"`
	Name       string `json:"name"`
	IssueCount int    `json:"issue_count"`
}

// WriteRuleCoverageJSON tallies every Issue across reg's converged
// models by rule code, cross-references against catalog, and writes
// dir/rule_coverage.json sorted by code.
func WriteRuleCoverageJSON(dir string, catalog *rules.Catalog, reg *registry.Registry) error {
	counts := make(map[int]int)
	for _, id := range reg.AllMethods() {
		m, ok := reg.Get(id)
		if !ok {
			continue
		}
		for _, iss := range m.Issues.All() {
			counts[iss.RuleCode]++
		}
	}

	var docs []RuleCoverageEntry
	for _, r := range catalog.Rules() {
		docs = append(docs, RuleCoverageEntry{Code: r.Code, Name: r.Name, IssueCount: counts[r.Code]})
	}
	return writeJSON(dir, "rule_coverage.json", docs)
}
