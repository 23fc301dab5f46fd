package analyze

import (
	"time"

	"github.com/taintgraph/droidtaint/internal/classhierarchy"
	"github.com/taintgraph/droidtaint/internal/interproc"
	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/output"
	"github.com/taintgraph/droidtaint/internal/registry"
	"github.com/taintgraph/droidtaint/internal/rules"
)

// writeArtifacts writes every output directory artifact for one
// completed run. Kept separate from Run's flag/phase plumbing so each
// half of the subcommand — orchestration and reporting — stays small,
// mirroring how cmd/gorisk/scan/scan.go keeps its own report assembly
// in a block distinct from its flag parsing.
func writeArtifacts(
	dir string,
	graph *ir.CallGraph,
	hierarchy classhierarchy.Hierarchy,
	intervals map[string]classhierarchy.Interval,
	catalog *rules.Catalog,
	reg *registry.Registry,
	opts interproc.AnalysisOptions,
	numShards int,
	loadDur, analysisDur time.Duration,
) error {
	if err := output.WriteModelShards(dir, reg, numShards); err != nil {
		return err
	}
	if err := output.WriteMethodsJSON(dir, graph); err != nil {
		return err
	}
	if err := output.WriteClassHierarchiesJSON(dir, hierarchy); err != nil {
		return err
	}
	if err := output.WriteClassIntervalsJSON(dir, intervals); err != nil {
		return err
	}
	if err := output.WriteOverridesJSON(dir, graph); err != nil {
		return err
	}
	if err := output.WriteFileCoverageTxt(dir, graph); err != nil {
		return err
	}
	if err := output.WriteRuleCoverageJSON(dir, catalog, reg); err != nil {
		return err
	}

	issueCount := 0
	for _, id := range reg.AllMethods() {
		if m, ok := reg.Get(id); ok {
			issueCount += m.Issues.Len()
		}
	}
	hits, misses := reg.Stats()

	meta := output.Metadata{
		GeneratedAt:      time.Now().UTC(),
		LoadDuration:     loadDur.String(),
		AnalysisDuration: analysisDur.String(),
		MethodCount:      len(graph.AllMethods()),
		IssueCount:       issueCount,
		RegistryHits:     hits,
		RegistryMisses:   misses,
		Converged:        true,
		Errors:           opts.Errors.Entries(),
	}
	return output.WriteMetadata(dir, meta)
}
