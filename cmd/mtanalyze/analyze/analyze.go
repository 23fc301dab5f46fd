// Package analyze implements the "analyze" subcommand: load a CFG
// shard directory plus a rules catalog, run the whole-program fixpoint,
// and write every artifact SPEC_FULL.md §6 names to an output
// directory. Grounded on cmd/gorisk/scan/scan.go's Run(args []string)
// int shape — its own flag.NewFlagSet, working-directory defaults, and
// load-then-analyze-then-report phase structure, generalized from a
// single dependency-graph scan to this engine's ingest/analyze/output
// pipeline.
package analyze

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/taintgraph/droidtaint/internal/analysiserror"
	"github.com/taintgraph/droidtaint/internal/classhierarchy"
	"github.com/taintgraph/droidtaint/internal/config"
	"github.com/taintgraph/droidtaint/internal/ingest"
	"github.com/taintgraph/droidtaint/internal/interproc"
	"github.com/taintgraph/droidtaint/internal/kind"
	"github.com/taintgraph/droidtaint/internal/rules"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	input := fs.String("input", "", "directory of CFG shard JSON files, or a Go module root when -source=go-module (required)")
	source := fs.String("source", string(ingest.SourceCFGShard), "input adapter: cfg-shard|go-module")
	out := fs.String("output", config.DefaultOptions.OutputDirectory, "output directory for analysis artifacts")
	rulesPath := fs.String("rules", "", "rules catalog JSON file (required)")
	hierarchyPath := fs.String("hierarchy", "", "optional class_hierarchies.json file")
	heuristicsPath := fs.String("heuristics", "", "optional heuristics JSON/YAML file")
	sequential := fs.Bool("sequential", config.DefaultOptions.Sequential, "disable per-SCC round parallelism")
	strict := fs.Bool("check-unexpected-members", config.DefaultOptions.CheckUnexpectedMembers, "reject unknown fields in input documents")
	methodTimeout := fs.Int("max-method-analysis-time-seconds", config.DefaultOptions.MaxMethodAnalysisTime, "per-method analysis timeout in seconds (0 disables)")
	numShards := fs.Int("model-shards", 16, "number of model@NNNN.json shard files to write")
	cacheDir := fs.String("cache-dir", "", "directory for the per-method issue cache (disabled when empty)")
	verbose := fs.Bool("verbose", false, "enable verbose debug logging")
	fs.Parse(args)

	if *input == "" || *rulesPath == "" {
		fmt.Fprintln(os.Stderr, "analyze: -input and -rules are required")
		return 2
	}

	if *sequential {
		runtime.GOMAXPROCS(1)
	}
	interproc.SetVerbose(*verbose)

	t0 := time.Now()
	graph, err := ingest.ForSource(ingest.SourceKind(*source), *input)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load call graph:", err)
		return 2
	}
	loadDur := time.Since(t0)

	var hierarchy classhierarchy.Hierarchy
	if *hierarchyPath != "" {
		data, err := os.ReadFile(*hierarchyPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load class hierarchy:", err)
			return 2
		}
		hierarchy, err = ingest.LoadClassHierarchy(data, *strict)
		if err != nil {
			fmt.Fprintln(os.Stderr, "parse class hierarchy:", err)
			return 2
		}
	}

	rulesDoc, err := os.ReadFile(*rulesPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load rules:", err)
		return 2
	}
	// Loaded up front, separately from the scheduler's own internal
	// catalog, so a malformed rules file fails fast as an input error
	// (spec.md §7) and so its Rules() are available afterwards for
	// rule_coverage.json without re-parsing rulesDoc a third time. Kind
	// identity doesn't need to match the scheduler's own factory here:
	// coverage only reads each rule's Code/Name, never its interned
	// kind pointers.
	catalog, err := rules.LoadCatalog(rulesDoc, *strict, kind.NewFactory())
	if err != nil {
		fmt.Fprintln(os.Stderr, analysiserror.Input("loading rules catalog", err).Error())
		return 2
	}

	opts := interproc.DefaultAnalysisOptions()
	if *methodTimeout > 0 {
		opts.MethodTimeout = time.Duration(*methodTimeout) * time.Second
	} else {
		opts.MethodTimeout = 0
	}
	if *heuristicsPath != "" {
		data, err := os.ReadFile(*heuristicsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load heuristics:", err)
			return 2
		}
		h, err := config.LoadHeuristics(data)
		if err != nil {
			fmt.Fprintln(os.Stderr, "parse heuristics:", err)
			return 2
		}
		opts.Policy = h.ToPolicy()
	}
	opts.Errors = analysiserror.NewCollector()
	opts.CacheDir = *cacheDir

	t1 := time.Now()
	reg, intervals, err := interproc.RunAnalysis(context.Background(), graph, hierarchy, rulesDoc, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run analysis:", err)
		return 2
	}
	analysisDur := time.Since(t1)

	if err := writeArtifacts(*out, graph, hierarchy, intervals, catalog, reg, opts, *numShards, loadDur, analysisDur); err != nil {
		fmt.Fprintln(os.Stderr, "write output:", err)
		return 2
	}

	if opts.Errors.Len() > 0 {
		fmt.Fprintf(os.Stderr, "analyze: completed with %d recoverable error(s); see %s\n",
			opts.Errors.Len(), filepath.Join(*out, "metadata.json"))
	}
	return 0
}
