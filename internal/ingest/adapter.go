package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/taintgraph/droidtaint/internal/ir"
)

// SourceKind selects which adapter ForSource dispatches to. Grounded on
// the teacher's internal/analyzer.ForLang dispatch table (a Go/Node/PHP
// switch keyed by a string the caller already knows), generalized from
// a source-language switch to an input-shape switch.
type SourceKind string

const (
	SourceCFGShard SourceKind = "cfg-shard"
	SourceGoModule SourceKind = "go-module"
)

// ForSource loads dir as kind, returning the resulting CallGraph with
// its call edges already resolved.
func ForSource(kind SourceKind, dir string) (*ir.CallGraph, error) {
	switch kind {
	case SourceCFGShard:
		return loadCFGShardDir(dir)
	case SourceGoModule:
		return FromGoSource(dir)
	default:
		return nil, fmt.Errorf("ingest: unknown source kind %q", kind)
	}
}

func loadCFGShardDir(dir string) (*ir.CallGraph, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ingest: read shard directory: %w", err)
	}
	g := ir.NewCallGraph()
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("ingest: read shard %s: %w", e.Name(), err)
		}
		shard, err := LoadCFGShard(data, true)
		if err != nil {
			return nil, fmt.Errorf("ingest: parse shard %s: %w", e.Name(), err)
		}
		g = Merge(g, shard)
	}
	ResolveCallGraph(g)
	return g, nil
}
