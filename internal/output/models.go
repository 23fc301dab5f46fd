// models.go projects internal/model.Model (whose taint-access-path
// trees hold unexported, pointer-keyed maps — see
// internal/interproc/cache.go's doc comment) into the plain,
// JSON-marshalable model@NNNN.json shard shape (SPEC_FULL.md §6:
// "generations/sinks/propagation/sanitizers/modes/for_all_parameters,
// each array of taint-configs with kind/port/features/via_type_of/
// via_value_of/canonical_names"; ModelDoc has no sanitizers array and
// adds a parameter_sources one), by walking each tree through the
// public Entries/Locals/Kinds/Frames accessors internal/domain already
// exposes rather than reaching into any unexported field.
package output

import (
	"bufio"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"

	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/model"
	"github.com/taintgraph/droidtaint/internal/registry"

	"encoding/json"
)

// TaintConfig is one source/sink/propagation entry within a ModelDoc,
// matching the field names SPEC_FULL.md §6 specifies verbatim.
type TaintConfig struct {
	Kind           string   `json:"kind"`
	Port           string   `json:"port"`
	Features       []string `json:"features,omitempty"`
	ViaTypeOf      []string `json:"via_type_of,omitempty"`
	ViaValueOf     []string `json:"via_value_of,omitempty"`
	CanonicalNames []string `json:"canonical_names,omitempty"`
	Distance       int      `json:"distance"`
	CallInfo       string   `json:"call_info"`
}

// ModelDoc is one method's model@NNNN.json line.
type ModelDoc struct {
	Method              string              `json:"method"`
	Generations         []TaintConfig       `json:"generations,omitempty"`
	Sinks               []TaintConfig       `json:"sinks,omitempty"`
	ParameterSources    []TaintConfig       `json:"parameter_sources,omitempty"`
	Propagation         []TaintConfig       `json:"propagation,omitempty"`
	Modes               model.ModeBits      `json:"modes"`
	ForAllParameters    map[string][]string `json:"for_all_parameters,omitempty"`
	InlineAsGetter      string              `json:"inline_as_getter,omitempty"`
	InlineAsSetter      string              `json:"inline_as_setter,omitempty"`
	Generator           string              `json:"generator,omitempty"`
	IssueCount          int                 `json:"issue_count"`
}

// ProjectModel converts m into its wire form. method carries
// Method.String() so the doc is self-describing even outside its own
// shard.
func ProjectModel(method string, m model.Model) ModelDoc {
	doc := ModelDoc{
		Method:           method,
		Generations:      projectTree(m.Generations),
		Sinks:            projectTree(m.Sinks),
		ParameterSources: projectTree(m.ParameterSources),
		Propagation:      projectTree(m.Propagations),
		Modes:            m.Modes,
		InlineAsGetter:   m.InlineAsGetter,
		InlineAsSetter:   m.InlineAsSetter,
		Generator:        m.Generator,
		IssueCount:       m.Issues.Len(),
	}
	if len(m.AddFeaturesToArguments) > 0 {
		doc.ForAllParameters = make(map[string][]string, len(m.AddFeaturesToArguments))
		for arg, fs := range m.AddFeaturesToArguments {
			doc.ForAllParameters[fmt.Sprintf("argument(%d)", arg)] = fs
		}
	}
	return doc
}

// projectTree walks every (root, path) entry of tree and, for each
// frame recorded there, emits one TaintConfig. Roots and entries are
// visited in a fixed, sorted order so two runs over the same Model
// produce byte-identical output (spec.md §8's idempotence property).
func projectTree(tree domain.TaintAccessPathTree) []TaintConfig {
	roots := tree.Roots()
	sort.Slice(roots, func(i, j int) bool { return roots[i].String() < roots[j].String() })

	var out []TaintConfig
	for _, root := range roots {
		t := tree.Tree(root)
		entries := t.Entries()
		for _, e := range entries {
			port := root.String()
			if !e.Path.IsEmpty() {
				port = port + "." + e.Path.String()
			}
			locals := e.Taint.Locals()
			sort.Slice(locals, func(i, j int) bool { return locals[i].CallInfo.String() < locals[j].CallInfo.String() })
			for _, lt := range locals {
				kinds := lt.Kinds()
				sort.Slice(kinds, func(i, j int) bool { return kinds[i].String() < kinds[j].String() })
				for _, k := range kinds {
					for _, frame := range lt.KindFrames(k).Frames() {
						out = append(out, frameToConfig(port, k.String(), lt.CallInfo.String(), frame))
					}
				}
			}
		}
	}
	return out
}

func frameToConfig(port, kindName, callInfo string, f domain.Frame) TaintConfig {
	cfg := TaintConfig{
		Kind:     kindName,
		Port:     port,
		Distance: f.Distance,
		CallInfo: callInfo,
	}
	for _, feat := range f.MayFeatures.List() {
		cfg.Features = append(cfg.Features, feat.String())
	}
	for _, feat := range f.AlwaysFeatures.List() {
		cfg.Features = append(cfg.Features, feat.String())
	}
	for _, feat := range f.UserFeatures.List() {
		cfg.Features = append(cfg.Features, feat.String())
	}
	for _, r := range f.ViaTypeOf {
		cfg.ViaTypeOf = append(cfg.ViaTypeOf, r.String())
	}
	for _, r := range f.ViaValueOf {
		cfg.ViaValueOf = append(cfg.ViaValueOf, r.String())
	}
	cfg.CanonicalNames = append(cfg.CanonicalNames, f.CanonicalNames...)
	return cfg
}

// bucketOf returns the shard index for key, using hash/fnv (SPEC_FULL.md
// §6: "bucketing uses hash/fnv over the normalized entry key, grounded
// in the teacher's CacheKey.Hash (sha256 truncation) pattern generalized
// to a faster non-cryptographic hash since shard placement is not
// security sensitive").
func bucketOf(key string, numShards int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32()) % numShards
}

// WriteModelShards writes every method in reg into numShards
// model@NNNN.json files under dir, deterministically bucketed by
// hash/fnv of the method's own id string, one JSON object per line
// with a leading "// @generated" header comment.
func WriteModelShards(dir string, reg *registry.Registry, numShards int) error {
	if numShards <= 0 {
		numShards = 1
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("output: create %s: %w", dir, err)
	}

	shards := make([][]ir.MethodID, numShards)
	ids := reg.AllMethods()
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		b := bucketOf(id.String(), numShards)
		shards[b] = append(shards[b], id)
	}

	for shard, methods := range shards {
		name := fmt.Sprintf("model@%04d.json", shard)
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("output: create %s: %w", name, err)
		}
		w := bufio.NewWriter(f)
		fmt.Fprintln(w, "// @generated")
		enc := json.NewEncoder(w)
		for _, id := range methods {
			m, _ := reg.Get(id)
			if err := enc.Encode(ProjectModel(id.String(), m)); err != nil {
				f.Close()
				return fmt.Errorf("output: encode %s: %w", id.String(), err)
			}
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return fmt.Errorf("output: flush %s: %w", name, err)
		}
		f.Close()
	}
	return nil
}
