// overrides.go derives overrides.json from the call graph itself. No
// dedicated Overrides domain type exists in this module (the registry
// keys models directly by MethodID; virtual dispatch is instead
// resolved once, ahead of time, into the multiple ir.CallTarget entries
// an OpInvoke instruction carries) — so overrides.json is reconstructed
// by grouping, at each multi-target invoke site, the targets that share
// a Name+Signature but differ by declaring Class. This mirrors
// spec.md's "Overrides" entry in its immutable-after-construction list
// as a derived view rather than a stored structure.
package output

import (
	"sort"

	"github.com/taintgraph/droidtaint/internal/ir"
)

// OverrideGroup lists every resolved override target sharing one
// Name+Signature, as observed at some virtual call site.
type OverrideGroup struct {
	Name       string   `json:"name"`
	Signature  string   `json:"signature"`
	Overriders []string `json:"overriders"` // declaring classes, sorted
}

// WriteOverridesJSON derives and writes overrides.json from graph's
// multi-target invoke instructions.
func WriteOverridesJSON(dir string, graph *ir.CallGraph) error {
	type key struct{ name, sig string }
	groups := make(map[key]map[string]bool)

	ids := graph.AllMethods()
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		m := graph.Methods[id]
		if m == nil {
			continue
		}
		for _, block := range m.Blocks {
			for _, instr := range block.Instructions {
				if instr.Op != ir.OpInvoke || len(instr.Targets) < 2 {
					continue
				}
				byNameSig := make(map[key]map[string]bool)
				for _, t := range instr.Targets {
					k := key{t.Callee.Name, t.Callee.Signature}
					if byNameSig[k] == nil {
						byNameSig[k] = make(map[string]bool)
					}
					byNameSig[k][t.Callee.Class] = true
				}
				for k, classes := range byNameSig {
					if len(classes) < 2 {
						continue
					}
					if groups[k] == nil {
						groups[k] = make(map[string]bool)
					}
					for c := range classes {
						groups[k][c] = true
					}
				}
			}
		}
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].name != keys[j].name {
			return keys[i].name < keys[j].name
		}
		return keys[i].sig < keys[j].sig
	})

	docs := make([]OverrideGroup, 0, len(keys))
	for _, k := range keys {
		classes := make([]string, 0, len(groups[k]))
		for c := range groups[k] {
			classes = append(classes, c)
		}
		sort.Strings(classes)
		docs = append(docs, OverrideGroup{Name: k.name, Signature: k.sig, Overriders: classes})
	}
	return writeJSON(dir, "overrides.json", docs)
}
