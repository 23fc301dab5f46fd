package output

import (
	"sort"

	"github.com/taintgraph/droidtaint/internal/ir"
)

// MethodDoc is one methods.json entry: the call graph's own view of a
// method, independent of whatever Model the registry has converged on.
type MethodDoc struct {
	Class        string `json:"class"`
	Name         string `json:"name"`
	Signature    string `json:"signature"`
	IsStatic     bool   `json:"is_static"`
	NumParams    int    `json:"num_params"`
	HasReturn    bool   `json:"has_return"`
	DeclaredHere bool   `json:"declared_here"`
	CalleeCount  int    `json:"callee_count"`
	CallerCount  int    `json:"caller_count"`
}

// WriteMethodsJSON writes every method of graph, sorted by id string for
// determinism, as dir/methods.json.
func WriteMethodsJSON(dir string, graph *ir.CallGraph) error {
	ids := graph.AllMethods()
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	docs := make([]MethodDoc, 0, len(ids))
	for _, id := range ids {
		m := graph.Methods[id]
		doc := MethodDoc{
			Class:       id.Class,
			Name:        id.Name,
			Signature:   id.Signature,
			CalleeCount: len(graph.Callees(id)),
			CallerCount: len(graph.Callers(id)),
		}
		if m != nil {
			doc.IsStatic = m.IsStatic
			doc.NumParams = m.NumParams
			doc.HasReturn = m.HasReturn
			doc.DeclaredHere = m.DeclaredHere
		}
		docs = append(docs, doc)
	}
	return writeJSON(dir, "methods.json", docs)
}
