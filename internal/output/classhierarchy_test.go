package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/taintgraph/droidtaint/internal/classhierarchy"
)

func TestWriteClassHierarchiesJSON(t *testing.T) {
	h := classhierarchy.Hierarchy{
		Roots: []string{"Ljava/lang/Object;"},
		Children: map[string][]string{
			"Ljava/lang/Object;": {"LBase;"},
			"LBase;":             {"LDerived;"},
		},
	}
	dir := t.TempDir()
	if err := WriteClassHierarchiesJSON(dir, h); err != nil {
		t.Fatalf("WriteClassHierarchiesJSON: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "class_hierarchies.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got classhierarchy.Hierarchy
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Children["LBase;"]) != 1 || got.Children["LBase;"][0] != "LDerived;" {
		t.Fatalf("got %+v", got)
	}
}

func TestWriteClassIntervalsJSONSortedByClass(t *testing.T) {
	intervals := map[string]classhierarchy.Interval{
		"LZed;": {Lower: 4, Upper: 5},
		"LAbc;": {Lower: 0, Upper: 9, PreservesTypeContext: true},
	}
	dir := t.TempDir()
	if err := WriteClassIntervalsJSON(dir, intervals); err != nil {
		t.Fatalf("WriteClassIntervalsJSON: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "class_intervals.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var docs []ClassIntervalDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(docs))
	}
	if docs[0].Class != "LAbc;" || docs[1].Class != "LZed;" {
		t.Fatalf("expected sorted order, got %+v", docs)
	}
	if !docs[0].PreservesTypeContext {
		t.Fatal("expected LAbc; to preserve type context")
	}
}
