package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteJSONCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	if err := writeJSON(dir, "thing.json", map[string]int{"a": 1}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "thing.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["a"] != 1 {
		t.Fatalf("got %v", got)
	}
}

func TestWriteJSONIsIndented(t *testing.T) {
	dir := t.TempDir()
	if err := writeJSON(dir, "thing.json", map[string]int{"a": 1}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "thing.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) == `{"a":1}` {
		t.Fatal("expected indented output, got compact")
	}
}
