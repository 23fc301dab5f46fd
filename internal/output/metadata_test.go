package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/taintgraph/droidtaint/internal/analysiserror"
)

func TestWriteMetadataRoundTrips(t *testing.T) {
	dir := t.TempDir()
	m := Metadata{
		GeneratedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		MethodCount:    3,
		IssueCount:     1,
		RegistryHits:   10,
		RegistryMisses: 2,
		Converged:      true,
		Errors: []analysiserror.Entry{
			{Kind: "per-method-failure", Method: "LFoo;.bar()V", Message: "timed out"},
		},
	}
	if err := WriteMetadata(dir, m); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got Metadata
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.MethodCount != 3 || got.IssueCount != 1 || !got.Converged {
		t.Fatalf("got %+v", got)
	}
	if len(got.Errors) != 1 || got.Errors[0].Method != "LFoo;.bar()V" {
		t.Fatalf("got errors %+v", got.Errors)
	}
}

func TestWriteMetadataEmptyErrorsMarshalsAsArray(t *testing.T) {
	dir := t.TempDir()
	if err := WriteMetadata(dir, Metadata{Errors: []analysiserror.Entry{}}); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(raw["errors"]) != "[]" {
		t.Fatalf("expected errors to marshal as [], got %s", raw["errors"])
	}
}
