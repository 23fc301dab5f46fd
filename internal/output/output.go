// Package output writes the whole-program analysis's external artifacts:
// metadata.json, sharded model@NNNN.json model documents, methods.json,
// class_hierarchies.json, overrides.json, class_intervals.json,
// file_coverage.txt, and rule_coverage.json (SPEC_FULL.md §6). Grounded
// on the teacher's internal/report package — one small file per output
// format, each a thin wrapper around encoding/json.NewEncoder with
// SetIndent("", "  ") (internal/report/json.go) — generalized from a
// single ScanReport's handful of formats to this engine's file-per-
// artifact output directory.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// writeJSON encodes v to dir/name with two-space indentation, the same
// shape every one of the teacher's report/*.go writers uses.
func writeJSON(dir, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("output: marshal %s: %w", name, err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("output: create %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("output: write %s: %w", name, err)
	}
	return nil
}
