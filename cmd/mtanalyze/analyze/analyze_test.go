package analyze

import (
	"os"
	"path/filepath"
	"testing"
)

const analyzeTestShard = `[
  {"class": "LFoo;", "name": "bar", "signature": "()V", "is_static": true,
   "blocks": [{"instructions": [{"op": "return", "dest": -1}], "successors": []}]}
]`

const analyzeTestRules = `[
  {"name": "tainted-intent", "code": 1, "description": "user input reaches a dangerous sink",
   "sources": ["UserInput"], "sinks": ["Exec"]}
]`

func writeTestInputs(t *testing.T) (shardDir, rulesPath string) {
	t.Helper()
	shardDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(shardDir, "shard.json"), []byte(analyzeTestShard), 0o644); err != nil {
		t.Fatalf("write shard: %v", err)
	}
	rulesFile := filepath.Join(t.TempDir(), "rules.json")
	if err := os.WriteFile(rulesFile, []byte(analyzeTestRules), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return shardDir, rulesFile
}

func TestRunEndToEndWritesEveryArtifact(t *testing.T) {
	shardDir, rulesFile := writeTestInputs(t)
	outDir := t.TempDir()

	code := Run([]string{"-input", shardDir, "-rules", rulesFile, "-output", outDir, "-model-shards", "2"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	for _, name := range []string{
		"metadata.json", "methods.json", "class_hierarchies.json",
		"class_intervals.json", "overrides.json", "file_coverage.txt",
		"rule_coverage.json", "model@0000.json", "model@0001.json",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestRunFailsFastWithoutRequiredFlags(t *testing.T) {
	if code := Run([]string{"-input", t.TempDir()}); code != 2 {
		t.Fatalf("expected exit code 2 without -rules, got %d", code)
	}
	if code := Run([]string{"-rules", "x.json"}); code != 2 {
		t.Fatalf("expected exit code 2 without -input, got %d", code)
	}
}

func TestRunFailsOnMalformedRulesFile(t *testing.T) {
	shardDir, _ := writeTestInputs(t)
	badRules := filepath.Join(t.TempDir(), "rules.json")
	if err := os.WriteFile(badRules, []byte(`{"not": "a list"}`), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	code := Run([]string{"-input", shardDir, "-rules", badRules, "-output", t.TempDir()})
	if code != 2 {
		t.Fatalf("expected exit code 2 on malformed rules, got %d", code)
	}
}
