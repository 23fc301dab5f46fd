package interproc

import (
	"path/filepath"
	"testing"

	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/model"
)

func TestIssueCacheMissOnEmptyCache(t *testing.T) {
	c := NewIssueCache(t.TempDir())
	key := IssueCacheKey{Method: mid("f"), CodeHash: "abc"}
	if _, ok := c.Load(key); ok {
		t.Fatal("expected a miss on an empty cache")
	}
}

func TestIssueCacheStoreThenLoad(t *testing.T) {
	c := NewIssueCache(t.TempDir())
	key := IssueCacheKey{Method: mid("f"), CodeHash: "abc", CalleeHashes: []string{"def"}}
	issues := model.NewIssues().Add(model.Issue{RuleCode: 1, RuleName: "r", Callee: "LSink;.exec()V"}).All()
	c.Store(key, issues)

	got, ok := c.Load(key)
	if !ok {
		t.Fatal("expected a hit after Store")
	}
	if len(got) != 1 || got[0].RuleCode != 1 {
		t.Fatalf("expected the stored issue to round-trip, got %+v", got)
	}
}

func TestIssueCacheMissOnKeyMismatch(t *testing.T) {
	c := NewIssueCache(t.TempDir())
	key := IssueCacheKey{Method: mid("f"), CodeHash: "abc"}
	c.Store(key, model.NewIssues().Add(model.Issue{RuleCode: 1}).All())

	other := IssueCacheKey{Method: mid("f"), CodeHash: "changed"}
	if _, ok := c.Load(other); ok {
		t.Fatal("expected a miss when the code hash changes, even under the same on-disk path bucket")
	}
}

func TestIssueCacheDisabledIsNoOp(t *testing.T) {
	c := NewIssueCacheDisabled()
	key := IssueCacheKey{Method: mid("f"), CodeHash: "abc"}
	c.Store(key, model.NewIssues().Add(model.Issue{RuleCode: 1}).All())
	if _, ok := c.Load(key); ok {
		t.Fatal("expected a disabled cache to never hit")
	}
}

func TestComputeCodeHashStableAndSensitiveToBody(t *testing.T) {
	a := &ir.Method{Blocks: []ir.BasicBlock{{Instructions: []ir.Instruction{{Op: ir.OpConst, Dest: 0}}}}}
	b := &ir.Method{Blocks: []ir.BasicBlock{{Instructions: []ir.Instruction{{Op: ir.OpConst, Dest: 0}}}}}
	if ComputeCodeHash(a) != ComputeCodeHash(b) {
		t.Fatal("expected identical method bodies to hash identically")
	}

	c := &ir.Method{Blocks: []ir.BasicBlock{{Instructions: []ir.Instruction{{Op: ir.OpConst, Dest: 1}}}}}
	if ComputeCodeHash(a) == ComputeCodeHash(c) {
		t.Fatal("expected a different destination register to change the hash")
	}

	if ComputeCodeHash(nil) != "" {
		t.Fatal("expected a nil method to hash to the empty string")
	}
}

func TestIssueCacheEntryPathShardedByClass(t *testing.T) {
	dir := t.TempDir()
	c := NewIssueCache(dir)
	key := IssueCacheKey{Method: ir.MethodID{Class: "LFoo;", Name: "bar", Signature: "()V"}, CodeHash: "abc"}
	c.Store(key, nil)

	want := filepath.Join(dir, "LFoo_")
	got := c.entryPath(key)
	if filepath.Dir(got) != want {
		t.Fatalf("expected the entry to live under %q, got %q", want, got)
	}
}
