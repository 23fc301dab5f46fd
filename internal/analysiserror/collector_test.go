package analysiserror

import (
	"sync"
	"testing"

	"github.com/taintgraph/droidtaint/internal/position"
)

func TestCollectorAddNilIsNoOp(t *testing.T) {
	c := NewCollector()
	c.Add(nil)
	if c.Len() != 0 {
		t.Fatalf("expected Add(nil) to be a no-op, got %d entries", c.Len())
	}
}

func TestCollectorEntriesProjection(t *testing.T) {
	c := NewCollector()
	c.Add(PerMethodFailure("LFoo;.bar()V", "timeout", nil))
	c.Add(ModelInconsistency("LBaz;.qux()V", &position.Position{Path: "Baz.java", Line: 3, Start: -1, End: -1}, "bad port"))

	entries := c.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Kind != "per-method-failure" || entries[0].Method != "LFoo;.bar()V" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Position != "Baz.java:3" && entries[1].Position == "" {
		t.Fatalf("expected a non-empty position string, got %+v", entries[1])
	}
}

func TestCollectorConcurrentAdd(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Add(SchedulerFailure("concurrent"))
		}(i)
	}
	wg.Wait()
	if c.Len() != 50 {
		t.Fatalf("expected 50 collected errors, got %d", c.Len())
	}
}
