package registry

import (
	"sync"
	"testing"

	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/model"
)

func TestGetMissReturnsFalse(t *testing.T) {
	r := New()
	id := ir.MethodID{Class: "LA;", Name: "f", Signature: "()V"}
	if _, ok := r.Get(id); ok {
		t.Fatal("expected a miss on an empty registry")
	}
}

func TestSetThenGet(t *testing.T) {
	r := New()
	id := ir.MethodID{Class: "LA;", Name: "f", Signature: "()V"}
	m := model.New(id.String())
	r.Set(id, m)
	got, ok := r.Get(id)
	if !ok || got.Method != m.Method {
		t.Fatalf("expected to read back the set model, got %+v, %v", got, ok)
	}
}

func TestJoinWithMergesRatherThanReplaces(t *testing.T) {
	r := New()
	id := ir.MethodID{Class: "LA;", Name: "f", Signature: "()V"}
	a := model.New(id.String())
	a.Modes.TaintInTaintOut = true
	r.Set(id, a)

	b := model.New(id.String())
	b.Modes.AddViaObscureFeature = true
	joined := r.JoinWith(id, b)

	if !joined.Modes.TaintInTaintOut || !joined.Modes.AddViaObscureFeature {
		t.Fatalf("expected JoinWith to OR mode bits from both models, got %+v", joined.Modes)
	}
	got, _ := r.Get(id)
	if !got.Modes.TaintInTaintOut || !got.Modes.AddViaObscureFeature {
		t.Fatal("expected the stored model to reflect the join")
	}
}

func TestConcurrentSetAndGet(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := ir.MethodID{Class: "LA;", Name: "m", Signature: "()V"}
			id.Name = id.Name + string(rune('0'+i%10))
			r.Set(id, model.New(id.String()))
			r.Get(id)
		}()
	}
	wg.Wait()
}

func TestStatsCountsHitsAndMisses(t *testing.T) {
	r := New()
	id := ir.MethodID{Class: "LA;", Name: "f", Signature: "()V"}
	r.Get(id) // miss
	r.Set(id, model.New(id.String()))
	r.Get(id) // hit
	hits, misses := r.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got hits=%d misses=%d", hits, misses)
	}
}
