package domain

import (
	"testing"

	"github.com/taintgraph/droidtaint/internal/path"
)

func TestPathTreeAddAndLeaves(t *testing.T) {
	tr := NewPathTree()
	tr = tr.Add(path.Of(path.Field("a"), path.Field("b")))
	tr = tr.Add(path.Of(path.Field("a"), path.Field("c")))
	tr = tr.Add(path.Of(path.Field("x")))

	if got := tr.Leaves(); got != 3 {
		t.Fatalf("expected 3 leaves, got %d", got)
	}
}

func TestPathTreeWideningCollapsesToLeafBudget(t *testing.T) {
	tr := NewPathTree()
	for i := 0; i < 200; i++ {
		tr = tr.Add(path.Of(path.Index(indexName(i))))
	}
	if got := tr.Leaves(); got != 200 {
		t.Fatalf("expected 200 distinct leaves before collapsing, got %d", got)
	}

	collapsed, didCollapse := tr.CollapseToLeafCount(50)
	if !didCollapse {
		t.Fatal("expected collapsing to occur")
	}
	if got := collapsed.Leaves(); got > 50 {
		t.Fatalf("expected at most 50 leaves after collapsing, got %d", got)
	}
}

func indexName(i int) string {
	digits := "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	return indexName(i/10) + string(digits[i%10])
}
