package path

import "testing"

func TestPathAppendExtendPopBack(t *testing.T) {
	p := Of(Field("a"), Field("b"))
	p2 := p.Append(Field("c"))
	if p2.String() != ".a.b.c" {
		t.Fatalf("got %q", p2.String())
	}
	if p.String() != ".a.b" {
		t.Fatalf("append mutated receiver: %q", p.String())
	}

	extended := p.Extend(Of(Index("0")))
	if extended.String() != ".a.b[0]" {
		t.Fatalf("got %q", extended.String())
	}

	popped := p2.PopBack()
	if !popped.Equals(p) {
		t.Fatalf("pop_back(append(p,c)) != p: %q vs %q", popped, p)
	}

	if !Of().PopBack().Equals(Of()) {
		t.Fatal("pop_back on empty path must be a no-op")
	}
}

func TestPathTruncateAndPrefix(t *testing.T) {
	p := Of(Field("a"), Field("b"), Field("c"))
	if !p.Truncate(2).Equals(Of(Field("a"), Field("b"))) {
		t.Fatal("truncate(2) mismatch")
	}
	if !p.Truncate(10).Equals(p) {
		t.Fatal("truncate beyond length should be identity")
	}
	if !Of(Field("a")).IsPrefixOf(p) {
		t.Fatal("expected prefix")
	}
	if p.IsPrefixOf(Of(Field("a"))) {
		t.Fatal("longer path cannot be prefix of shorter")
	}
}

func TestReduceToCommonPrefix(t *testing.T) {
	a := Of(Field("x"), Field("y"), Field("z"))
	b := Of(Field("x"), Field("y"), Index("0"))
	got := ReduceToCommonPrefix(a, b)
	if !got.Equals(Of(Field("x"), Field("y"))) {
		t.Fatalf("got %q", got)
	}
}

func TestResolve(t *testing.T) {
	p := Of(Field("items"), IndexFromValueOf(1))
	resolved := p.Resolve(map[int]string{1: "key"})
	if !resolved.Equals(Of(Field("items"), Index("key"))) {
		t.Fatalf("got %q", resolved)
	}
	unresolved := p.Resolve(nil)
	if !unresolved.Equals(Of(Field("items"), AnyIndex())) {
		t.Fatalf("got %q", unresolved)
	}
}

func TestRootEncodeDistinctness(t *testing.T) {
	seen := map[uint64]Root{}
	roots := []Root{Argument(0), Argument(1), Argument(MaxArgument), Return(), Leaf(), Anchor(), Producer(), CanonicalThis(), CallEffect()}
	for _, r := range roots {
		k := r.Encode()
		if other, ok := seen[k]; ok {
			t.Fatalf("encode collision between %v and %v", other, r)
		}
		seen[k] = r
	}
}
