package domain

import (
	"testing"

	"github.com/taintgraph/droidtaint/internal/path"
)

func TestTaintTreeWeakWriteJoinsStrongReplaces(t *testing.T) {
	f := kindFactoryForTest()
	k := f.Named("UserInput")
	info := CallInfo{Tag: Origin}

	mkTaint := func(distance int) Taint {
		return NewTaint().WithLocal(NewLocalTaint(info).AddFrame(topInterval(), Frame{Kind: k, Distance: distance}))
	}

	tr := NewTaintTree()
	tr = tr.Write(path.Of(path.Field("x")), mkTaint(1), Weak)
	tr = tr.Write(path.Of(path.Field("x")), mkTaint(5), Weak)

	got := tr.Read(path.Of(path.Field("x")), nil)
	if got.IsBottom() {
		t.Fatal("expected non-bottom taint after two weak writes")
	}

	tr2 := tr.Write(path.Of(path.Field("x")), mkTaint(9), Strong)
	got2 := tr2.Read(path.Of(path.Field("x")), nil)
	if got2.IsBottom() {
		t.Fatal("expected non-bottom taint after strong write")
	}
}

func TestTaintTreeReadSubsumesPrefix(t *testing.T) {
	f := kindFactoryForTest()
	k := f.Named("UserInput")
	info := CallInfo{Tag: Origin}
	taint := NewTaint().WithLocal(NewLocalTaint(info).AddFrame(topInterval(), Frame{Kind: k}))

	tr := NewTaintTree().Write(path.Of(), taint, Weak)
	deep := tr.Read(path.Of(path.Field("a"), path.Field("b")), nil)
	if deep.IsBottom() {
		t.Fatal("expected a descendant read to see taint written at an ancestor")
	}
}

func TestTaintTreeLeqJoinInvariant(t *testing.T) {
	f := kindFactoryForTest()
	k := f.Named("UserInput")
	info := CallInfo{Tag: Origin}

	small := NewTaint().WithLocal(NewLocalTaint(info).AddFrame(topInterval(), Frame{Kind: k, Distance: 5}))
	big := NewTaint().WithLocal(NewLocalTaint(info).AddFrame(topInterval(), Frame{Kind: k, Distance: 1}))

	x := NewTaintTree().Write(path.Of(path.Field("f")), small, Weak)
	y := NewTaintTree().Write(path.Of(path.Field("f")), big, Weak)

	if !x.Leq(y) {
		t.Fatal("expected x.Leq(y)")
	}
	if joined := x.Join(y); !joined.Equals(y) {
		t.Fatal("x.leq(y) should imply x.join(y) == y")
	}
}
