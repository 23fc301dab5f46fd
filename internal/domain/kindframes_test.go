package domain

import "testing"

func TestKindFramesAddJoinsCompatibleIntervals(t *testing.T) {
	f := kindFactoryForTest()
	k := f.Named("UserInput")

	kf := NewKindFrames()
	kf = kf.Add(topInterval(), Frame{Kind: k, Distance: 3})
	kf = kf.Add(topInterval(), Frame{Kind: k, Distance: 1})

	frames := kf.Frames()
	if len(frames) != 1 {
		t.Fatalf("expected one merged entry for the same interval, got %d", len(frames))
	}
	if frames[0].Distance != 1 {
		t.Fatalf("expected merged distance to take the minimum (1), got %d", frames[0].Distance)
	}
}

func TestKindFramesLeqAndEquals(t *testing.T) {
	f := kindFactoryForTest()
	k := f.Named("UserInput")

	a := NewKindFrames().Add(topInterval(), Frame{Kind: k, Distance: 5})
	b := NewKindFrames().Add(topInterval(), Frame{Kind: k, Distance: 5})
	if !a.Equals(b) {
		t.Fatal("expected structurally equal KindFrames to be Equals")
	}
}
