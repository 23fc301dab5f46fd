package classhierarchy

import "testing"

// Base
//  ├─ A
//  │   └─ A1
//  └─ B
func TestBuildNesting(t *testing.T) {
	h := Hierarchy{
		Children: map[string][]string{
			"Base": {"A", "B"},
			"A":    {"A1"},
		},
		Roots: []string{"Base"},
	}
	intervals := Build(h)

	for _, class := range []string{"Base", "A", "A1", "B"} {
		if _, ok := intervals[class]; !ok {
			t.Fatalf("missing interval for %s", class)
		}
	}

	if !intervals["Base"].Contains(intervals["A"]) {
		t.Fatal("Base should contain A")
	}
	if !intervals["A"].Contains(intervals["A1"]) {
		t.Fatal("A should contain A1")
	}
	if intervals["B"].Contains(intervals["A1"]) {
		t.Fatal("B should not contain A1")
	}
	if !intervals["Base"].Contains(intervals["A1"]) {
		t.Fatal("Base should transitively contain A1")
	}
}

func TestMeetEmptyForUnrelatedClasses(t *testing.T) {
	h := Hierarchy{
		Children: map[string][]string{"Base": {"A", "B"}},
		Roots:    []string{"Base"},
	}
	intervals := Build(h)
	meet := intervals["A"].Meet(intervals["B"])
	if !meet.IsEmpty() {
		t.Fatalf("expected empty meet for unrelated siblings, got %v", meet)
	}
}

func TestTopIsIdentity(t *testing.T) {
	h := Hierarchy{Children: map[string][]string{"Base": {"A"}}, Roots: []string{"Base"}}
	intervals := Build(h)
	a := intervals["A"]
	if got := Top.Meet(a); got != a {
		t.Fatalf("Top.Meet(a) should equal a, got %v", got)
	}
	if got := a.Meet(Top); got != a {
		t.Fatalf("a.Meet(Top) should equal a, got %v", got)
	}
}
