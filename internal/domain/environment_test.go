package domain

import (
	"testing"

	"github.com/taintgraph/droidtaint/internal/path"
)

func TestEnvironmentBindAndJoinRegisterPoints(t *testing.T) {
	table := NewMemoryTable()
	loc0 := table.Parameter(0)
	loc1 := table.Parameter(1)

	e1 := NewEnvironment(table).BindRegister(2, loc0)
	e2 := NewEnvironment(table).BindRegister(2, loc1)

	joined := e1.Join(e2)
	locs := joined.LocationsOf(2)
	if len(locs) != 2 {
		t.Fatalf("expected register 2 to point to both locations after join, got %v", locs)
	}
}

func TestEnvironmentWriteTaintAndLeq(t *testing.T) {
	table := NewMemoryTable()
	loc := table.Parameter(0)
	f := kindFactoryForTest()
	k := f.Named("UserInput")
	info := CallInfo{Tag: Origin}
	taint := NewTaint().WithLocal(NewLocalTaint(info).AddFrame(topInterval(), Frame{Kind: k}))

	e := NewEnvironment(table).WriteTaint(loc, path.Of(), taint, Weak)
	if e.TaintAt(loc).IsBottom() {
		t.Fatal("expected non-bottom taint at the written location")
	}

	bottom := NewEnvironment(table)
	if !bottom.Leq(e) {
		t.Fatal("expected the bottom environment to be Leq any environment")
	}
}
