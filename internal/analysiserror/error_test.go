package analysiserror

import (
	"errors"
	"strings"
	"testing"

	"github.com/taintgraph/droidtaint/internal/position"
)

func TestKindFatal(t *testing.T) {
	fatal := []Kind{KindInput, KindInvariant}
	recoverable := []Kind{KindModelInconsistency, KindPerMethodFailure, KindSchedulerFailure}

	for _, k := range fatal {
		if !k.Fatal() {
			t.Errorf("expected %s to be fatal", k)
		}
	}
	for _, k := range recoverable {
		if k.Fatal() {
			t.Errorf("expected %s to be recoverable, not fatal", k)
		}
	}
}

func TestAnalysisErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Input("bad json", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to see through to the wrapped cause")
	}
}

func TestAnalysisErrorStringIncludesLocation(t *testing.T) {
	pos := &position.Position{Path: "Foo.java", Line: 12, Start: -1, End: -1}
	err := ModelInconsistency("LFoo;.bar()V", pos, "port does not match method arity")
	s := err.Error()
	if !strings.Contains(s, "LFoo;.bar()V") || !strings.Contains(s, "Foo.java") {
		t.Fatalf("expected method and position in error string, got %q", s)
	}
}

func TestAnalysisErrorStringWithoutLocation(t *testing.T) {
	err := SchedulerFailure("cycle too deep")
	s := err.Error()
	if !strings.Contains(s, "cycle too deep") || !strings.Contains(s, "scheduler-failure") {
		t.Fatalf("unexpected error string %q", s)
	}
}
