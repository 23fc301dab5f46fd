package analysiserror

import (
	"testing"

	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/path"
)

func TestValidatePortArityAccepts(t *testing.T) {
	tree := domain.NewTaintAccessPathTree().Write(path.Argument(0), path.Path{}, domain.NewTaint(), domain.Weak)
	if err := ValidatePortArity("LFoo;.bar(I)V", tree, 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidatePortArityRejectsOutOfRange(t *testing.T) {
	tree := domain.NewTaintAccessPathTree().Write(path.Argument(3), path.Path{}, domain.NewTaint(), domain.Weak)
	err := ValidatePortArity("LFoo;.bar(I)V", tree, 1)
	if err == nil || err.Kind != KindModelInconsistency {
		t.Fatalf("expected a KindModelInconsistency error, got %v", err)
	}
}

func TestValidateNoGenerationOnVoidReturnAccepts(t *testing.T) {
	tree := domain.NewTaintAccessPathTree().Write(path.Argument(0), path.Path{}, domain.NewTaint(), domain.Weak)
	if err := ValidateNoGenerationOnVoidReturn("LFoo;.bar(I)V", tree, false); err != nil {
		t.Fatalf("expected no error for a non-return generation, got %v", err)
	}
}

func TestValidateNoGenerationOnVoidReturnRejects(t *testing.T) {
	tree := domain.NewTaintAccessPathTree().Write(path.Return(), path.Path{}, domain.NewTaint(), domain.Weak)
	err := ValidateNoGenerationOnVoidReturn("LFoo;.bar(I)V", tree, false)
	if err == nil || err.Kind != KindModelInconsistency {
		t.Fatalf("expected a KindModelInconsistency error, got %v", err)
	}

	if err := ValidateNoGenerationOnVoidReturn("LFoo;.bar(I)Z", tree, true); err != nil {
		t.Fatalf("expected no error when the method does have a return, got %v", err)
	}
}
