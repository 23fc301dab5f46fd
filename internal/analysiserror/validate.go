package analysiserror

import (
	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/path"
)

// ValidatePortArity checks a declared model's taint-access-path tree
// against the method it was declared for, returning a
// KindModelInconsistency error for the first argument root whose index
// falls outside [0, numParams) (spec.md §7: "port not matching method
// arity ... reject at load time"). A nil error means every argument
// root in tree is in range; Root kinds other than Argument (Return,
// Leaf, Anchor, ...) are never out of arity and are skipped.
func ValidatePortArity(method string, tree domain.TaintAccessPathTree, numParams int) *AnalysisError {
	for _, root := range tree.Roots() {
		if !root.IsArgument() {
			continue
		}
		if idx := root.ArgumentIndex(); idx < 0 || idx >= numParams {
			return ModelInconsistency(method, nil, "declared port argument index out of range for method arity")
		}
	}
	return nil
}

// ValidateNoGenerationOnVoidReturn rejects a declared Generations tree
// that writes to path.Return() for a method with no return value
// (spec.md §7: "generation on void-return ... reject at load time").
func ValidateNoGenerationOnVoidReturn(method string, generations domain.TaintAccessPathTree, hasReturn bool) *AnalysisError {
	if hasReturn {
		return nil
	}
	for _, root := range generations.Roots() {
		if root == path.Return() {
			return ModelInconsistency(method, nil, "declared generation targets the return value of a void method")
		}
	}
	return nil
}
