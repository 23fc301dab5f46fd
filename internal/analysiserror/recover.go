package analysiserror

import (
	"fmt"

	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/feature"
	"github.com/taintgraph/droidtaint/internal/model"
)

// AttachViaAnalysisError marks every one of a method's numParams
// arguments with feature.ViaAnalysisError (spec.md §7: "... a
// via-analysis-error feature is attached to every parameter"), so any
// caller that forwards one of those arguments inherits a visible marker
// that the callee's own model is not trustworthy.
func AttachViaAnalysisError(m *model.Model, numParams int) {
	if m.AddFeaturesToArguments == nil {
		m.AddFeaturesToArguments = make(map[int][]string)
	}
	name := feature.ViaAnalysisError.String()
	for i := 0; i < numParams; i++ {
		existing := m.AddFeaturesToArguments[i]
		if containsFeature(existing, name) {
			continue
		}
		m.AddFeaturesToArguments[i] = append(existing, name)
	}
}

func containsFeature(fs []string, name string) bool {
	for _, f := range fs {
		if f == name {
			return true
		}
	}
	return false
}

// ConservativeModel builds the fallback Model assigned to a method
// whose own analysis failed: TaintInTaintOut (every argument may reach
// the return value), the method's already-declared sinks preserved
// so known dangerous calls are not silently dropped, and
// via-analysis-error attached to every parameter. This is the same
// shape as model.TimeoutModel, reused here for the per-method-failure
// case the timeout case already exercises via
// internal/interproc/fixpoint.go.
func ConservativeModel(method string, numParams int, declaredSinks domain.TaintAccessPathTree) model.Model {
	m := model.TimeoutModel(method, declaredSinks)
	m.Generator = "analysis-error-conservative"
	AttachViaAnalysisError(&m, numParams)
	return m
}

// Recover runs fn and, if it panics (a transfer-function assertion
// failure, spec.md §7's KindPerMethodFailure), converts the panic into
// a *AnalysisError and substitutes ConservativeModel for the method's
// result rather than letting the panic escape and abort the whole run.
// numParams and declaredSinks parameterize the conservative fallback
// the same way fixpoint.go's timeout path does.
func Recover(method string, numParams int, declaredSinks domain.TaintAccessPathTree, fn func() model.Model) (result model.Model, err *AnalysisError) {
	defer func() {
		if r := recover(); r != nil {
			err = PerMethodFailure(method, "transfer function panicked", fmt.Errorf("%v", r))
			result = ConservativeModel(method, numParams, declaredSinks)
		}
	}()
	return fn(), nil
}
