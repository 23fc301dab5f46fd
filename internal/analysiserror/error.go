// Package analysiserror implements the error taxonomy of spec.md §7
// (ERROR HANDLING DESIGN): input errors, model inconsistencies,
// per-method failures, scheduler failures, and programmer invariants,
// each with its own propagation policy. Grounded on the teacher's
// leveled logging (internal/interproc/logger.go, Debugf/Infof/Warnf/
// Errorf) for stderr categorization, and on cmd/gorisk/scan/scan.go's
// split between a hard os.Exit(2) on structural load failures (policy
// file, graph load) and a warn-and-continue path for recoverable
// per-entry problems (an exception with an unparsable expiry date is
// logged and skipped, not fatal to the whole scan).
package analysiserror

import (
	"fmt"

	"github.com/taintgraph/droidtaint/internal/position"
)

// Kind classifies an AnalysisError along the five categories spec.md
// §7 distinguishes by propagation policy.
type Kind int

const (
	// KindInput covers unparseable JSON, unknown kind names, and
	// unresolved method references: fail fast with a located message,
	// never corrupt the registry.
	KindInput Kind = iota
	// KindModelInconsistency covers a model whose port doesn't match
	// the method's arity, a generation on a void return, or a setter
	// inline with mismatched types: rejected at load time, the
	// offending entry is dropped.
	KindModelInconsistency
	// KindPerMethodFailure covers a transfer-function assertion or a
	// per-method timeout: logged, the method's model is replaced by
	// the conservative default and feature.ViaAnalysisError is
	// attached to every parameter.
	KindPerMethodFailure
	// KindSchedulerFailure covers an unreachable callee or a cycle too
	// deep to resolve: logged as a warning, the cycle is widened
	// aggressively rather than aborting the run.
	KindSchedulerFailure
	// KindInvariant covers a violated programmer invariant (e.g.
	// joining LocalTaints with different call-info): these signal a
	// bug and abort the run rather than being recovered from.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindModelInconsistency:
		return "model-inconsistency"
	case KindPerMethodFailure:
		return "per-method-failure"
	case KindSchedulerFailure:
		return "scheduler-failure"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this Kind abort the whole run
// (spec.md §7's propagation policy: "structural errors ... abort
// immediately"). Only KindInput and KindInvariant are fatal; the other
// three are recoverable per-entry or per-method and never fail the run
// on their own.
func (k Kind) Fatal() bool {
	return k == KindInput || k == KindInvariant
}

// AnalysisError is the concrete error type every taxonomy entry
// produces. Method and Position are optional context, filled in
// whenever the error originates from a specific method or source
// location.
type AnalysisError struct {
	Kind     Kind
	Method   string // ir.MethodID.String(), empty if not method-scoped
	Position *position.Position
	Message  string
	Cause    error
}

func (e *AnalysisError) Error() string {
	loc := ""
	switch {
	case e.Method != "" && e.Position != nil:
		loc = fmt.Sprintf("%s (%s): ", e.Method, e.Position.String())
	case e.Method != "":
		loc = fmt.Sprintf("%s: ", e.Method)
	case e.Position != nil:
		loc = fmt.Sprintf("%s: ", e.Position.String())
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s%s: %v", e.Kind, loc, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s%s", e.Kind, loc, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Cause }

// Input builds a fail-fast KindInput error for unparseable documents,
// unknown kind names, or unresolved method references.
func Input(message string, cause error) *AnalysisError {
	return &AnalysisError{Kind: KindInput, Message: message, Cause: cause}
}

// ModelInconsistency builds a KindModelInconsistency error for a
// malformed model entry discovered at load time (port/arity mismatch,
// generation on a void return, mistyped setter inline). method and pos
// identify the offending declared model, if known.
func ModelInconsistency(method string, pos *position.Position, message string) *AnalysisError {
	return &AnalysisError{Kind: KindModelInconsistency, Method: method, Position: pos, Message: message}
}

// PerMethodFailure builds a KindPerMethodFailure error for a
// transfer-function assertion or per-method timeout.
func PerMethodFailure(method string, message string, cause error) *AnalysisError {
	return &AnalysisError{Kind: KindPerMethodFailure, Method: method, Message: message, Cause: cause}
}

// SchedulerFailure builds a KindSchedulerFailure error for an
// unreachable callee or an unresolvably deep cycle.
func SchedulerFailure(message string) *AnalysisError {
	return &AnalysisError{Kind: KindSchedulerFailure, Message: message}
}

// Invariant builds a KindInvariant error for a violated programmer
// invariant. Callers should treat this the way a failed assertion is
// treated elsewhere in the corpus: propagate it up and abort, never
// swallow it.
func Invariant(message string) *AnalysisError {
	return &AnalysisError{Kind: KindInvariant, Message: message}
}
