// Package kind hash-conses the atomic labels of the taint domain: source/
// sink Kinds, Transform tokens, canonical TransformLists, and AccessPath
// values. Every value handed out by this package's Factory is
// pointer-interned — "hash-consed: pointer equality equals semantic
// equality" (spec.md §2.1) — which is what lets internal/domain compare
// and hash Frames cheaply.
//
// The bucketed-lock interning discipline follows
// internal/position.Factory (itself grounded in the teacher's
// fine-grained-lock-per-bucket concurrency model, spec.md §5); the closed-
// vs-open naming split between built-in Kinds and Named/Partial ones
// mirrors internal/capability/patternset.go's load-time validation against
// a known taxonomy (capByName / resolveCapNames).
package kind

import (
	"fmt"

	"github.com/taintgraph/droidtaint/internal/path"
)

// Tag identifies which Kind variant a value is.
type Tag uint8

const (
	TagNamed Tag = iota
	TagPartial
	TagTransform
	TagPropagation
	TagLeaf
	TagLocalReturn
	TagLocalArgument
	TagReceiver
	TagLocalResult
)

// Kind is a hash-consed label identifying a class of tainted value (source
// kind) or dangerous consumer (sink kind). Two Kinds are the same kind iff
// they are the same pointer.
type Kind struct {
	tag  Tag
	name string // TagNamed, TagPartial label
	base *Kind  // TagPartial, TagTransform

	localTransforms  *TransformList // TagTransform, nullable
	globalTransforms *TransformList // TagTransform, nullable

	propagationRoot path.Root // TagPropagation

	argIndex int // TagLocalArgument

	key string // canonical string used as the intern-table key
}

func (k *Kind) Tag() Tag    { return k.tag }
func (k *Kind) Name() string { return k.name }
func (k *Kind) Base() *Kind { return k.base }

// AsTransform returns (base, local, global, true) when k is a transform
// kind, standing in for the source language's dynamic `as<TransformKind>`
// cast (spec.md §9: "dynamic dispatch ... becomes pattern matching").
func (k *Kind) AsTransform() (base *Kind, local, global *TransformList, ok bool) {
	if k.tag != TagTransform {
		return nil, nil, nil, false
	}
	return k.base, k.localTransforms, k.globalTransforms, true
}

// AsPropagationKind returns the propagation root when k is a
// PropagationKind.
func (k *Kind) AsPropagationKind() (path.Root, bool) {
	if k.tag != TagPropagation {
		return path.Root{}, false
	}
	return k.propagationRoot, true
}

// AsPartial returns (base, label, true) when k is a Partial kind.
func (k *Kind) AsPartial() (base *Kind, label string, ok bool) {
	if k.tag != TagPartial {
		return nil, "", false
	}
	return k.base, k.name, true
}

// LocalArgumentIndex returns the argument index of a TagLocalArgument
// kind.
func (k *Kind) LocalArgumentIndex() int { return k.argIndex }

func (k *Kind) String() string {
	switch k.tag {
	case TagNamed:
		return k.name
	case TagPartial:
		return fmt.Sprintf("%s:%s", k.base, k.name)
	case TagTransform:
		s := k.base.String()
		if k.localTransforms != nil {
			s = k.localTransforms.String() + "@" + s
		}
		if k.globalTransforms != nil {
			s = s + "@" + k.globalTransforms.String()
		}
		return s
	case TagPropagation:
		return "Propagation[" + k.propagationRoot.String() + "]"
	case TagLeaf:
		return "Leaf"
	case TagLocalReturn:
		return "LocalReturn"
	case TagLocalArgument:
		return fmt.Sprintf("LocalArgument(%d)", k.argIndex)
	case TagReceiver:
		return "Receiver"
	case TagLocalResult:
		return "LocalResult"
	default:
		return "<unknown-kind>"
	}
}
