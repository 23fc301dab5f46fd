// Package path implements the Root/PathElement/Path vocabulary used to
// name logical positions ("ports") on a method's interface, per spec.md
// §3. The tagged-small-struct-with-String() shape follows
// internal/ir.Symbol/CallEdge in the teacher, and the tagged-reference
// hierarchy (Local/Global/Synthetic) in
// google-go-flow-levee/internal/pkg/earpointer/heap.go informed the
// PathElement tagging.
package path

import "fmt"

// RootTag identifies the kind of Root.
type RootTag uint8

const (
	RootArgument RootTag = iota
	RootReturn
	RootLeaf
	RootAnchor
	RootProducer
	RootCanonicalThis
	RootCallEffect
)

// sentinel argument index used to mark a non-argument root's Index field;
// arguments occupy [0, MaxArgument]. Encoding as a single unsigned integer
// (tag in the high bits, argument index in the low bits) gives Root cheap
// equality/hash, as spec.md §3 requires ("Encoded as an unsigned integer
// with sentinel values at the top of the range").
const MaxArgument = 1<<24 - 1

// Root is the base of an AccessPath.
type Root struct {
	tag   RootTag
	index int // only meaningful when tag == RootArgument
}

func Argument(i int) Root          { return Root{tag: RootArgument, index: i} }
func Return() Root                 { return Root{tag: RootReturn} }
func Leaf() Root                   { return Root{tag: RootLeaf} }
func Anchor() Root                 { return Root{tag: RootAnchor} }
func Producer() Root               { return Root{tag: RootProducer} }
func CanonicalThis() Root          { return Root{tag: RootCanonicalThis} }
func CallEffect() Root             { return Root{tag: RootCallEffect} }

func (r Root) IsArgument() bool { return r.tag == RootArgument }

// ArgumentIndex returns the argument position; only valid when IsArgument.
func (r Root) ArgumentIndex() int { return r.index }

func (r Root) Tag() RootTag { return r.tag }

// Encode packs the root into a single unsigned integer: argument roots
// occupy [0, MaxArgument], the non-argument tags occupy sentinel values
// above that range. Used as a map key and for cheap equality.
func (r Root) Encode() uint64 {
	if r.tag == RootArgument {
		return uint64(r.index)
	}
	return uint64(MaxArgument) + 1 + uint64(r.tag)
}

func (r Root) String() string {
	switch r.tag {
	case RootArgument:
		return fmt.Sprintf("Argument(%d)", r.index)
	case RootReturn:
		return "Return"
	case RootLeaf:
		return "Leaf"
	case RootAnchor:
		return "Anchor"
	case RootProducer:
		return "Producer"
	case RootCanonicalThis:
		return "CanonicalThis"
	case RootCallEffect:
		return "CallEffect"
	default:
		return "<unknown-root>"
	}
}
