package domain

import (
	"fmt"

	"github.com/taintgraph/droidtaint/internal/path"
)

// MemoryLocation is an index into a single method's MemoryTable arena
// (spec.md §9: "Use arena allocation with indices: each MemoryLocation is
// an index into a per-method table"). The zero value is not a valid
// location; use MemoryTable.Parameter/Instruction/ResultRegister/MakeField
// to obtain one.
type MemoryLocation int

// cellKind tags what kind of abstract cell a MemoryTable slot holds,
// mirroring the Local/Global/Synthetic tagging in
// google-go-flow-levee/internal/pkg/earpointer/heap.go, generalized from
// an SSA-register heap partition to a bytecode memory cell.
type cellKind int

const (
	cellParameter cellKind = iota
	cellInstruction
	cellField
	cellResultRegister
)

type cell struct {
	kind   cellKind
	index  int // parameter index or instruction index, depending on kind
	parent MemoryLocation
	field  string
}

// MemoryTable is the forest of abstract cells for one method: parameter
// cells, instruction cells (new-instance / result registers), field
// derivations, and the singleton result_register (spec.md §3).
type MemoryTable struct {
	cells       []cell
	params      map[int]MemoryLocation
	instrs      map[int]MemoryLocation
	fields      map[fieldKey]MemoryLocation
	resultReg   MemoryLocation
	haveResult  bool
}

type fieldKey struct {
	parent MemoryLocation
	field  string
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{
		params: make(map[int]MemoryLocation),
		instrs: make(map[int]MemoryLocation),
		fields: make(map[fieldKey]MemoryLocation),
	}
}

func (m *MemoryTable) alloc(c cell) MemoryLocation {
	m.cells = append(m.cells, c)
	return MemoryLocation(len(m.cells) - 1)
}

// Parameter returns the cell for formal parameter i, one per formal
// (spec.md §3), allocating it on first use.
func (m *MemoryTable) Parameter(i int) MemoryLocation {
	if loc, ok := m.params[i]; ok {
		return loc
	}
	loc := m.alloc(cell{kind: cellParameter, index: i})
	m.params[i] = loc
	return loc
}

// Instruction returns the cell for the value produced at instruction
// index idx (a new-instance or any instruction with a result register),
// one per instruction (spec.md §3).
func (m *MemoryTable) Instruction(idx int) MemoryLocation {
	if loc, ok := m.instrs[idx]; ok {
		return loc
	}
	loc := m.alloc(cell{kind: cellInstruction, index: idx})
	m.instrs[idx] = loc
	return loc
}

// ResultRegister returns the method-wide singleton result register cell.
func (m *MemoryTable) ResultRegister() MemoryLocation {
	if m.haveResult {
		return m.resultReg
	}
	m.resultReg = m.alloc(cell{kind: cellResultRegister})
	m.haveResult = true
	return m.resultReg
}

// MakeField derives (and memoizes) the field-access cell for parent.field
// (spec.md §3: "loc.make_field(name)"; §9: "field derivations are keyed
// by (parent_index, field_name) and memoized").
func (m *MemoryTable) MakeField(parent MemoryLocation, field string) MemoryLocation {
	key := fieldKey{parent: parent, field: field}
	if loc, ok := m.fields[key]; ok {
		return loc
	}
	loc := m.alloc(cell{kind: cellField, parent: parent, field: field})
	m.fields[key] = loc
	return loc
}

// FieldPathOf computes the canonical field-access Path of loc by walking
// its field-derivation chain back to its nearest non-field ancestor
// (spec.md §3: "Each memory location has a canonical (root, path)
// access-path view"); combined with Root, this gives the full
// (root, path) view. Kept separate from a kind.AccessPath constructor
// here to avoid this package depending on internal/kind's interning
// factory — callers (internal/transfer) intern the result themselves.
func (m *MemoryTable) FieldPathOf(loc MemoryLocation) path.Path {
	return path.Of(fieldElements(m.FieldPath(loc))...)
}

func fieldElements(names []string) []path.PathElement {
	out := make([]path.PathElement, len(names))
	for i, n := range names {
		out[i] = path.Field(n)
	}
	return out
}

// Root reports which logical port loc derives from: an argument index for
// parameter cells, a synthetic anchor for instruction cells, or Leaf for
// the result register — the base of its access-path view.
func (m *MemoryTable) Root(loc MemoryLocation) (isParam bool, paramIndex int) {
	cur := loc
	for {
		c := m.cells[cur]
		if c.kind == cellField {
			cur = c.parent
			continue
		}
		return c.kind == cellParameter, c.index
	}
}

// FieldPath returns the chain of field names from loc's nearest
// non-field ancestor down to loc.
func (m *MemoryTable) FieldPath(loc MemoryLocation) []string {
	var fields []string
	cur := loc
	for {
		c := m.cells[cur]
		if c.kind != cellField {
			break
		}
		fields = append([]string{c.field}, fields...)
		cur = c.parent
	}
	return fields
}

func (m *MemoryTable) String(loc MemoryLocation) string {
	if int(loc) < 0 || int(loc) >= len(m.cells) {
		return "<invalid-location>"
	}
	c := m.cells[loc]
	switch c.kind {
	case cellParameter:
		return fmt.Sprintf("param#%d", c.index)
	case cellInstruction:
		return fmt.Sprintf("instr#%d", c.index)
	case cellResultRegister:
		return "result_register"
	case cellField:
		return fmt.Sprintf("%s.%s", m.String(c.parent), c.field)
	default:
		return "<unknown-cell>"
	}
}
