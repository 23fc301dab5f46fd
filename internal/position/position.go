// Package position interns source positions for the lifetime of an
// analysis run. Positions are compared by pointer: two call sites at the
// same (path, line, start, end) resolve to the same *Position.
package position

import "fmt"

// Position locates a single bytecode instruction or declaration in the
// original source/bytecode. Like Kind and AccessPath, positions are
// arena-allocated and never freed: they live for the whole analysis.
type Position struct {
	Path  string // class/dex file path, "" if unknown
	Line  int    // 1-based, 0 if unknown
	Start int    // column/offset start, -1 if unknown
	End   int    // column/offset end, -1 if unknown
}

func (p *Position) String() string {
	if p == nil {
		return "<no-position>"
	}
	if p.Line == 0 {
		return p.Path
	}
	if p.Start < 0 {
		return fmt.Sprintf("%s:%d", p.Path, p.Line)
	}
	return fmt.Sprintf("%s:%d:%d-%d", p.Path, p.Line, p.Start, p.End)
}

// Unknown is the canonical position used when no finer-grained location is
// available. It is distinct from nil so callers need not special-case it.
var Unknown = &Position{Path: "", Line: 0, Start: -1, End: -1}
