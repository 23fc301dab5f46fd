package classhierarchy

import "sort"

// Hierarchy is the immutable-after-construction class hierarchy: for each
// class, its direct subclasses (the teacher's Methods/Overrides/Types are
// built once then read-only, spec.md §5 — this does the same for classes).
type Hierarchy struct {
	Children map[string][]string
	Roots    []string // classes with no superclass in this hierarchy
}

// Build numbers every class reachable from Roots with a DFS pre/post
// interval. Classes unreachable from any declared root (e.g. a detached
// fragment of a partial hierarchy) still get an interval by being treated
// as additional roots, so every class the caller asks about resolves to
// something rather than panicking.
func Build(h Hierarchy) map[string]Interval {
	intervals := make(map[string]Interval, len(h.Children))
	visited := make(map[string]bool, len(h.Children))
	counter := 0

	var visit func(class string)
	visit = func(class string) {
		if visited[class] {
			return
		}
		visited[class] = true
		enter := counter
		counter++

		children := append([]string(nil), h.Children[class]...)
		sort.Strings(children)
		for _, c := range children {
			visit(c)
		}

		intervals[class] = Interval{Lower: enter, Upper: counter, PreservesTypeContext: true}
		counter++
	}

	roots := append([]string(nil), h.Roots...)
	sort.Strings(roots)
	for _, r := range roots {
		visit(r)
	}
	// Any class mentioned only as a child, or not reachable from a
	// declared root (disconnected hierarchy fragment), still needs an
	// interval.
	var rest []string
	for class := range h.Children {
		if !visited[class] {
			rest = append(rest, class)
		}
	}
	sort.Strings(rest)
	for _, class := range rest {
		visit(class)
	}

	return intervals
}
