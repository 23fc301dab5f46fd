package output

import (
	"sort"

	"github.com/taintgraph/droidtaint/internal/classhierarchy"
)

// WriteClassHierarchiesJSON writes h's children/roots relation verbatim
// as dir/class_hierarchies.json: both fields are already plain, exported
// data, so no projection is needed.
func WriteClassHierarchiesJSON(dir string, h classhierarchy.Hierarchy) error {
	return writeJSON(dir, "class_hierarchies.json", h)
}

// ClassIntervalDoc pairs a class name with its resolved Interval, since a
// bare map[string]Interval marshals fine but loses a stable iteration
// order across encoding/json's own map-key sort — writing a slice keeps
// the file diffable run to run.
type ClassIntervalDoc struct {
	Class                string `json:"class"`
	Lower                int    `json:"lower"`
	Upper                int    `json:"upper"`
	PreservesTypeContext bool   `json:"preserves_type_context"`
}

// WriteClassIntervalsJSON writes intervals as dir/class_intervals.json,
// sorted by class name.
func WriteClassIntervalsJSON(dir string, intervals map[string]classhierarchy.Interval) error {
	classes := make([]string, 0, len(intervals))
	for c := range intervals {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	docs := make([]ClassIntervalDoc, 0, len(classes))
	for _, c := range classes {
		iv := intervals[c]
		docs = append(docs, ClassIntervalDoc{
			Class:                c,
			Lower:                iv.Lower,
			Upper:                iv.Upper,
			PreservesTypeContext: iv.PreservesTypeContext,
		})
	}
	return writeJSON(dir, "class_intervals.json", docs)
}
