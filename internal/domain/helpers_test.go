package domain

import (
	"github.com/taintgraph/droidtaint/internal/classhierarchy"
	"github.com/taintgraph/droidtaint/internal/kind"
)

// kindFactoryForTest returns a fresh kind.Factory; domain tests need one
// to mint Kinds but domain itself holds no factory (kind interning lives
// in internal/kind, per spec.md §2.1).
func kindFactoryForTest() *kind.Factory { return kind.NewFactory() }

func topInterval() classhierarchy.Interval { return classhierarchy.Top }
