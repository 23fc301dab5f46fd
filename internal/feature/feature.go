// Package feature implements the interned, user-extensible annotation
// labels ("features") attached to Frame and Model values — things like
// via-broadening, via-override-join, via-inner-class-this,
// via-analysis-error. Unlike the teacher's closed CapabilitySet bitset
// (internal/capability/types.go), the set of feature names is open: model
// generators and the engine itself both mint new ones, so features are
// hash-consed strings rather than bits in a fixed-width word.
package feature

import "sync"

// Feature is an interned feature label. Two Features are the same feature
// iff they are the same pointer.
type Feature struct {
	name string
}

func (f *Feature) String() string {
	if f == nil {
		return ""
	}
	return f.name
}

// Well-known engine-inferred features (spec §4.1, §4.3, §7).
var (
	internTable = struct {
		mu      sync.Mutex
		entries map[string]*Feature
	}{entries: make(map[string]*Feature)}

	ViaBroadening     = Intern("via-broadening")
	ViaOverrideJoin   = Intern("via-override-join")
	ViaInnerClassThis = Intern("via-inner-class-this")
	ViaAnalysisError  = Intern("via-analysis-error")
	ViaObscure        = Intern("via-obscure")
)

// Intern returns the canonical *Feature for name.
func Intern(name string) *Feature {
	internTable.mu.Lock()
	defer internTable.mu.Unlock()
	if f, ok := internTable.entries[name]; ok {
		return f
	}
	f := &Feature{name: name}
	internTable.entries[name] = f
	return f
}
