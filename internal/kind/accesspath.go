package kind

import (
	"sync"

	"github.com/taintgraph/droidtaint/internal/path"
)

// AccessPath is an interned (Root, Path) pair naming a logical position —
// a "port" — on a method's interface (spec.md glossary: Port).
type AccessPath struct {
	root path.Root
	p    path.Path
	key  string
}

func (a *AccessPath) Root() path.Root { return a.root }
func (a *AccessPath) Path() path.Path { return a.p }
func (a *AccessPath) String() string  { return a.key }

type pathFactory struct {
	buckets [numBuckets]struct {
		mu      sync.Mutex
		entries map[string]*AccessPath
	}
}

func newPathFactory() *pathFactory {
	pf := &pathFactory{}
	for i := range pf.buckets {
		pf.buckets[i].entries = make(map[string]*AccessPath)
	}
	return pf
}

// AccessPathOf interns an AccessPath built from a root and a path.
func (f *Factory) AccessPathOf(root path.Root, p path.Path) *AccessPath {
	key := root.String() + p.String()
	b := &f.paths.buckets[fnv(key)%numBuckets]
	b.mu.Lock()
	defer b.mu.Unlock()
	if ap, ok := b.entries[key]; ok {
		return ap
	}
	ap := &AccessPath{root: root, p: p, key: key}
	b.entries[key] = ap
	return ap
}
