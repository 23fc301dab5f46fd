package kind

import (
	"sync"

	"github.com/taintgraph/droidtaint/internal/path"
)

const numBuckets = 64

type kindBucket struct {
	mu      sync.Mutex
	entries map[string]*Kind
}

type transformBucket struct {
	mu      sync.Mutex
	entries map[string]*Transform
}

type listBucket struct {
	mu      sync.Mutex
	entries map[string]*TransformList
}

// Factory is the hash-consing table for Kind, Transform, TransformList,
// and AccessPath values for one analysis run. A Factory is immutable after
// construction is not true of its contents — entries only ever grow — but
// no previously-returned pointer is ever invalidated, matching the
// "arena-allocated, never freed" lifetime spec.md §3 requires.
type Factory struct {
	kinds      [numBuckets]kindBucket
	transforms [numBuckets]transformBucket
	lists      [numBuckets]listBucket
	paths      *pathFactory

	builtinLeaf        *Kind
	builtinLocalReturn *Kind
	builtinReceiver    *Kind
	builtinLocalResult *Kind
	localArgs          sync.Map // int -> *Kind
}

// NewFactory returns an empty interning factory with the fixed built-in
// kinds pre-populated.
func NewFactory() *Factory {
	f := &Factory{paths: newPathFactory()}
	for i := range f.kinds {
		f.kinds[i].entries = make(map[string]*Kind)
	}
	for i := range f.transforms {
		f.transforms[i].entries = make(map[string]*Transform)
	}
	for i := range f.lists {
		f.lists[i].entries = make(map[string]*TransformList)
	}
	f.builtinLeaf = &Kind{tag: TagLeaf, key: "Leaf"}
	f.builtinLocalReturn = &Kind{tag: TagLocalReturn, key: "LocalReturn"}
	f.builtinReceiver = &Kind{tag: TagReceiver, key: "Receiver"}
	f.builtinLocalResult = &Kind{tag: TagLocalResult, key: "LocalResult"}
	return f
}

func fnv(s string) uint64 {
	h := uint64(14695981039346656037)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func (f *Factory) kindBucketFor(key string) *kindBucket {
	return &f.kinds[fnv(key)%numBuckets]
}

// Named interns a simple named kind, e.g. a declared source/sink label
// like "UserInput" or "Logging".
func (f *Factory) Named(name string) *Kind {
	key := "N:" + name
	b := f.kindBucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if k, ok := b.entries[key]; ok {
		return k
	}
	k := &Kind{tag: TagNamed, name: name, key: key}
	b.entries[key] = k
	return k
}

// Partial interns a Partial(base, label) kind.
func (f *Factory) Partial(base *Kind, label string) *Kind {
	key := "P:" + base.key + ":" + label
	b := f.kindBucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if k, ok := b.entries[key]; ok {
		return k
	}
	k := &Kind{tag: TagPartial, base: base, name: label, key: key}
	b.entries[key] = k
	return k
}

// Transformed interns a Transform(base, local, global) kind.
func (f *Factory) Transformed(base *Kind, local, global *TransformList) *Kind {
	key := "T:" + base.key + ":" + local.String() + ":" + global.String()
	b := f.kindBucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if k, ok := b.entries[key]; ok {
		return k
	}
	k := &Kind{tag: TagTransform, base: base, localTransforms: local, globalTransforms: global, key: key}
	b.entries[key] = k
	return k
}

// Propagation interns a PropagationKind(root) kind.
func (f *Factory) Propagation(root path.Root) *Kind {
	key := "R:" + root.String()
	b := f.kindBucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if k, ok := b.entries[key]; ok {
		return k
	}
	k := &Kind{tag: TagPropagation, propagationRoot: root, key: key}
	b.entries[key] = k
	return k
}

func (f *Factory) Leaf() *Kind        { return f.builtinLeaf }
func (f *Factory) LocalReturn() *Kind { return f.builtinLocalReturn }
func (f *Factory) Receiver() *Kind    { return f.builtinReceiver }
func (f *Factory) LocalResult() *Kind { return f.builtinLocalResult }

// LocalArgument interns a LocalArgument(i) kind.
func (f *Factory) LocalArgument(i int) *Kind {
	if v, ok := f.localArgs.Load(i); ok {
		return v.(*Kind)
	}
	k := &Kind{tag: TagLocalArgument, argIndex: i}
	k.key = k.String()
	actual, _ := f.localArgs.LoadOrStore(i, k)
	return actual.(*Kind)
}

// Transform interns a single Transform token.
func (f *Factory) Transform(name string, isSanitizer bool) *Transform {
	b := &f.transforms[fnv(name)%numBuckets]
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.entries[name]; ok {
		return t
	}
	t := &Transform{name: name, sanitizer: isSanitizer, transform: !isSanitizer}
	b.entries[name] = t
	return t
}

// TransformListOf interns a canonicalized TransformList built from items
// in application order (duplicates collapsed, order preserved).
func (f *Factory) TransformListOf(items ...*Transform) *TransformList {
	dedup := make([]*Transform, 0, len(items))
	seen := make(map[*Transform]bool, len(items))
	for _, t := range items {
		if t == nil || seen[t] {
			continue
		}
		seen[t] = true
		dedup = append(dedup, t)
	}
	key := canonicalKey(dedup)
	b := &f.lists[fnv(key)%numBuckets]
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.entries[key]; ok {
		return l
	}
	l := &TransformList{items: dedup, key: key}
	b.entries[key] = l
	return l
}

// ComposeSequential concatenates two transform lists in application order
// (a then b), interning the result.
func (f *Factory) ComposeSequential(a, b *TransformList) *TransformList {
	return f.TransformListOf(concatItems(a, b)...)
}

// ComposeJoin unions two transform lists (used when joining sibling
// frames rather than composing along one data-flow path).
func (f *Factory) ComposeJoin(a, b *TransformList) *TransformList {
	return f.TransformListOf(sortedUnique(concatItems(a, b))...)
}

// FilterSanitizers removes sanitizing transforms in scope, interning the
// result and reporting whether the kind should collapse to bottom
// (sanitized).
func (f *Factory) FilterSanitizers(l *TransformList, scope map[string]bool) (*TransformList, bool) {
	filtered, sanitized := filterSanitizers(l.Items(), scope)
	return f.TransformListOf(filtered...), sanitized
}
