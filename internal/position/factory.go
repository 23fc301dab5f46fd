package position

import "sync"

// numBuckets shards the intern table to reduce lock contention between
// concurrently running per-method analyses (see spec's Concurrency &
// Resource Model: "Interning factories: protected by a fine-grained lock
// per bucket; inserts return a stable pointer; no removal.").
const numBuckets = 64

type bucket struct {
	mu      sync.Mutex
	entries map[Position]*Position
}

// Factory interns Position values so that structurally-equal positions
// share a single pointer for the remainder of the analysis.
type Factory struct {
	buckets [numBuckets]bucket
}

// NewFactory returns an empty position interning factory.
func NewFactory() *Factory {
	f := &Factory{}
	for i := range f.buckets {
		f.buckets[i].entries = make(map[Position]*Position)
	}
	return f
}

func hashKey(p Position) uint64 {
	h := uint64(14695981039346656037)
	for _, r := range p.Path {
		h ^= uint64(r)
		h *= 1099511628211
	}
	h ^= uint64(p.Line) * 2654435761
	h ^= uint64(p.Start+1) * 40503
	h ^= uint64(p.End+1) * 2246822519
	return h
}

// Intern returns the canonical *Position for the given value, allocating a
// new one on first sight.
func (f *Factory) Intern(p Position) *Position {
	b := &f.buckets[hashKey(p)%numBuckets]
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.entries[p]; ok {
		return existing
	}
	stored := p
	b.entries[p] = &stored
	return &stored
}

// At interns a Position built from its components; a convenience wrapper
// around Intern for call sites that don't otherwise need the Position
// struct literal.
func (f *Factory) At(path string, line, start, end int) *Position {
	return f.Intern(Position{Path: path, Line: line, Start: start, End: end})
}
