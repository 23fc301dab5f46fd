// Package registry is the live map of record from method/field/literal to
// their Model (spec.md §4.5: "Registry: Method -> Model, Field ->
// FieldModel, Literal -> LiteralModel; immutable after construction
// except via explicit join_with"). Grounded on
// internal/interproc/cache.go's per-entry persistence and hit/miss
// bookkeeping (generalized from a disk-backed summary cache to the
// in-memory registry the scheduler reads and writes every iteration) and
// internal/graph/graph.go's map-of-maps-plus-edges shape.
package registry

import (
	"sync"

	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/model"
)

// bucketCount shards the method table across several locks so unrelated
// methods in different goroutines rarely contend — the same bucketed-lock
// discipline internal/position.Factory and internal/kind.Factory use for
// their intern tables, applied here to the registry's read/write table
// instead of an append-only intern table.
const bucketCount = 32

type bucket struct {
	mu      sync.RWMutex
	methods map[ir.MethodID]model.Model
}

// Registry is the whole-program table of method models, safe for
// concurrent reads and writes from the scheduler's parallel SCC workers.
type Registry struct {
	buckets [bucketCount]*bucket

	fieldsMu sync.RWMutex
	fields   map[ir.FieldID]model.Model

	literalsMu sync.RWMutex
	literals   map[ir.LiteralID]model.Model

	hits, misses int64
	statsMu      sync.Mutex
}

func New() *Registry {
	r := &Registry{
		fields:   make(map[ir.FieldID]model.Model),
		literals: make(map[ir.LiteralID]model.Model),
	}
	for i := range r.buckets {
		r.buckets[i] = &bucket{methods: make(map[ir.MethodID]model.Model)}
	}
	return r
}

func (r *Registry) bucketFor(id ir.MethodID) *bucket {
	h := fnv1a(id.String())
	return r.buckets[h%bucketCount]
}

func fnv1a(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// Get returns the current model for id, or (bottom, false) if no
// declared or inferred model exists yet — the scheduler treats a miss as
// the join identity (spec.md §4.4), not an error.
func (r *Registry) Get(id ir.MethodID) (model.Model, bool) {
	b := r.bucketFor(id)
	b.mu.RLock()
	m, ok := b.methods[id]
	b.mu.RUnlock()
	r.recordStat(ok)
	return m, ok
}

func (r *Registry) recordStat(hit bool) {
	r.statsMu.Lock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
	r.statsMu.Unlock()
}

// Set installs m as id's model verbatim, replacing whatever was there
// (the scheduler calls this once per SCC iteration with the newly
// computed model, after comparing against the previous one itself).
func (r *Registry) Set(id ir.MethodID, m model.Model) {
	b := r.bucketFor(id)
	b.mu.Lock()
	b.methods[id] = m
	b.mu.Unlock()
}

// JoinWith merges m into id's existing model rather than replacing it,
// used when more than one code path (e.g. two CFG shards covering the
// same overridden method) contributes a model for the same method
// (spec.md §4.5: "join_with").
func (r *Registry) JoinWith(id ir.MethodID, m model.Model) model.Model {
	b := r.bucketFor(id)
	b.mu.Lock()
	defer b.mu.Unlock()
	existing, ok := b.methods[id]
	if !ok {
		b.methods[id] = m
		return m
	}
	joined := existing.Join(m)
	b.methods[id] = joined
	return joined
}

// GetField/SetField mirror Get/Set for field models.
func (r *Registry) GetField(id ir.FieldID) (model.Model, bool) {
	r.fieldsMu.RLock()
	defer r.fieldsMu.RUnlock()
	m, ok := r.fields[id]
	return m, ok
}

func (r *Registry) SetField(id ir.FieldID, m model.Model) {
	r.fieldsMu.Lock()
	defer r.fieldsMu.Unlock()
	r.fields[id] = m
}

// GetLiteral/SetLiteral mirror Get/Set for literal pseudo-method models.
func (r *Registry) GetLiteral(id ir.LiteralID) (model.Model, bool) {
	r.literalsMu.RLock()
	defer r.literalsMu.RUnlock()
	m, ok := r.literals[id]
	return m, ok
}

func (r *Registry) SetLiteral(id ir.LiteralID, m model.Model) {
	r.literalsMu.Lock()
	defer r.literalsMu.Unlock()
	r.literals[id] = m
}

// AllMethods returns every method id currently registered, across every
// bucket, in no particular order.
func (r *Registry) AllMethods() []ir.MethodID {
	var out []ir.MethodID
	for _, b := range r.buckets {
		b.mu.RLock()
		for id := range b.methods {
			out = append(out, id)
		}
		b.mu.RUnlock()
	}
	return out
}

// Stats returns (hits, misses) across every Get call so far.
func (r *Registry) Stats() (hits, misses int64) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.hits, r.misses
}
