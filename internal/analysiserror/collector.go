package analysiserror

import "sync"

// Collector accumulates recoverable AnalysisErrors across a run so they
// can surface in metadata.json's errors array (spec.md §7: "(b) an
// errors array in metadata.json"), independent of the stderr log lines
// a caller also emits as each error occurs. Safe for concurrent use
// from the scheduler's per-SCC goroutines.
type Collector struct {
	mu     sync.Mutex
	errors []*AnalysisError
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records err. A nil err is a no-op, so callers can write
// c.Add(someFallibleStep()) unconditionally.
func (c *Collector) Add(err *AnalysisError) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

// All returns a snapshot of every collected error, in the order added.
func (c *Collector) All() []*AnalysisError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*AnalysisError, len(c.errors))
	copy(out, c.errors)
	return out
}

// Len reports how many errors have been collected.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

// Entry is the metadata.json-serializable projection of an
// AnalysisError: a plain struct with no *position.Position pointer
// field, so it survives encoding/json without a custom marshaler.
type Entry struct {
	Kind     string `json:"kind"`
	Method   string `json:"method,omitempty"`
	Position string `json:"position,omitempty"`
	Message  string `json:"message"`
}

// Entries projects every collected error into its metadata.json form.
func (c *Collector) Entries() []Entry {
	errs := c.All()
	out := make([]Entry, 0, len(errs))
	for _, e := range errs {
		entry := Entry{Kind: e.Kind.String(), Method: e.Method, Message: e.Message}
		if e.Position != nil {
			entry.Position = e.Position.String()
		}
		out = append(out, entry)
	}
	return out
}
