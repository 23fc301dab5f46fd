package interproc

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/model"
)

// IssueCacheKey fingerprints the inputs a method's analysis consumed: its
// own code and the code of every method it calls. Two runs that produce
// the same key are guaranteed to have analyzed the same instructions
// against the same callee bodies, so the Issues found last time are
// still valid this time.
//
// This is adapted from the teacher's internal/interproc/cache.go
// CacheKey, which persisted a whole ir.FunctionSummary keyed by
// (function, context, direct-capability hash, callee hashes, code hash).
// internal/model.Model cannot be persisted the same way: its taint-
// access-path trees hold unexported, pointer-keyed maps
// (TaintAccessPathTree.roots, LocalTaint.frames) with no stable JSON
// encoding, and giving every internal/domain type a hand-written
// MarshalJSON/UnmarshalJSON pair just to round-trip a cache entry is out
// of scope here. model.Issue, by contrast, is a plain exported struct
// (see internal/model/issue.go) that already survives encoding/json
// unchanged, so the cache persists that instead of the full Model.
type IssueCacheKey struct {
	Method       ir.MethodID
	CodeHash     string
	CalleeHashes []string
}

// Hash returns a stable, filesystem-safe identifier for k.
func (k IssueCacheKey) Hash() string {
	h := sha256.New()
	h.Write([]byte(k.Method.String()))
	h.Write([]byte(k.CodeHash))
	for _, ch := range k.CalleeHashes {
		h.Write([]byte(ch))
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

type issueCacheEntry struct {
	Key       IssueCacheKey `json:"key"`
	Issues    []model.Issue `json:"issues"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
}

// IssueCache persists each method's last-known Issues across process
// runs, directory-sharded by class the same way the teacher's Cache
// shards by package.
type IssueCache struct {
	dir     string
	enabled bool
	mu      sync.RWMutex
	hits    int
	misses  int
}

// NewIssueCache creates a cache rooted at dir (created if missing), or a
// disabled no-op cache if dir cannot be created.
func NewIssueCache(dir string) *IssueCache {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return &IssueCache{enabled: false}
		}
		dir = filepath.Join(home, ".cache", "droidtaint", "issues")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &IssueCache{enabled: false}
	}
	return &IssueCache{dir: dir, enabled: true}
}

// NewIssueCacheDisabled returns a no-op cache.
func NewIssueCacheDisabled() *IssueCache {
	return &IssueCache{enabled: false}
}

// Load retrieves the cached issues for key, if present and still valid.
func (c *IssueCache) Load(key IssueCacheKey) ([]model.Issue, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		c.misses++
		return nil, false
	}
	var entry issueCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key.Hash() != key.Hash() {
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.Issues, true
}

// Store saves issues under key, overwriting any prior entry.
func (c *IssueCache) Store(key IssueCacheKey, issues []model.Issue) {
	if !c.enabled {
		return
	}
	entry := issueCacheEntry{Key: key, Issues: issues, Timestamp: time.Now(), Version: "droidtaint/v1"}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return
	}
	path := c.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o600)
}

func (c *IssueCache) entryPath(key IssueCacheKey) string {
	class := key.Method.Class
	if class == "" {
		class = "local"
	}
	filename := fmt.Sprintf("%s_%s.json", sanitize(key.Method.Name), key.Hash())
	return filepath.Join(c.dir, sanitize(class), filename)
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// Stats logs hit/miss counters.
func (c *IssueCache) Stats() {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.hits + c.misses
	if total == 0 {
		return
	}
	Infof("[cache] issue cache: %d hits, %d misses (%.1f%% hit rate)", c.hits, c.misses, float64(c.hits)/float64(total)*100)
}

// ComputeCodeHash hashes m's own instructions, independent of any other
// method, so an IssueCacheKey changes whenever m's body changes. A nil
// method (an external API with no declared body) hashes to "".
func ComputeCodeHash(m *ir.Method) string {
	if m == nil {
		return ""
	}
	h := sha256.New()
	for _, b := range m.Blocks {
		for _, instr := range b.Instructions {
			fmt.Fprintf(h, "%d|%d|%v|%s|%s|%d;", instr.Op, instr.Dest, instr.Srcs, instr.Field.String(), instr.Class, instr.Pos)
			for _, t := range instr.Targets {
				fmt.Fprintf(h, "%s,", t.Callee.String())
			}
		}
		fmt.Fprintf(h, "%v/", b.Successors)
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
