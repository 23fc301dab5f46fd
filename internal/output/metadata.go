package output

import (
	"time"

	"github.com/taintgraph/droidtaint/internal/analysiserror"
)

// Metadata is metadata.json's shape: run-level statistics plus the
// recoverable-error array spec.md §7 calls for ("(b) an errors array in
// metadata.json"). Grounded on internal/interproc.Cache.Stats's
// hit/miss counters (generalized from a log line into a structured,
// persisted field) and internal/report.ScanReport's top-level
// Passed/FailReason summary fields.
type Metadata struct {
	GeneratedAt      time.Time             `json:"generated_at"`
	LoadDuration     string                `json:"load_duration,omitempty"`
	AnalysisDuration string                `json:"analysis_duration,omitempty"`
	MethodCount      int                   `json:"method_count"`
	IssueCount       int                   `json:"issue_count"`
	RegistryHits     int64                 `json:"registry_hits"`
	RegistryMisses   int64                 `json:"registry_misses"`
	CacheHits        int64                 `json:"cache_hits,omitempty"`
	CacheMisses      int64                 `json:"cache_misses,omitempty"`
	Converged        bool                  `json:"converged"`
	Errors           []analysiserror.Entry `json:"errors"`
}

// WriteMetadata writes m as dir/metadata.json.
func WriteMetadata(dir string, m Metadata) error {
	return writeJSON(dir, "metadata.json", m)
}
