package config

// Options is the top-level run configuration: input/output locations
// and the handful of boolean switches spec.md §6 lists as external
// interface knobs.
type Options struct {
	InputDirectory  string `json:"input_directory"`
	OutputDirectory string `json:"output_directory"`

	RulesPath      string `json:"rules_path"`
	HeuristicsPath string `json:"heuristics_path"`

	Sequential           bool `json:"sequential"`
	CheckUnexpectedMembers bool `json:"check_unexpected_members"`
	MaxMethodAnalysisTime  int  `json:"max_method_analysis_time_seconds"`

	Verbose bool `json:"verbose"`
}

// DefaultOptions mirrors the teacher's pattern of a package-level
// zero-config default a caller can override field by field before
// parsing real flags (cmd/gorisk/scan/scan.go's flag defaults).
var DefaultOptions = Options{
	OutputDirectory:        "out",
	CheckUnexpectedMembers: true,
	MaxMethodAnalysisTime:  60,
}
