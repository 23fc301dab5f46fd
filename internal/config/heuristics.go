// Package config loads the heuristics and options documents that tune
// the widening thresholds and overall run behavior. The load-and-
// validate-against-a-known-shape pattern is grounded on
// internal/capability/patternset.go's LoadPatterns/MustLoadPatterns;
// config additionally accepts either JSON or YAML input via
// sigs.k8s.io/yaml, since the teacher's own YAML usage
// (gopkg.in/yaml.v3, for languages/*.yaml) was a v3-only dependency that
// doesn't decode through encoding/json the way sigs.k8s.io/yaml does —
// and check_unexpected_members (spec.md §6) needs the encoding/json
// decoder's DisallowUnknownFields, which a direct yaml.v3 Unmarshal does
// not offer.
package config

import (
	"fmt"

	"github.com/taintgraph/droidtaint/internal/domain"
	"sigs.k8s.io/yaml"
)

// Heuristics is the on-disk document controlling widening thresholds
// (spec.md §4.1) and fixpoint iteration caps (spec.md §4.4).
type Heuristics struct {
	MaxSourceSinkDistance int `json:"max_source_sink_distance"`

	MaxGenerationPortSize       int `json:"k_generation_max_port_size"`
	MaxGenerationOutputLeaves   int `json:"k_generation_max_output_path_leaves"`
	MaxSinkPortSize             int `json:"k_sink_max_port_size"`
	MaxSinkOutputLeaves         int `json:"k_sink_max_output_path_leaves"`
	MaxPropagationPortSize      int `json:"k_propagation_max_port_size"`
	MaxPropagationOutputLeaves  int `json:"k_propagation_max_output_path_leaves"`
	MaxParameterSourcePortSize  int `json:"k_parameter_source_max_port_size"`
	MaxParameterSourceOutLeaves int `json:"k_parameter_source_max_output_path_leaves"`

	MaxIterationsPerSCC int `json:"k_max_number_iterations"`
}

// ToPolicy converts a loaded Heuristics document into the
// domain.WideningPolicy the fixpoint driver consumes, falling back to
// domain.DefaultWideningPolicy field-by-field for anything left at its
// zero value (an omitted JSON/YAML key).
func (h Heuristics) ToPolicy() domain.WideningPolicy {
	p := domain.DefaultWideningPolicy
	overrideInt(&p.MaxSourceSinkDistance, h.MaxSourceSinkDistance)
	overrideInt(&p.MaxGenerationPortSize, h.MaxGenerationPortSize)
	overrideInt(&p.MaxGenerationOutputLeaves, h.MaxGenerationOutputLeaves)
	overrideInt(&p.MaxSinkPortSize, h.MaxSinkPortSize)
	overrideInt(&p.MaxSinkOutputLeaves, h.MaxSinkOutputLeaves)
	overrideInt(&p.MaxPropagationPortSize, h.MaxPropagationPortSize)
	overrideInt(&p.MaxPropagationOutputLeaves, h.MaxPropagationOutputLeaves)
	overrideInt(&p.MaxParameterSourcePortSize, h.MaxParameterSourcePortSize)
	overrideInt(&p.MaxParameterSourceOutLeaves, h.MaxParameterSourceOutLeaves)
	overrideInt(&p.MaxIterationsPerSCC, h.MaxIterationsPerSCC)
	return p
}

func overrideInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// LoadHeuristics reads and decodes a heuristics document. sigs.k8s.io/yaml
// round-trips through encoding/json, so the same struct tags serve both
// a .json and a .yaml heuristics file.
func LoadHeuristics(data []byte) (Heuristics, error) {
	var h Heuristics
	if err := yaml.UnmarshalStrict(data, &h); err != nil {
		return Heuristics{}, fmt.Errorf("decode heuristics: %w", err)
	}
	return h, nil
}
