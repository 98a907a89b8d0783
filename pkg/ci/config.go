package ci

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// gatesConfig is the YAML layout of a quality gates file:
//
//	quality_gates:
//	  - name: MinimumLineCoverage
//	    metric: line_coverage
//	    threshold: 85
//	    severity: error
type gatesConfig struct {
	QualityGates []QualityGate `yaml:"quality_gates"`
}

// LoadGatesFile reads quality gates from a YAML config file. An empty
// gate list is valid and means the caller falls back to the defaults.
func LoadGatesFile(path string) ([]QualityGate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gates config: %w", err)
	}

	var config gatesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("decode gates config %s: %w", path, err)
	}

	for i := range config.QualityGates {
		gate := &config.QualityGates[i]
		if gate.Name == "" {
			return nil, fmt.Errorf("gates config %s: gate %d has no name", path, i)
		}
		if gate.Metric == "" {
			return nil, fmt.Errorf("gates config %s: gate %q has no metric", path, gate.Name)
		}
	}

	return config.QualityGates, nil
}
