package ci

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Operator names the comparison a quality gate applies.
type Operator string

const (
	OperatorGTE Operator = "gte"
	OperatorLTE Operator = "lte"
	OperatorEQ  Operator = "eq"
)

// GateSeverity decides whether a failed gate breaks the build or only
// warns.
type GateSeverity string

const (
	GateSeverityError   GateSeverity = "error"
	GateSeverityWarning GateSeverity = "warning"
)

// QualityGate is one metric threshold enforced during a CI run.
type QualityGate struct {
	Name      string       `json:"name" yaml:"name"`
	Metric    string       `json:"metric" yaml:"metric"`
	Threshold float64      `json:"threshold" yaml:"threshold"`
	Operator  Operator     `json:"operator" yaml:"operator"`
	Enabled   bool         `json:"enabled" yaml:"enabled"`
	Severity  GateSeverity `json:"severity" yaml:"severity"`
}

// UnmarshalYAML fills in the gate defaults before decoding, so a config
// file only has to state what differs from them.
func (g *QualityGate) UnmarshalYAML(value *yaml.Node) error {
	type rawGate QualityGate
	raw := rawGate{
		Operator: OperatorGTE,
		Enabled:  true,
		Severity: GateSeverityError,
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*g = QualityGate(raw)
	return nil
}

// Evaluate reports whether the gate passes for the given metric value.
// Disabled gates always pass; eq tolerates small floating point noise.
func (g *QualityGate) Evaluate(value float64) bool {
	if !g.Enabled {
		return true
	}

	switch g.Operator {
	case OperatorGTE, "":
		return value >= g.Threshold
	case OperatorLTE:
		return value <= g.Threshold
	case OperatorEQ:
		return math.Abs(value-g.Threshold) < 0.01
	default:
		return true
	}
}

// GateResult is the outcome of evaluating one quality gate.
type GateResult struct {
	Gate         QualityGate  `json:"-"`
	Name         string       `json:"name"`
	Metric       string       `json:"metric"`
	Threshold    float64      `json:"threshold"`
	CurrentValue float64      `json:"current"`
	Passed       bool         `json:"-"`
	Status       string       `json:"status"`
	Difference   float64      `json:"difference"`
	Severity     GateSeverity `json:"severity"`
	Message      string       `json:"message"`
}

// DefaultQualityGates returns the gates enforced when none are configured.
func DefaultQualityGates() []QualityGate {
	return []QualityGate{
		{
			Name:      "MinimumLineCoverage",
			Metric:    "line_coverage",
			Threshold: 80.0,
			Operator:  OperatorGTE,
			Enabled:   true,
			Severity:  GateSeverityError,
		},
		{
			Name:      "MinimumBranchCoverage",
			Metric:    "branch_coverage",
			Threshold: 70.0,
			Operator:  OperatorGTE,
			Enabled:   true,
			Severity:  GateSeverityWarning,
		},
		{
			Name:      "MaximumCriticalGaps",
			Metric:    "critical_gaps",
			Threshold: 5.0,
			Operator:  OperatorLTE,
			Enabled:   true,
			Severity:  GateSeverityError,
		},
		{
			Name:      "MinimumOverallScore",
			Metric:    "overall_score",
			Threshold: 75.0,
			Operator:  OperatorGTE,
			Enabled:   true,
			Severity:  GateSeverityWarning,
		},
	}
}

func evaluateGate(gate QualityGate, current float64) GateResult {
	passed := gate.Evaluate(current)
	difference := current - gate.Threshold

	status := "PASS"
	message := fmt.Sprintf("%s passed: %.1f %s %g", gate.Name, current, gate.Operator, gate.Threshold)
	if !passed {
		status = "FAIL"
		message = fmt.Sprintf("%s failed: %.1f not %s %g (diff: %.1f)", gate.Name, current, gate.Operator, gate.Threshold, difference)
	}

	return GateResult{
		Gate:         gate,
		Name:         gate.Name,
		Metric:       gate.Metric,
		Threshold:    gate.Threshold,
		CurrentValue: current,
		Passed:       passed,
		Status:       status,
		Difference:   difference,
		Severity:     gate.Severity,
		Message:      message,
	}
}
