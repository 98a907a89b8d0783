package report

import (
	"time"

	"github.com/covergate/covergate/pkg/analyzer"
	"github.com/covergate/covergate/pkg/suggest"
	"github.com/covergate/covergate/pkg/tracker"
)

// CIStatus is the verdict of the in-memory CI report.
type CIStatus string

const (
	CIStatusPass  CIStatus = "pass"
	CIStatusFail  CIStatus = "fail"
	CIStatusError CIStatus = "error"
)

// ThresholdResult is the outcome of one metric-threshold comparison.
type ThresholdResult struct {
	Current    float64 `json:"current"`
	Threshold  float64 `json:"threshold"`
	Passed     bool    `json:"passed"`
	Difference float64 `json:"difference"`
}

// CIReport is the pure in-memory pass/fail payload for CI consumers.
type CIReport struct {
	Status          CIStatus                   `json:"status"`
	Message         string                     `json:"message,omitempty"`
	OverallScore    float64                    `json:"overall_score"`
	Timestamp       time.Time                  `json:"timestamp"`
	QualityGates    map[string]ThresholdResult `json:"quality_gates,omitempty"`
	RegressionCheck *tracker.RegressionReport  `json:"regression_check,omitempty"`
	Metrics         map[string]float64         `json:"metrics,omitempty"`
}

// jsonReport is the machine-readable artifact layout.
type jsonReport struct {
	Timestamp       time.Time              `json:"timestamp"`
	Summary         map[string]interface{} `json:"summary"`
	Metrics         map[string]interface{} `json:"metrics"`
	Gaps            gapSummary             `json:"gaps"`
	Trends          []tracker.Trend        `json:"trends"`
	TestSuggestions []suggestionDetail     `json:"test_suggestions"`
}

type gapSummary struct {
	Total      int                       `json:"total"`
	Critical   int                       `json:"critical"`
	High       int                       `json:"high"`
	BySeverity map[analyzer.Severity]int `json:"by_severity"`
	ByType     map[analyzer.GapType]int  `json:"by_type"`
	Details    []gapDetail               `json:"details"`
}

type gapDetail struct {
	File        string            `json:"file"`
	Lines       string            `json:"lines"`
	Type        analyzer.GapType  `json:"type"`
	Severity    analyzer.Severity `json:"severity"`
	Function    string            `json:"function,omitempty"`
	Class       string            `json:"class,omitempty"`
	Complexity  int               `json:"complexity"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

type suggestionDetail struct {
	File        string           `json:"file"`
	Function    string           `json:"function,omitempty"`
	Class       string           `json:"class,omitempty"`
	Type        suggest.TestType `json:"type"`
	Priority    suggest.Priority `json:"priority"`
	Description string           `json:"description"`
	TestName    string           `json:"test_name"`
	Complexity  int              `json:"complexity"`
}
