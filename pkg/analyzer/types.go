package analyzer

// GapType classifies the kind of code a coverage gap points at.
type GapType string

const (
	UncoveredLines    GapType = "uncovered_lines"
	MissingBranch     GapType = "missing_branch"
	ExceptionHandling GapType = "exception_handling"
	UncoveredFunction GapType = "uncovered_function"
	UncoveredClass    GapType = "uncovered_class"
	ErrorPath         GapType = "error_path"
)

// Severity ranks how urgent closing a coverage gap is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityRank is used for ordering gaps, highest first.
var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// CoverageGap represents one region of un-exercised code.
// Gaps are computed fresh on each analysis run and never persisted.
type CoverageGap struct {
	FilePath       string   `json:"file"`
	LineStart      int      `json:"line_start"`
	LineEnd        int      `json:"line_end"`
	Type           GapType  `json:"type"`
	Severity       Severity `json:"severity"`
	FunctionName   string   `json:"function,omitempty"`
	TypeName       string   `json:"class,omitempty"`
	Complexity     int      `json:"complexity"`
	SuggestedTests []string `json:"suggestions,omitempty"`
}

// TrendDirection summarizes where a coverage metric is heading.
type TrendDirection string

const (
	TrendImproving        TrendDirection = "improving"
	TrendStable           TrendDirection = "stable"
	TrendDeclining        TrendDirection = "declining"
	TrendInsufficientData TrendDirection = "insufficient_data"
	TrendNoData           TrendDirection = "no_data"
)

// QualityMetrics is an immutable snapshot of coverage health for one run.
type QualityMetrics struct {
	LineCoveragePercent     float64 `json:"line_coverage"`
	BranchCoveragePercent   float64 `json:"branch_coverage"`
	FunctionCoveragePercent float64 `json:"function_coverage"`

	EffectiveCoverageScore float64 `json:"effective_coverage"`
	TestQualityScore       float64 `json:"test_quality"`
	CoverageDensity        float64 `json:"coverage_density"`

	CriticalGaps     int `json:"critical_gaps"`
	HighPriorityGaps int `json:"high_priority_gaps"`
	TotalGaps        int `json:"total_gaps"`

	CoverageTrend   TrendDirection `json:"trend"`
	TrendPercentage float64        `json:"trend_percentage"`

	WellCoveredFiles   int `json:"well_covered_files"`
	PoorlyCoveredFiles int `json:"poorly_covered_files"`
	UncoveredFiles     int `json:"uncovered_files"`
}

const (
	overallCoverageWeight = 0.4
	overallQualityWeight  = 0.3
	overallGapsWeight     = 0.2
	overallTrendWeight    = 0.1
)

// OverallScore folds the individual metrics into a single 0-100 quality score.
func (m *QualityMetrics) OverallScore() float64 {
	coverageScore := (m.LineCoveragePercent + m.BranchCoveragePercent) / 2
	gapsScore := 100.0 - float64(m.CriticalGaps*10+m.HighPriorityGaps*5)
	if gapsScore < 0 {
		gapsScore = 0
	}
	trendScore := 50 + m.TrendPercentage

	return coverageScore*overallCoverageWeight +
		m.TestQualityScore*overallQualityWeight +
		gapsScore*overallGapsWeight +
		trendScore*overallTrendWeight
}

// Metric resolves a metric by its wire name, as used by quality gates and
// CI thresholds. The second return reports whether the name is known.
func (m *QualityMetrics) Metric(name string) (float64, bool) {
	switch name {
	case "line_coverage":
		return m.LineCoveragePercent, true
	case "branch_coverage":
		return m.BranchCoveragePercent, true
	case "function_coverage":
		return m.FunctionCoveragePercent, true
	case "overall_score":
		return m.OverallScore(), true
	case "effective_coverage":
		return m.EffectiveCoverageScore, true
	case "test_quality":
		return m.TestQualityScore, true
	case "coverage_density":
		return m.CoverageDensity, true
	case "critical_gaps":
		return float64(m.CriticalGaps), true
	case "high_priority_gaps":
		return float64(m.HighPriorityGaps), true
	case "total_gaps":
		return float64(m.TotalGaps), true
	default:
		return 0, false
	}
}

// QualityScorer rates the quality of the existing test suite on a 0-100
// scale. The scoring algorithm is deliberately pluggable.
type QualityScorer interface {
	Score() float64
}

// StaticScorer is the default QualityScorer, returning a fixed score.
type StaticScorer struct {
	Value float64
}

func (s StaticScorer) Score() float64 { return s.Value }

// DefaultQualityScorer returns the scorer used when none is configured.
func DefaultQualityScorer() QualityScorer {
	return StaticScorer{Value: 75.0}
}
