package tracker

import "time"

// Metric names the coverage series the tracker maintains.
type Metric string

const (
	LineCoverage     Metric = "line_coverage"
	BranchCoverage   Metric = "branch_coverage"
	FunctionCoverage Metric = "function_coverage"
	OverallScore     Metric = "overall_score"
)

// Metrics lists the tracked series in their canonical order.
var Metrics = []Metric{LineCoverage, BranchCoverage, FunctionCoverage, OverallScore}

// Trend is one historical coverage measurement. Records are append-only;
// history is pruned, never mutated.
type Trend struct {
	Timestamp        time.Time `json:"timestamp"`
	LineCoverage     float64   `json:"line_coverage"`
	BranchCoverage   float64   `json:"branch_coverage"`
	FunctionCoverage float64   `json:"function_coverage"`
	OverallScore     float64   `json:"overall_score"`
	TestCount        int       `json:"test_count"`
	CommitHash       string    `json:"commit_hash,omitempty"`
	BranchName       string    `json:"branch_name,omitempty"`
}

// Value returns the trend's value for a metric; unknown metrics read 0.
func (t *Trend) Value(metric Metric) float64 {
	switch metric {
	case LineCoverage:
		return t.LineCoverage
	case BranchCoverage:
		return t.BranchCoverage
	case FunctionCoverage:
		return t.FunctionCoverage
	case OverallScore:
		return t.OverallScore
	default:
		return 0
	}
}

// Direction classifies where a metric series is heading.
type Direction string

const (
	Improving        Direction = "improving"
	Stable           Direction = "stable"
	Declining        Direction = "declining"
	InsufficientData Direction = "insufficient_data"
	NoData           Direction = "no_data"
)

// TrendAnalysis is the outcome of fitting a line to a metric series.
type TrendAnalysis struct {
	Direction Direction `json:"direction"`
	Slope     float64   `json:"slope"`
	// Confidence is the R² of the ordinary least squares fit.
	Confidence       float64 `json:"confidence"`
	CurrentValue     float64 `json:"current_value"`
	ChangePercentage float64 `json:"change_percentage"`
	DataPoints       int     `json:"data_points,omitempty"`
}

// RegressionSeverity ranks how bad a detected drop is.
type RegressionSeverity string

const (
	RegressionHigh   RegressionSeverity = "high"
	RegressionMedium RegressionSeverity = "medium"
)

// Regression is one metric whose latest value dropped meaningfully below
// its recent average.
type Regression struct {
	Metric         Metric             `json:"metric"`
	CurrentValue   float64            `json:"current_value"`
	RecentAverage  float64            `json:"recent_average"`
	PercentageDrop float64            `json:"percentage_drop"`
	Severity       RegressionSeverity `json:"severity"`
}

// RegressionReport is the result of comparing the latest record against
// recent history.
type RegressionReport struct {
	HasRegression bool         `json:"has_regression"`
	Regressions   []Regression `json:"regressions,omitempty"`
	Timestamp     time.Time    `json:"timestamp,omitempty"`
	CommitHash    string       `json:"commit_hash,omitempty"`
	Message       string       `json:"message"`
}

// MetricStatistics aggregates one metric over a period.
type MetricStatistics struct {
	Current float64       `json:"current"`
	Average float64       `json:"average"`
	Median  float64       `json:"median"`
	Min     float64       `json:"min"`
	Max     float64       `json:"max"`
	StdDev  float64       `json:"std_dev"`
	Trend   TrendAnalysis `json:"trend"`
}

// Statistics is the dashboard aggregate for a period.
type Statistics struct {
	PeriodDays     int                          `json:"period_days"`
	DataPoints     int                          `json:"data_points"`
	FirstTimestamp time.Time                    `json:"first_timestamp"`
	LastTimestamp  time.Time                    `json:"last_timestamp"`
	Metrics        map[Metric]*MetricStatistics `json:"statistics"`
}

// periodAnalysis is the shape of the derived trend-analysis artifact,
// keyed "7_days"/"30_days"/"90_days" for dashboards.
type periodAnalysis struct {
	LastUpdated     time.Time                           `json:"last_updated"`
	TotalDataPoints int                                 `json:"total_data_points"`
	Periods         map[string]map[Metric]TrendAnalysis `json:"periods"`
}
