package tracker

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// maxHistoryEntries bounds the history file; oldest entries evict first.
	maxHistoryEntries = 100

	historyFileName = "coverage_history.json"
	trendsFileName  = "coverage_trends.json"
)

// trendPeriods are the windows the derived trend-analysis artifact covers.
var trendPeriods = []int{7, 30, 90}

// DefaultRegressionThreshold is the minimum percentage drop counted as a
// regression when callers do not configure one.
const DefaultRegressionThreshold = 5.0

var ErrNoData = errors.New("no data available for the specified period")

// Tracker persists coverage trend history and answers trend and
// regression queries over it. Single-writer use is assumed; concurrent
// writers are not synchronized.
type Tracker struct {
	dataDir     string
	historyFile string
	trendsFile  string

	logger logrus.FieldLogger
}

// New creates a Tracker storing history under dataDir, creating the
// directory when needed.
func New(dataDir string, logger logrus.FieldLogger) (*Tracker, error) {
	if logger == nil {
		logger = logrus.New()
	}

	if err := os.MkdirAll(dataDir, fs.ModePerm); err != nil {
		return nil, fmt.Errorf("create history directory %s: %w", dataDir, err)
	}

	return &Tracker{
		dataDir:     dataDir,
		historyFile: filepath.Join(dataDir, historyFileName),
		trendsFile:  filepath.Join(dataDir, trendsFileName),
		logger:      logger.WithField("source", "tracker"),
	}, nil
}

// Record appends a new timestamped trend to history, caps history at the
// most recent 100 entries, persists it, and refreshes the derived
// trend-analysis artifact.
func (t *Tracker) Record(lineCov, branchCov, funcCov, overallScore float64, testCount int, commitHash, branchName string) (Trend, error) {
	trend := Trend{
		Timestamp:        time.Now().UTC(),
		LineCoverage:     lineCov,
		BranchCoverage:   branchCov,
		FunctionCoverage: funcCov,
		OverallScore:     overallScore,
		TestCount:        testCount,
		CommitHash:       commitHash,
		BranchName:       branchName,
	}

	history := t.LoadHistory()
	history = append(history, trend)
	if len(history) > maxHistoryEntries {
		history = history[len(history)-maxHistoryEntries:]
	}

	if err := t.SaveHistory(history); err != nil {
		return trend, err
	}

	t.updateTrendAnalysis(history)
	return trend, nil
}

// LoadHistory reads the stored history, oldest first. A missing or corrupt
// file yields an empty history, the failure is only logged.
func (t *Tracker) LoadHistory() []Trend {
	data, err := os.ReadFile(t.historyFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			t.logger.WithError(err).Error("load coverage history")
		}
		return nil
	}

	var history []Trend
	if err := json.Unmarshal(data, &history); err != nil {
		t.logger.WithError(err).Error("decode coverage history")
		return nil
	}
	return history
}

// SaveHistory persists history to the history file.
func (t *Tracker) SaveHistory(history []Trend) error {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode coverage history: %w", err)
	}
	if err := os.WriteFile(t.historyFile, data, 0644); err != nil {
		return fmt.Errorf("save coverage history: %w", err)
	}
	return nil
}

// RecentTrends returns the history entries within the last periodDays.
func (t *Tracker) RecentTrends(periodDays int) []Trend {
	cutoff := time.Now().UTC().AddDate(0, 0, -periodDays)

	var recent []Trend
	for _, trend := range t.LoadHistory() {
		if !trend.Timestamp.Before(cutoff) {
			recent = append(recent, trend)
		}
	}
	return recent
}

// AnalyzeTrendDirection fits an ordinary least squares line to a metric's
// recent values, indexed by position. Slope above 0.1 reads improving,
// below -0.1 declining, otherwise stable; fewer than two points yield
// insufficient_data with zero slope.
func (t *Tracker) AnalyzeTrendDirection(metric Metric, periodDays int) TrendAnalysis {
	recent := t.RecentTrends(periodDays)
	if len(recent) < 2 {
		return TrendAnalysis{Direction: InsufficientData}
	}

	values := make([]float64, 0, len(recent))
	for _, trend := range recent {
		values = append(values, trend.Value(metric))
	}
	if len(values) < 2 {
		return TrendAnalysis{Direction: NoData}
	}

	slope, rSquared := leastSquares(values)

	direction := Stable
	switch {
	case math.Abs(slope) < 0.1:
		direction = Stable
	case slope > 0:
		direction = Improving
	default:
		direction = Declining
	}

	var changePct float64
	if values[0] != 0 {
		changePct = (values[len(values)-1] - values[0]) / values[0] * 100
	}

	return TrendAnalysis{
		Direction:        direction,
		Slope:            slope,
		Confidence:       rSquared,
		CurrentValue:     values[len(values)-1],
		ChangePercentage: changePct,
		DataPoints:       len(values),
	}
}

// DetectRegression compares the latest record against the mean of up to
// the 9 preceding records for every tracked metric. A percentage drop from
// that mean above thresholdPercent is a regression, high severity when the
// drop exceeds 10%.
func (t *Tracker) DetectRegression(thresholdPercent float64) RegressionReport {
	history := t.LoadHistory()
	if len(history) < 2 {
		return RegressionReport{
			Message: "Insufficient data for regression analysis",
		}
	}

	current := history[len(history)-1]
	baseline := history[:len(history)-1]
	if len(baseline) > 9 {
		baseline = baseline[len(baseline)-9:]
	}

	var regressions []Regression
	for _, metric := range Metrics {
		values := make([]float64, 0, len(baseline))
		for _, trend := range baseline {
			values = append(values, trend.Value(metric))
		}
		avg := mean(values)
		if avg <= 0 {
			continue
		}

		drop := (avg - current.Value(metric)) / avg * 100
		if drop <= thresholdPercent {
			continue
		}

		severity := RegressionMedium
		if drop > 10 {
			severity = RegressionHigh
		}
		regressions = append(regressions, Regression{
			Metric:         metric,
			CurrentValue:   current.Value(metric),
			RecentAverage:  avg,
			PercentageDrop: drop,
			Severity:       severity,
		})
	}

	message := "No regressions detected"
	if len(regressions) > 0 {
		message = fmt.Sprintf("Found %d coverage regressions", len(regressions))
	}

	return RegressionReport{
		HasRegression: len(regressions) > 0,
		Regressions:   regressions,
		Timestamp:     current.Timestamp,
		CommitHash:    current.CommitHash,
		Message:       message,
	}
}

// Statistics aggregates each tracked metric over a period for dashboards.
func (t *Tracker) Statistics(periodDays int) (*Statistics, error) {
	trends := t.RecentTrends(periodDays)
	if len(trends) == 0 {
		return nil, ErrNoData
	}

	stats := &Statistics{
		PeriodDays:     periodDays,
		DataPoints:     len(trends),
		FirstTimestamp: trends[0].Timestamp,
		LastTimestamp:  trends[len(trends)-1].Timestamp,
		Metrics:        make(map[Metric]*MetricStatistics),
	}

	for _, metric := range Metrics {
		values := make([]float64, 0, len(trends))
		for _, trend := range trends {
			values = append(values, trend.Value(metric))
		}

		stats.Metrics[metric] = &MetricStatistics{
			Current: values[len(values)-1],
			Average: mean(values),
			Median:  median(values),
			Min:     minOf(values),
			Max:     maxOf(values),
			StdDev:  stddev(values),
			Trend:   t.AnalyzeTrendDirection(metric, periodDays),
		}
	}

	return stats, nil
}

// Cleanup prunes history entries older than keepDays.
func (t *Tracker) Cleanup(keepDays int) error {
	history := t.LoadHistory()
	cutoff := time.Now().UTC().AddDate(0, 0, -keepDays)

	filtered := history[:0:0]
	for _, trend := range history {
		if !trend.Timestamp.Before(cutoff) {
			filtered = append(filtered, trend)
		}
	}

	if len(filtered) == len(history) {
		return nil
	}

	t.logger.Infof("cleaned up coverage history: %d old entries removed", len(history)-len(filtered))
	return t.SaveHistory(filtered)
}

// ExportCSV writes the full history to a CSV file.
func (t *Tracker) ExportCSV(outputFile string) error {
	history := t.LoadHistory()
	if len(history) == 0 {
		return nil
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"timestamp", "line_coverage", "branch_coverage", "function_coverage",
		"overall_score", "test_count", "commit_hash", "branch_name",
	}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, trend := range history {
		record := []string{
			trend.Timestamp.Format(time.RFC3339),
			formatFloat(trend.LineCoverage),
			formatFloat(trend.BranchCoverage),
			formatFloat(trend.FunctionCoverage),
			formatFloat(trend.OverallScore),
			strconv.Itoa(trend.TestCount),
			trend.CommitHash,
			trend.BranchName,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// updateTrendAnalysis refreshes the derived trend-analysis file for the
// standard periods. Best effort: failures are logged, never fatal.
func (t *Tracker) updateTrendAnalysis(history []Trend) {
	if len(history) < 2 {
		return
	}

	analysis := periodAnalysis{
		LastUpdated:     time.Now().UTC(),
		TotalDataPoints: len(history),
		Periods:         make(map[string]map[Metric]TrendAnalysis),
	}

	for _, period := range trendPeriods {
		if len(t.RecentTrends(period)) < 2 {
			continue
		}
		metrics := make(map[Metric]TrendAnalysis)
		for _, metric := range Metrics {
			metrics[metric] = t.AnalyzeTrendDirection(metric, period)
		}
		analysis.Periods[fmt.Sprintf("%d_days", period)] = metrics
	}

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		t.logger.WithError(err).Error("encode trend analysis")
		return
	}
	if err := os.WriteFile(t.trendsFile, data, 0644); err != nil {
		t.logger.WithError(err).Error("save trend analysis")
	}
}

// leastSquares fits y = a + b*x over values indexed by position and
// returns the slope b and the R² of the fit.
func leastSquares(values []float64) (slope, rSquared float64) {
	n := len(values)
	xMean := float64(n-1) / 2
	yMean := mean(values)

	var numerator, denominator float64
	for i, y := range values {
		x := float64(i)
		numerator += (x - xMean) * (y - yMean)
		denominator += (x - xMean) * (x - xMean)
	}
	if denominator != 0 {
		slope = numerator / denominator
	}

	var ssRes, ssTot float64
	for i, y := range values {
		predicted := yMean + slope*(float64(i)-xMean)
		ssRes += (y - predicted) * (y - predicted)
		ssTot += (y - yMean) * (y - yMean)
	}
	if ssTot != 0 {
		rSquared = 1 - ssRes/ssTot
	}

	return slope, rSquared
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	avg := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - avg) * (v - avg)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
