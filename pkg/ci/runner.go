package ci

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/covergate/covergate/pkg/analyzer"
	"github.com/covergate/covergate/pkg/dbclient"
	"github.com/covergate/covergate/pkg/report"
	"github.com/covergate/covergate/pkg/suggest"
	"github.com/covergate/covergate/pkg/tracker"
)

// Status is the final verdict of a CI coverage run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusFailure Status = "failure"
	StatusError   Status = "error"
)

// RunMetrics is the metrics slice of the run result payload.
type RunMetrics struct {
	LineCoverage     float64 `json:"line_coverage"`
	BranchCoverage   float64 `json:"branch_coverage"`
	FunctionCoverage float64 `json:"function_coverage"`
	OverallScore     float64 `json:"overall_score"`
	CriticalGaps     int     `json:"critical_gaps"`
	HighPriorityGaps int     `json:"high_priority_gaps"`
	TotalGaps        int     `json:"total_gaps"`
}

// GateTally aggregates the quality gate evaluation of one run.
type GateTally struct {
	Total    int          `json:"total"`
	Passed   int          `json:"passed"`
	Failed   int          `json:"failed"`
	Warnings int          `json:"warnings"`
	Results  []GateResult `json:"results"`
}

// RunResult is the machine contract of a CI coverage run.
type RunResult struct {
	Timestamp       time.Time                 `json:"timestamp"`
	Status          Status                    `json:"status"`
	ExitCode        int                       `json:"exit_code"`
	Message         string                    `json:"message,omitempty"`
	CommitHash      string                    `json:"commit_hash,omitempty"`
	BranchName      string                    `json:"branch_name,omitempty"`
	Metrics         *RunMetrics               `json:"metrics,omitempty"`
	QualityGates    *GateTally                `json:"quality_gates,omitempty"`
	RegressionCheck *tracker.RegressionReport `json:"regression_check,omitempty"`
	Reports         map[string]string         `json:"reports,omitempty"`
	Summary         string                    `json:"summary,omitempty"`
}

// Options contains the input for building a CI Runner.
type Options struct {
	// CoverProfiles are the coverage profiles produced by 'go test'.
	CoverProfiles []string
	// RepositoryPath is the root directory of the repository under analysis.
	RepositoryPath string
	// ModuleDir is the directory containing go.mod, relative to the repository root.
	ModuleDir string
	// OutputDir is where report artifacts and trend history live.
	OutputDir string
	// Excludes are doublestar patterns for files left out of the analysis.
	Excludes []string
	// Gates are the quality gates to enforce; defaults apply when empty.
	Gates []QualityGate
	// Style is the chroma style for report code snippets.
	Style string
	// TestCounter probes the repository's test count. Defaults to the go
	// tool based counter.
	TestCounter TestCounter
	// DbClient optionally receives each run's data; nil disables it.
	DbClient dbclient.DbClient

	Logger logrus.FieldLogger
}

// Runner orchestrates analysis, gate evaluation, trend tracking and report
// generation for CI.
type Runner struct {
	analyzer  *analyzer.Analyzer
	tracker   *tracker.Tracker
	reporter  report.Reporter
	generator *suggest.Generator

	gates    []QualityGate
	counter  TestCounter
	dbClient dbclient.DbClient

	outputDir string
	logger    logrus.FieldLogger
}

// NewRunner creates a Runner and its collaborators from options.
func NewRunner(o *Options) (*Runner, error) {
	logger := o.Logger
	if logger == nil {
		logger = logrus.New()
	}

	if err := os.MkdirAll(o.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	cov := analyzer.New(&analyzer.Options{
		CoverProfiles:  o.CoverProfiles,
		RepositoryPath: o.RepositoryPath,
		ModuleDir:      o.ModuleDir,
		Excludes:       o.Excludes,
		Logger:         logger,
	})

	trk, err := tracker.New(filepath.Join(o.OutputDir, "history"), logger)
	if err != nil {
		return nil, fmt.Errorf("create tracker: %w", err)
	}

	rpt, err := report.New(&report.Options{
		OutputDir:    o.OutputDir,
		CodeStyle:    o.Style,
		Capabilities: report.DefaultCapabilities(),
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create reporter: %w", err)
	}

	gen := suggest.New(&suggest.Options{
		RepositoryPath: o.RepositoryPath,
		ModuleDir:      o.ModuleDir,
		Analyzer:       cov,
		Logger:         logger,
	})

	gates := o.Gates
	if len(gates) == 0 {
		gates = DefaultQualityGates()
	}

	counter := o.TestCounter
	if counter == nil {
		counter = NewGoTestCounter(filepath.Join(o.RepositoryPath, o.ModuleDir), logger)
	}

	return &Runner{
		analyzer:  cov,
		tracker:   trk,
		reporter:  rpt,
		generator: gen,
		gates:     gates,
		counter:   counter,
		dbClient:  o.DbClient,
		outputDir: o.OutputDir,
		logger:    logger.WithField("source", "ci"),
	}, nil
}

// RunOptions tunes one CI run.
type RunOptions struct {
	// Gates overrides the runner's configured gates for this run.
	Gates []QualityGate
	// GenerateReports renders the comprehensive artifact set.
	GenerateReports bool
	// TrackTrends records a trend entry and checks for regressions.
	TrackTrends bool
	// FailOnRegression forces failure status when a regression is detected.
	FailOnRegression bool

	CommitHash string
	BranchName string
}

// DefaultRunOptions enables reports, tracking and regression failure.
func DefaultRunOptions() *RunOptions {
	return &RunOptions{
		GenerateReports:  true,
		TrackTrends:      true,
		FailOnRegression: true,
	}
}

// Run executes the full CI pipeline: load coverage, compute metrics,
// evaluate gates, track trends, render reports, and fold everything into a
// verdict payload. It never panics; unexpected internal errors become an
// error result with exit code 1.
func (r *Runner) Run(ctx context.Context, o *RunOptions) (result *RunResult) {
	if o == nil {
		o = DefaultRunOptions()
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("coverage analysis panicked: %v", rec)
			result = &RunResult{
				Timestamp: time.Now().UTC(),
				Status:    StatusError,
				ExitCode:  1,
				Message:   fmt.Sprintf("coverage analysis failed: %v", rec),
			}
		}
	}()

	result = &RunResult{
		Timestamp:  time.Now().UTC(),
		Status:     StatusSuccess,
		CommitHash: o.CommitHash,
		BranchName: o.BranchName,
	}

	if !r.analyzer.Loaded() && !r.analyzer.Load() {
		return &RunResult{
			Timestamp: time.Now().UTC(),
			Status:    StatusError,
			ExitCode:  1,
			Message:   "failed to load coverage data",
		}
	}

	metrics := r.analyzer.CalculateQualityMetrics(r.coverageHistory())
	gaps := r.analyzer.AnalyzeGaps()

	gates := o.Gates
	if len(gates) == 0 {
		gates = r.gates
	}
	tally := r.evaluateGates(gates, &metrics)
	result.QualityGates = tally

	switch {
	case tally.Failed > 0:
		result.Status = StatusFailure
		result.ExitCode = 1
	case tally.Warnings > 0:
		result.Status = StatusWarning
	}

	if o.TrackTrends {
		testCount := r.counter.Count(ctx)
		if _, err := r.tracker.Record(
			metrics.LineCoveragePercent,
			metrics.BranchCoveragePercent,
			metrics.FunctionCoveragePercent,
			metrics.OverallScore(),
			testCount,
			o.CommitHash,
			o.BranchName,
		); err != nil {
			r.logger.WithError(err).Warn("record coverage trend")
		}

		check := r.tracker.DetectRegression(tracker.DefaultRegressionThreshold)
		result.RegressionCheck = &check
		if o.FailOnRegression && check.HasRegression {
			result.Status = StatusFailure
			result.ExitCode = 1
		}

		r.storeRun(ctx, &metrics, gaps, testCount, result)
	}

	if o.GenerateReports {
		artifacts, err := r.reporter.ComprehensiveReport(r.analyzer, r.tracker, r.generator, "CI Coverage Analysis")
		if err != nil {
			r.logger.WithError(err).Warn("generate reports")
		}
		result.Reports = artifacts
	}

	result.Metrics = &RunMetrics{
		LineCoverage:     metrics.LineCoveragePercent,
		BranchCoverage:   metrics.BranchCoveragePercent,
		FunctionCoverage: metrics.FunctionCoveragePercent,
		OverallScore:     metrics.OverallScore(),
		CriticalGaps:     metrics.CriticalGaps,
		HighPriorityGaps: metrics.HighPriorityGaps,
		TotalGaps:        len(gaps),
	}
	result.Summary = summaryMessage(tally, result.RegressionCheck, &metrics)

	return result
}

// QuickCheck loads coverage data and compares line coverage against a
// single threshold, bypassing gates, trends and reports.
func (r *Runner) QuickCheck(minLineCoverage float64) (bool, string) {
	if !r.analyzer.Loaded() && !r.analyzer.Load() {
		return false, "Failed to load coverage data"
	}

	metrics := r.analyzer.CalculateQualityMetrics(nil)
	if metrics.LineCoveragePercent >= minLineCoverage {
		return true, fmt.Sprintf("Coverage check passed: %.1f%% >= %g%%", metrics.LineCoveragePercent, minLineCoverage)
	}
	return false, fmt.Sprintf("Coverage check failed: %.1f%% < %g%%", metrics.LineCoveragePercent, minLineCoverage)
}

// evaluateGates resolves each gate's metric and evaluates it. An unknown
// metric name reads 0 and is logged, so a misconfigured gate is visible.
func (r *Runner) evaluateGates(gates []QualityGate, metrics *analyzer.QualityMetrics) *GateTally {
	tally := &GateTally{}

	for _, gate := range gates {
		current, known := metrics.Metric(gate.Metric)
		if !known {
			r.logger.Warnf("quality gate %s references unknown metric %q, value defaults to 0", gate.Name, gate.Metric)
		}

		gateResult := evaluateGate(gate, current)
		tally.Results = append(tally.Results, gateResult)
		tally.Total++
		switch {
		case gateResult.Passed:
			tally.Passed++
		case gate.Severity == GateSeverityError:
			tally.Failed++
		default:
			tally.Warnings++
		}
	}

	return tally
}

// coverageHistory extracts the recorded line coverage series, oldest first,
// for trend derivation in the metrics snapshot.
func (r *Runner) coverageHistory() []float64 {
	history := r.tracker.LoadHistory()
	values := make([]float64, 0, len(history))
	for _, trend := range history {
		values = append(values, trend.LineCoverage)
	}
	return values
}

// storeRun sends the run to the configured database, best effort.
func (r *Runner) storeRun(ctx context.Context, metrics *analyzer.QualityMetrics, gaps []analyzer.CoverageGap, testCount int, result *RunResult) {
	if r.dbClient == nil {
		return
	}

	err := r.dbClient.Store(ctx, &dbclient.Data{
		PreciseTimestamp: time.Now().UTC(),
		LineCoverage:     metrics.LineCoveragePercent,
		BranchCoverage:   metrics.BranchCoveragePercent,
		FunctionCoverage: metrics.FunctionCoveragePercent,
		OverallScore:     metrics.OverallScore(),
		CriticalGaps:     int64(metrics.CriticalGaps),
		TotalGaps:        int64(len(gaps)),
		TestCount:        int64(testCount),
		Status:           string(result.Status),
		CommitHash:       result.CommitHash,
		BranchName:       result.BranchName,
	})
	if err != nil {
		r.logger.WithError(err).Warn("store run data")
	}
}

// summaryMessage builds the one-line human summary of a run.
func summaryMessage(tally *GateTally, regression *tracker.RegressionReport, metrics *analyzer.QualityMetrics) string {
	switch {
	case tally.Failed > 0:
		return fmt.Sprintf("Coverage analysis failed: %d quality gate(s) failed", tally.Failed)
	case regression != nil && regression.HasRegression:
		return fmt.Sprintf("Coverage regression detected: %d metric(s) regressed", len(regression.Regressions))
	case tally.Warnings > 0:
		return fmt.Sprintf("Coverage analysis passed with warnings: %d quality gate(s) have warnings", tally.Warnings)
	default:
		return fmt.Sprintf("Coverage analysis passed: %.1f overall score", metrics.OverallScore())
	}
}

// FormatSummary renders the multi-line CLI summary for a run result.
func FormatSummary(result *RunResult) string {
	if result.Status == StatusError {
		return fmt.Sprintf("Coverage analysis error: %s", result.Message)
	}

	metrics := result.Metrics
	if metrics == nil {
		metrics = &RunMetrics{}
	}
	var gatesPassed, gatesTotal int
	if result.QualityGates != nil {
		gatesPassed = result.QualityGates.Passed
		gatesTotal = result.QualityGates.Total
	}

	summary := fmt.Sprintf(
		"Coverage analysis: %s\nLine coverage: %.1f%%\nBranch coverage: %.1f%%\nOverall score: %.1f\nCritical gaps: %d\nQuality gates: %d/%d passed",
		result.Status,
		metrics.LineCoverage,
		metrics.BranchCoverage,
		metrics.OverallScore,
		metrics.CriticalGaps,
		gatesPassed,
		gatesTotal,
	)
	if result.RegressionCheck != nil && result.RegressionCheck.HasRegression {
		summary += "\nRegression detected!"
	}
	return summary
}
