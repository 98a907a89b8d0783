package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/sirupsen/logrus"

	"github.com/covergate/covergate/pkg/analyzer"
	"github.com/covergate/covergate/pkg/suggest"
	"github.com/covergate/covergate/pkg/tracker"
)

// Reporter represents the feature that renders coverage report artifacts.
type Reporter interface {
	ComprehensiveReport(a *analyzer.Analyzer, t *tracker.Tracker, g *suggest.Generator, title string) (map[string]string, error)
	CIReport(a *analyzer.Analyzer, thresholds map[string]float64, t *tracker.Tracker) *CIReport
}

// Capabilities declares which optional artifact kinds the reporter may
// produce. Injected at construction rather than probed globally.
type Capabilities struct {
	// Charts enables PNG trend chart rendering.
	Charts bool
}

// DefaultCapabilities enables every optional artifact.
func DefaultCapabilities() Capabilities {
	return Capabilities{Charts: true}
}

// Options contains the input for building a Reporter.
type Options struct {
	// OutputDir is the directory report artifacts are written to.
	OutputDir string
	// CodeStyle is the chroma style used for code snippets.
	CodeStyle string

	Capabilities Capabilities

	Logger logrus.FieldLogger
}

type reporter struct {
	outputDir string
	caps      Capabilities

	// lexer for parsing go code
	lexer chroma.Lexer
	// style for go code snippets
	style *chroma.Style

	logger logrus.FieldLogger
}

var _ Reporter = (*reporter)(nil)

const (
	// CodeLanguage represents the language style for snippets.
	CodeLanguage = "go"
	// codeHighlightColor background color for uncovered code lines.
	codeHighlightColor = "bg:#ffcccc"

	defaultCodeStyle = "colorful"

	trendWindowDays    = 30
	maxSuggestions     = 25
	maxGapDetails      = 20
	maxReportTrends    = 30
	maxHTMLSuggestions = 15
	maxSnippets        = 10
)

// ErrNoCoverageData marks a report request without loadable coverage data.
var ErrNoCoverageData = errors.New("failed to load coverage data")

// New creates a Reporter writing artifacts under outputDir. Code snippets
// are styled with https://pygments.org/docs/styles via
// https://github.com/alecthomas/chroma.
func New(o *Options) (Reporter, error) {
	if err := os.MkdirAll(o.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	logger := o.Logger
	if logger == nil {
		logger = logrus.New()
	}

	codeStyle := o.CodeStyle
	if codeStyle == "" {
		codeStyle = defaultCodeStyle
	}
	style := styles.Get(codeStyle)
	if style == nil {
		style = styles.Fallback
	}
	builder := style.Builder().Add(chroma.LineHighlight, codeHighlightColor)
	if s, err := builder.Build(); err == nil {
		style = s
	}

	lexer := lexers.Get(CodeLanguage)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	return &reporter{
		outputDir: o.OutputDir,
		caps:      o.Capabilities,
		lexer:     lexer,
		style:     style,
		logger:    logger.WithField("source", "report"),
	}, nil
}

// ComprehensiveReport renders the full artifact set: a JSON document, an
// HTML dashboard and, when charting is enabled and enough history exists,
// PNG trend charts. The returned map carries artifact kind to location.
// Failure of one artifact is logged and omitted; the others are still
// attempted.
func (r *reporter) ComprehensiveReport(a *analyzer.Analyzer, t *tracker.Tracker, g *suggest.Generator, title string) (map[string]string, error) {
	if !a.Loaded() && !a.Load() {
		return nil, ErrNoCoverageData
	}

	metrics := a.CalculateQualityMetrics(nil)
	gaps := a.AnalyzeGaps()
	summary := a.Summary()

	var trends []tracker.Trend
	if t != nil {
		trends = t.RecentTrends(trendWindowDays)
	}

	var suggestions []suggest.Suggestion
	if g != nil {
		suggestions = g.GenerateSuggestions(maxSuggestions)
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	artifacts := make(map[string]string)

	jsonFile := filepath.Join(r.outputDir, fmt.Sprintf("coverage_data_%s.json", stamp))
	if err := r.writeJSONReport(jsonFile, &metrics, gaps, trends, suggestions, summary); err != nil {
		r.logger.WithError(err).Warn("write json report")
	} else {
		artifacts["json"] = jsonFile
	}

	htmlFile := filepath.Join(r.outputDir, fmt.Sprintf("coverage_report_%s.html", stamp))
	if err := r.writeHTMLReport(htmlFile, title, a, &metrics, gaps, trends, suggestions); err != nil {
		r.logger.WithError(err).Warn("write html report")
	} else {
		artifacts["html"] = htmlFile
	}

	if r.caps.Charts && len(trends) >= 2 {
		chartsDir := filepath.Join(r.outputDir, "charts")
		for kind, file := range r.writeTrendCharts(chartsDir, trends) {
			artifacts[kind] = file
		}
	}

	return artifacts, nil
}

// CIReport evaluates metric thresholds and an optional regression check
// into a pure in-memory pass/fail payload. No file I/O.
func (r *reporter) CIReport(a *analyzer.Analyzer, thresholds map[string]float64, t *tracker.Tracker) *CIReport {
	if !a.Loaded() && !a.Load() {
		return &CIReport{Status: CIStatusError, Message: ErrNoCoverageData.Error()}
	}

	metrics := a.CalculateQualityMetrics(nil)

	result := &CIReport{
		Status:       CIStatusPass,
		OverallScore: metrics.OverallScore(),
		Timestamp:    time.Now().UTC(),
		QualityGates: make(map[string]ThresholdResult),
		Metrics: map[string]float64{
			"line_coverage":      metrics.LineCoveragePercent,
			"branch_coverage":    metrics.BranchCoveragePercent,
			"function_coverage":  metrics.FunctionCoveragePercent,
			"critical_gaps":      float64(metrics.CriticalGaps),
			"high_priority_gaps": float64(metrics.HighPriorityGaps),
		},
	}

	for name, threshold := range thresholds {
		current, ok := metrics.Metric(name)
		if !ok {
			r.logger.Warnf("unknown metric %q in CI thresholds", name)
			continue
		}
		passed := current >= threshold
		result.QualityGates[name] = ThresholdResult{
			Current:    current,
			Threshold:  threshold,
			Passed:     passed,
			Difference: current - threshold,
		}
		if !passed {
			result.Status = CIStatusFail
		}
	}

	if t != nil {
		check := t.DetectRegression(tracker.DefaultRegressionThreshold)
		result.RegressionCheck = &check
	}

	return result
}

// writeJSONReport assembles the machine-readable artifact.
func (r *reporter) writeJSONReport(
	path string,
	metrics *analyzer.QualityMetrics,
	gaps []analyzer.CoverageGap,
	trends []tracker.Trend,
	suggestions []suggest.Suggestion,
	summary map[string]interface{},
) error {
	details := gaps
	if len(details) > maxGapDetails {
		details = details[:maxGapDetails]
	}
	gapDetails := make([]gapDetail, 0, len(details))
	for _, gap := range details {
		gapDetails = append(gapDetails, gapDetail{
			File:        gap.FilePath,
			Lines:       fmt.Sprintf("%d-%d", gap.LineStart, gap.LineEnd),
			Type:        gap.Type,
			Severity:    gap.Severity,
			Function:    gap.FunctionName,
			Class:       gap.TypeName,
			Complexity:  gap.Complexity,
			Suggestions: gap.SuggestedTests,
		})
	}

	if len(trends) > maxReportTrends {
		trends = trends[len(trends)-maxReportTrends:]
	}

	topSuggestions := suggestions
	if len(topSuggestions) > maxHTMLSuggestions {
		topSuggestions = topSuggestions[:maxHTMLSuggestions]
	}
	suggestionRows := make([]suggestionDetail, 0, len(topSuggestions))
	for i := range topSuggestions {
		s := &topSuggestions[i]
		suggestionRows = append(suggestionRows, suggestionDetail{
			File:        s.FilePath,
			Function:    s.FunctionName,
			Class:       s.TypeName,
			Type:        s.TestType,
			Priority:    s.Priority,
			Description: s.Description,
			TestName:    s.FullTestName(),
			Complexity:  s.Complexity,
		})
	}

	doc := jsonReport{
		Timestamp: time.Now().UTC(),
		Summary:   summary,
		Metrics: map[string]interface{}{
			"line_coverage":      metrics.LineCoveragePercent,
			"branch_coverage":    metrics.BranchCoveragePercent,
			"function_coverage":  metrics.FunctionCoveragePercent,
			"overall_score":      metrics.OverallScore(),
			"effective_coverage": metrics.EffectiveCoverageScore,
			"test_quality":       metrics.TestQualityScore,
			"coverage_density":   metrics.CoverageDensity,
			"trend":              metrics.CoverageTrend,
			"trend_percentage":   metrics.TrendPercentage,
		},
		Gaps: gapSummary{
			Total:      len(gaps),
			Critical:   metrics.CriticalGaps,
			High:       metrics.HighPriorityGaps,
			BySeverity: analyzer.GroupGapsBySeverity(gaps),
			ByType:     analyzer.GroupGapsByType(gaps),
			Details:    gapDetails,
		},
		Trends:          trends,
		TestSuggestions: suggestionRows,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	r.logger.Debugf("generate json report to %s", path)
	return nil
}
