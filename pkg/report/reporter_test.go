package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covergate/covergate/pkg/analyzer"
	"github.com/covergate/covergate/pkg/suggest"
	"github.com/covergate/covergate/pkg/tracker"
)

const demoSource = `package demo

import "errors"

var errInvalid = errors.New("invalid")

// Add returns the sum.
func Add(a, b int) int {
	return a + b
}

func Validate(x int) error {
	if x < 0 {
		return errInvalid
	}
	return nil
}
`

const demoProfile = `mode: set
example.com/demo/demo.go:8.25,10.2 1 1
example.com/demo/demo.go:12.29,13.12 1 1
example.com/demo/demo.go:13.12,15.3 1 0
example.com/demo/demo.go:15.3,16.13 1 1
`

type demoFixture struct {
	analyzer  *analyzer.Analyzer
	tracker   *tracker.Tracker
	generator *suggest.Generator
	outputDir string
}

func newDemoFixture(t *testing.T) *demoFixture {
	t.Helper()
	repoDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "reports")

	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "go.mod"), []byte("module example.com/demo\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "demo.go"), []byte(demoSource), 0o644))

	profilePath := filepath.Join(repoDir, "coverage.out")
	require.NoError(t, os.WriteFile(profilePath, []byte(demoProfile), 0o644))

	cov := analyzer.New(&analyzer.Options{
		CoverProfiles:  []string{profilePath},
		RepositoryPath: repoDir,
		Logger:         logrus.New(),
	})

	trk, err := tracker.New(filepath.Join(outputDir, "history"), logrus.New())
	require.NoError(t, err)

	gen := suggest.New(&suggest.Options{
		RepositoryPath: repoDir,
		Analyzer:       cov,
		Logger:         logrus.New(),
	})

	return &demoFixture{analyzer: cov, tracker: trk, generator: gen, outputDir: outputDir}
}

func newTestReporter(t *testing.T, outputDir string, caps Capabilities) Reporter {
	t.Helper()
	rpt, err := New(&Options{
		OutputDir:    outputDir,
		Capabilities: caps,
		Logger:       logrus.New(),
	})
	require.NoError(t, err)
	return rpt
}

func TestComprehensiveReport(t *testing.T) {
	t.Run("writes json and html artifacts", func(t *testing.T) {
		f := newDemoFixture(t)
		rpt := newTestReporter(t, f.outputDir, DefaultCapabilities())

		artifacts, err := rpt.ComprehensiveReport(f.analyzer, f.tracker, f.generator, "Coverage Analysis")
		require.NoError(t, err)

		jsonPath, ok := artifacts["json"]
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(filepath.Base(jsonPath), "coverage_data_"))

		data, err := os.ReadFile(jsonPath)
		require.NoError(t, err)

		var doc struct {
			Metrics map[string]interface{} `json:"metrics"`
			Gaps    struct {
				Total    int `json:"total"`
				Critical int `json:"critical"`
				Details  []struct {
					File     string `json:"file"`
					Lines    string `json:"lines"`
					Severity string `json:"severity"`
				} `json:"details"`
			} `json:"gaps"`
			TestSuggestions []struct {
				TestName string `json:"test_name"`
				Priority string `json:"priority"`
			} `json:"test_suggestions"`
		}
		require.NoError(t, json.Unmarshal(data, &doc))

		assert.InDelta(t, 87.5, doc.Metrics["line_coverage"].(float64), 0.01)
		assert.Equal(t, 1, doc.Gaps.Total)
		require.Len(t, doc.Gaps.Details, 1)
		assert.Equal(t, "14-14", doc.Gaps.Details[0].Lines)
		assert.Equal(t, "high", doc.Gaps.Details[0].Severity)
		require.NotEmpty(t, doc.TestSuggestions)
		assert.Equal(t, "TestValidate_error_conditions", doc.TestSuggestions[0].TestName)

		htmlPath, ok := artifacts["html"]
		require.True(t, ok)
		html, err := os.ReadFile(htmlPath)
		require.NoError(t, err)
		assert.Contains(t, string(html), "Coverage Analysis")
		assert.Contains(t, string(html), "example.com/demo/demo.go")
		// the uncovered error path shows up as a highlighted snippet
		assert.Contains(t, string(html), "errInvalid")

		// no history yet, not enough data for charts
		_, ok = artifacts["coverage_trends"]
		assert.False(t, ok)
	})

	t.Run("charts rendered with enough history", func(t *testing.T) {
		f := newDemoFixture(t)
		seedTrends(t, f.tracker, 5)
		rpt := newTestReporter(t, f.outputDir, DefaultCapabilities())

		artifacts, err := rpt.ComprehensiveReport(f.analyzer, f.tracker, f.generator, "Coverage Analysis")
		require.NoError(t, err)

		chartPath, ok := artifacts["coverage_trends"]
		require.True(t, ok)
		_, err = os.Stat(chartPath)
		assert.NoError(t, err)

		scorePath, ok := artifacts["quality_score"]
		require.True(t, ok)
		_, err = os.Stat(scorePath)
		assert.NoError(t, err)
	})

	t.Run("charts disabled by capabilities", func(t *testing.T) {
		f := newDemoFixture(t)
		seedTrends(t, f.tracker, 5)
		rpt := newTestReporter(t, f.outputDir, Capabilities{Charts: false})

		artifacts, err := rpt.ComprehensiveReport(f.analyzer, f.tracker, f.generator, "Coverage Analysis")
		require.NoError(t, err)
		_, ok := artifacts["coverage_trends"]
		assert.False(t, ok)
	})

	t.Run("unloadable coverage", func(t *testing.T) {
		outputDir := filepath.Join(t.TempDir(), "reports")
		rpt := newTestReporter(t, outputDir, DefaultCapabilities())

		cov := analyzer.New(&analyzer.Options{
			CoverProfiles:  []string{"/nonexist/coverage.out"},
			RepositoryPath: t.TempDir(),
			Logger:         logrus.New(),
		})

		_, err := rpt.ComprehensiveReport(cov, nil, nil, "Coverage Analysis")
		assert.ErrorIs(t, err, ErrNoCoverageData)
	})
}

func seedTrends(t *testing.T, trk *tracker.Tracker, count int) {
	t.Helper()
	base := time.Now().UTC().Add(-time.Duration(count) * time.Hour)
	var history []tracker.Trend
	for i := 0; i < count; i++ {
		history = append(history, tracker.Trend{
			Timestamp:        base.Add(time.Duration(i) * time.Hour),
			LineCoverage:     80 + float64(i),
			BranchCoverage:   70 + float64(i),
			FunctionCoverage: 90,
			OverallScore:     75 + float64(i),
		})
	}
	require.NoError(t, trk.SaveHistory(history))
}

func TestCIReport(t *testing.T) {
	t.Run("all thresholds pass", func(t *testing.T) {
		f := newDemoFixture(t)
		rpt := newTestReporter(t, f.outputDir, DefaultCapabilities())

		report := rpt.CIReport(f.analyzer, map[string]float64{
			"line_coverage":   80,
			"branch_coverage": 70,
		}, nil)

		assert.Equal(t, CIStatusPass, report.Status)
		require.Len(t, report.QualityGates, 2)

		lineGate := report.QualityGates["line_coverage"]
		assert.True(t, lineGate.Passed)
		assert.InDelta(t, 87.5, lineGate.Current, 0.01)
		assert.InDelta(t, 7.5, lineGate.Difference, 0.01)
	})

	t.Run("failed threshold fails the report", func(t *testing.T) {
		f := newDemoFixture(t)
		rpt := newTestReporter(t, f.outputDir, DefaultCapabilities())

		report := rpt.CIReport(f.analyzer, map[string]float64{"line_coverage": 95}, nil)

		assert.Equal(t, CIStatusFail, report.Status)
		assert.False(t, report.QualityGates["line_coverage"].Passed)
	})

	t.Run("unknown threshold metric skipped", func(t *testing.T) {
		f := newDemoFixture(t)
		rpt := newTestReporter(t, f.outputDir, DefaultCapabilities())

		report := rpt.CIReport(f.analyzer, map[string]float64{"no_such_metric": 1}, nil)

		assert.Equal(t, CIStatusPass, report.Status)
		assert.Empty(t, report.QualityGates)
	})

	t.Run("regression check attached", func(t *testing.T) {
		f := newDemoFixture(t)
		seedTrends(t, f.tracker, 5)
		rpt := newTestReporter(t, f.outputDir, DefaultCapabilities())

		report := rpt.CIReport(f.analyzer, nil, f.tracker)
		require.NotNil(t, report.RegressionCheck)
	})

	t.Run("unloadable coverage", func(t *testing.T) {
		outputDir := filepath.Join(t.TempDir(), "reports")
		rpt := newTestReporter(t, outputDir, DefaultCapabilities())

		cov := analyzer.New(&analyzer.Options{
			CoverProfiles:  []string{"/nonexist/coverage.out"},
			RepositoryPath: t.TempDir(),
			Logger:         logrus.New(),
		})

		report := rpt.CIReport(cov, nil, nil)
		assert.Equal(t, CIStatusError, report.Status)
	})
}
