package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/covergate/covergate/pkg/tracker"
)

// writeTrendCharts renders the PNG time-series charts: one for the
// coverage percentages and one for the overall quality score. Failures are
// logged per chart; successful charts are still returned.
func (r *reporter) writeTrendCharts(chartsDir string, trends []tracker.Trend) map[string]string {
	if err := os.MkdirAll(chartsDir, 0o755); err != nil {
		r.logger.WithError(err).Warn("create charts directory")
		return nil
	}

	timestamps := make([]time.Time, 0, len(trends))
	lineCov := make([]float64, 0, len(trends))
	branchCov := make([]float64, 0, len(trends))
	funcCov := make([]float64, 0, len(trends))
	scores := make([]float64, 0, len(trends))
	for _, trend := range trends {
		timestamps = append(timestamps, trend.Timestamp)
		lineCov = append(lineCov, trend.LineCoverage)
		branchCov = append(branchCov, trend.BranchCoverage)
		funcCov = append(funcCov, trend.FunctionCoverage)
		scores = append(scores, trend.OverallScore)
	}

	artifacts := make(map[string]string)

	coverageChart := chart.Chart{
		Title:  "Coverage Trends Over Time",
		Width:  1200,
		Height: 800,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Coverage Percentage",
		},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Line Coverage", XValues: timestamps, YValues: lineCov},
			chart.TimeSeries{Name: "Branch Coverage", XValues: timestamps, YValues: branchCov},
			chart.TimeSeries{Name: "Function Coverage", XValues: timestamps, YValues: funcCov},
		},
	}
	coverageChart.Elements = []chart.Renderable{chart.Legend(&coverageChart)}

	coverageFile := filepath.Join(chartsDir, "coverage_trends.png")
	if err := r.renderChart(&coverageChart, coverageFile); err != nil {
		r.logger.WithError(err).Warn("render coverage trends chart")
	} else {
		artifacts["coverage_trends"] = coverageFile
	}

	scoreChart := chart.Chart{
		Title:  "Overall Coverage Quality Score",
		Width:  1000,
		Height: 600,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Quality Score",
		},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Overall Quality Score", XValues: timestamps, YValues: scores},
		},
	}

	scoreFile := filepath.Join(chartsDir, "quality_score.png")
	if err := r.renderChart(&scoreChart, scoreFile); err != nil {
		r.logger.WithError(err).Warn("render quality score chart")
	} else {
		artifacts["quality_score"] = scoreFile
	}

	return artifacts
}

func (r *reporter) renderChart(graph *chart.Chart, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
