package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"

	"github.com/covergate/covergate/pkg/analyzer"
	"github.com/covergate/covergate/pkg/suggest"
	"github.com/covergate/covergate/pkg/tracker"
)

// htmlReport is the view model the dashboard template renders.
type htmlReport struct {
	Title       string
	GeneratedAt string

	Metrics      *analyzer.QualityMetrics
	OverallScore float64

	LineClass    string
	BranchClass  string
	QualityClass string

	Gaps        []gapRow
	Snippets    []codeSnippet
	Trend       *trendSummary
	Suggestions []suggestionRow
}

type gapRow struct {
	File       string
	Scope      string
	Lines      string
	Type       string
	Severity   string
	Complexity int
	Hints      string
}

type codeSnippet struct {
	File string
	Code template.HTML
}

type trendSummary struct {
	DataPoints int
	Direction  string
	Average    float64
	Range      float64
}

type suggestionRow struct {
	File        string
	Scope       string
	Type        string
	Priority    string
	Description string
	TestName    string
}

func (r *reporter) writeHTMLReport(
	path, title string,
	a *analyzer.Analyzer,
	metrics *analyzer.QualityMetrics,
	gaps []analyzer.CoverageGap,
	trends []tracker.Trend,
	suggestions []suggest.Suggestion,
) error {
	view := &htmlReport{
		Title:        title,
		GeneratedAt:  time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		Metrics:      metrics,
		OverallScore: metrics.OverallScore(),
		LineClass:    cardClass(metrics.LineCoveragePercent, 90, 70),
		BranchClass:  cardClass(metrics.BranchCoveragePercent, 85, 65),
		QualityClass: cardClass(metrics.OverallScore(), 85, 70),
		Trend:        summarizeTrends(trends),
	}

	topGaps := gaps
	if len(topGaps) > maxGapDetails {
		topGaps = topGaps[:maxGapDetails]
	}
	for _, gap := range topGaps {
		view.Gaps = append(view.Gaps, gapRow{
			File:       filepath.Base(gap.FilePath),
			Scope:      scopeLabel(gap.TypeName, gap.FunctionName),
			Lines:      fmt.Sprintf("%d-%d", gap.LineStart, gap.LineEnd),
			Type:       humanize(string(gap.Type)),
			Severity:   string(gap.Severity),
			Complexity: gap.Complexity,
			Hints:      hintText(gap.SuggestedTests),
		})
	}
	view.Snippets = r.gapSnippets(a, topGaps)

	topSuggestions := suggestions
	if len(topSuggestions) > maxHTMLSuggestions {
		topSuggestions = topSuggestions[:maxHTMLSuggestions]
	}
	for i := range topSuggestions {
		s := &topSuggestions[i]
		view.Suggestions = append(view.Suggestions, suggestionRow{
			File:        filepath.Base(s.FilePath),
			Scope:       scopeLabel(s.TypeName, s.FunctionName),
			Type:        humanize(string(s.TestType)),
			Priority:    string(s.Priority),
			Description: s.Description,
			TestName:    s.FullTestName(),
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := htmlDashboardTemplate.Execute(f, view); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	r.logger.Debugf("generate html report to %s", path)
	return nil
}

const snippetContextLines = 4

// gapSnippets renders highlighted code snippets for the files the top gaps
// point at, one snippet per file, the uncovered lines highlighted.
func (r *reporter) gapSnippets(a *analyzer.Analyzer, gaps []analyzer.CoverageGap) []codeSnippet {
	pathByImport := make(map[string]string)
	for _, fc := range a.Files() {
		pathByImport[fc.ImportPath] = fc.Path
	}

	linesByFile := make(map[string][]int)
	var fileOrder []string
	for _, gap := range gaps {
		if _, ok := linesByFile[gap.FilePath]; !ok {
			if len(fileOrder) == maxSnippets {
				continue
			}
			fileOrder = append(fileOrder, gap.FilePath)
		}
		linesByFile[gap.FilePath] = append(linesByFile[gap.FilePath], gap.LineStart)
	}

	var snippets []codeSnippet
	for _, file := range fileOrder {
		snippet, err := r.renderSnippet(pathByImport[file], linesByFile[file])
		if err != nil {
			r.logger.WithError(err).Debugf("render snippet for %s", file)
			continue
		}
		snippets = append(snippets, codeSnippet{File: file, Code: snippet})
	}
	return snippets
}

func (r *reporter) renderSnippet(path string, gapLines []int) (template.HTML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	lines := strings.Split(string(data), "\n")

	first, last := gapLines[0], gapLines[0]
	for _, line := range gapLines {
		if line < first {
			first = line
		}
		if line > last {
			last = line
		}
	}
	start := first - snippetContextLines
	if start < 1 {
		start = 1
	}
	end := last + snippetContextLines
	if end > len(lines) {
		end = len(lines)
	}

	iter, err := r.lexer.Tokenise(nil, strings.Join(lines[start-1:end], "\n"))
	if err != nil {
		return "", fmt.Errorf("tokenise failed: %w", err)
	}

	var hlLines [][2]int
	for _, line := range gapLines {
		hlLines = append(hlLines, [2]int{line, line})
	}

	formatter := chromahtml.New(
		chromahtml.WithLineNumbers(true),
		chromahtml.LineNumbersInTable(true),
		chromahtml.BaseLineNumber(start),
		chromahtml.LinkableLineNumbers(true, ""),
		chromahtml.HighlightLines(hlLines),
	)

	var buf bytes.Buffer
	if err := formatter.Format(&buf, r.style, iter); err != nil {
		return "", fmt.Errorf("format code snippet: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// summarizeTrends derives the dashboard trend card from recent history.
func summarizeTrends(trends []tracker.Trend) *trendSummary {
	if len(trends) < 2 {
		return nil
	}

	recent := trends
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	values := make([]float64, 0, len(recent))
	var sum, low, high float64
	for i, trend := range recent {
		v := trend.LineCoverage
		values = append(values, v)
		sum += v
		if i == 0 || v < low {
			low = v
		}
		if i == 0 || v > high {
			high = v
		}
	}

	direction := "stable"
	slope := (values[len(values)-1] - values[0]) / float64(len(values))
	switch {
	case slope > 0.5:
		direction = "improving"
	case slope < -0.5:
		direction = "declining"
	}

	return &trendSummary{
		DataPoints: len(trends),
		Direction:  direction,
		Average:    sum / float64(len(values)),
		Range:      high - low,
	}
}

func cardClass(value, success, warning float64) string {
	switch {
	case value >= success:
		return "success"
	case value >= warning:
		return "warning"
	default:
		return "critical"
	}
}

func scopeLabel(typeName, functionName string) string {
	switch {
	case typeName != "" && functionName != "":
		return typeName + "." + functionName
	case typeName != "":
		return typeName
	default:
		return functionName
	}
}

// humanize turns a wire name like "missing_branch" into "Missing Branch".
func humanize(s string) string {
	words := strings.Split(s, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func hintText(hints []string) string {
	if len(hints) == 0 {
		return "None"
	}
	text := strings.Join(hints[:minInt(2, len(hints))], "; ")
	if len(text) > 100 {
		text = text[:97] + "..."
	}
	return text
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
