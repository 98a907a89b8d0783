package analyzer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/tools/cover"

	"github.com/covergate/covergate/pkg/annotation"
)

// Options contains the input for building a coverage Analyzer.
type Options struct {
	// CoverProfiles are the coverage profiles produced by 'go test'.
	CoverProfiles []string
	// RepositoryPath is the root directory of the repository under analysis.
	RepositoryPath string
	// ModuleDir is the directory containing go.mod, relative to the repository root.
	ModuleDir string
	// Excludes are doublestar patterns for files left out of the analysis.
	Excludes []string
	// Scorer rates the existing test suite. Defaults to the static scorer.
	Scorer QualityScorer

	Logger logrus.FieldLogger
}

// Analyzer loads raw coverage measurements and turns them into gaps and
// quality metrics.
type Analyzer struct {
	coverProfiles  []string
	repositoryPath string
	moduleDir      string
	excludes       []string
	scorer         QualityScorer

	// files holds the loaded per-file coverage, nil until Load succeeds.
	files map[string]*FileCoverage

	fileCache  fileContentsCache
	scopeCache map[string]*ScopeTree

	logger logrus.FieldLogger
}

// New creates an Analyzer from options. Coverage data is not read until
// Load is called.
func New(o *Options) *Analyzer {
	logger := o.Logger
	if logger == nil {
		logger = logrus.New()
	}

	scorer := o.Scorer
	if scorer == nil {
		scorer = DefaultQualityScorer()
	}

	return &Analyzer{
		coverProfiles:  o.CoverProfiles,
		repositoryPath: o.RepositoryPath,
		moduleDir:      o.ModuleDir,
		excludes:       o.Excludes,
		scorer:         scorer,
		fileCache:      make(fileContentsCache),
		scopeCache:     make(map[string]*ScopeTree),
		logger:         logger.WithField("source", "analyzer"),
	}
}

// Load reads the configured cover profiles. It returns false on any I/O or
// parse failure, logging the cause; it never panics.
func (a *Analyzer) Load() bool {
	repositoryAbsPath, err := filepath.Abs(a.repositoryPath)
	if err != nil {
		a.logger.WithError(err).Error("resolve repository path")
		return false
	}

	modulePath, err := parseGoModulePath(filepath.Join(repositoryAbsPath, a.moduleDir))
	if err != nil {
		a.logger.WithError(err).Warn("parse go module path, file resolution falls back to repository-relative paths")
		modulePath = ""
	}

	var profiles []*cover.Profile
	var loadErr error
	for _, coverProfile := range a.coverProfiles {
		parsed, err := cover.ParseProfiles(coverProfile)
		if err != nil {
			loadErr = multierr.Append(loadErr, fmt.Errorf("parse cover profile %s: %w", coverProfile, err))
			continue
		}
		profiles = append(profiles, parsed...)
	}
	if loadErr != nil {
		a.logger.WithError(loadErr).Error("load coverage data")
		return false
	}
	if len(profiles) == 0 {
		a.logger.Error("no coverage data found in cover profiles")
		return false
	}

	a.files = loadProfiles(profiles, modulePath, filepath.Join(repositoryAbsPath, a.moduleDir))
	a.applyIgnoreProfiles()
	a.logger.Debugf("loaded coverage for %d files", len(a.files))
	return true
}

// applyIgnoreProfiles honors ignore directives in the measured sources:
// a file annotated with `//+covergate:ignore:file` drops out of the
// analysis, annotated blocks lose their lines. Sources not present on
// disk have nothing to ignore.
func (a *Analyzer) applyIgnoreProfiles() {
	for name, fc := range a.files {
		profile, err := annotation.ParseIgnoreProfile(fc.Path)
		if err != nil {
			continue
		}
		if profile.Kind == annotation.IgnoreFile {
			a.logger.Debugf("file %s excluded by ignore directive", fc.ImportPath)
			delete(a.files, name)
			continue
		}
		for line := range profile.Lines {
			delete(fc.ExecutedLines, line)
			delete(fc.MissingLines, line)
		}
	}
}

// Loaded reports whether coverage data is available.
func (a *Analyzer) Loaded() bool {
	return a.files != nil
}

// Files returns the loaded per-file coverage for files under analysis.
func (a *Analyzer) Files() []*FileCoverage {
	var result []*FileCoverage
	for _, fc := range a.files {
		if isSourceFile(fc.ImportPath, a.excludes) {
			result = append(result, fc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ImportPath < result[j].ImportPath })
	return result
}

// AnalyzeGaps identifies the uncovered regions across all measured files,
// sorted by severity then complexity, both descending. Per-file failures
// are logged and skipped so one unparsable file cannot sink the run.
func (a *Analyzer) AnalyzeGaps() []CoverageGap {
	if a.files == nil {
		return nil
	}

	var gaps []CoverageGap
	for _, fc := range a.Files() {
		fileGaps, err := a.analyzeFileGaps(fc)
		if err != nil {
			a.logger.WithError(err).Warnf("analyze %s, file skipped", fc.ImportPath)
			continue
		}
		gaps = append(gaps, fileGaps...)
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		ri, rj := severityRank[gaps[i].Severity], severityRank[gaps[j].Severity]
		if ri != rj {
			return ri > rj
		}
		return gaps[i].Complexity > gaps[j].Complexity
	})

	return gaps
}

func (a *Analyzer) analyzeFileGaps(fc *FileCoverage) ([]CoverageGap, error) {
	if len(fc.MissingLines) == 0 {
		return nil, nil
	}

	contents, err := a.fileContents(fc.Path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	scopes, err := a.scopes(fc.Path)
	if err != nil {
		return nil, fmt.Errorf("parse scopes: %w", err)
	}

	var gaps []CoverageGap
	for _, line := range fc.SortedMissingLines() {
		if line > len(contents) {
			continue
		}
		text := contents[line-1]
		if !isCodeLine(text) {
			continue
		}

		functionName, typeName := scopes.Enclosing(line)
		gaps = append(gaps, CoverageGap{
			FilePath:       fc.ImportPath,
			LineStart:      line,
			LineEnd:        line,
			Type:           classifyGapType(text),
			Severity:       classifySeverity(text, functionName),
			FunctionName:   functionName,
			TypeName:       typeName,
			Complexity:     lineComplexity(text),
			SuggestedTests: suggestTestsForLine(text, functionName),
		})
	}

	return gaps, nil
}

// CalculateQualityMetrics computes the aggregate coverage health snapshot.
// The optional history carries recent line coverage percentages, oldest
// first, for trend derivation. An unloaded analyzer yields the zero value.
func (a *Analyzer) CalculateQualityMetrics(history []float64) QualityMetrics {
	if a.files == nil {
		return QualityMetrics{CoverageTrend: TrendStable}
	}

	files := a.Files()

	var executed, missing, totalArcs, coveredArcs int
	for _, fc := range files {
		executed += len(fc.ExecutedLines)
		missing += len(fc.MissingLines)
		totalArcs += fc.TotalArcs
		coveredArcs += fc.CoveredArcs
	}

	metrics := QualityMetrics{
		LineCoveragePercent:   percent(executed, executed+missing),
		BranchCoveragePercent: percent(coveredArcs, totalArcs),
		TestQualityScore:      a.scorer.Score(),
	}

	metrics.FunctionCoveragePercent = a.functionCoverage(files)
	metrics.EffectiveCoverageScore, metrics.CoverageDensity = a.weightedCoverage(files)

	gaps := a.AnalyzeGaps()
	metrics.TotalGaps = len(gaps)
	for _, gap := range gaps {
		switch gap.Severity {
		case SeverityCritical:
			metrics.CriticalGaps++
		case SeverityHigh:
			metrics.HighPriorityGaps++
		}
	}

	metrics.CoverageTrend, metrics.TrendPercentage = analyzeTrend(history)

	for _, fc := range files {
		if len(fc.ExecutedLines)+len(fc.MissingLines) == 0 {
			continue
		}
		switch pct := fc.LinePercent(); {
		case pct == 0:
			metrics.UncoveredFiles++
		case pct < 50:
			metrics.PoorlyCoveredFiles++
		case pct >= 90:
			metrics.WellCoveredFiles++
		}
	}

	return metrics
}

// functionCoverage counts functions whose declaration line executed against
// all functions found in the scope trees.
func (a *Analyzer) functionCoverage(files []*FileCoverage) float64 {
	var total, covered int
	for _, fc := range files {
		scopes, err := a.scopes(fc.Path)
		if err != nil {
			continue
		}
		for _, fn := range scopes.Functions() {
			total++
			if fc.ExecutedLines[fn.StartLine] {
				covered++
			}
		}
	}
	return percent(covered, total)
}

// weightedCoverage returns the complexity-weighted coverage score and the
// plain coverage density (executed lines per non-comment line).
func (a *Analyzer) weightedCoverage(files []*FileCoverage) (float64, float64) {
	var totalWeighted, coveredWeighted int
	var totalLines, coveredLines int

	for _, fc := range files {
		contents, err := a.fileContents(fc.Path)
		if err != nil {
			continue
		}
		for i, line := range contents {
			if !isCodeLine(line) {
				continue
			}
			weight := lineComplexity(line)
			totalWeighted += weight
			totalLines++
			if fc.ExecutedLines[i+1] {
				coveredWeighted += weight
			}
		}
		coveredLines += len(fc.ExecutedLines)
	}

	var density float64
	if totalLines > 0 {
		density = float64(coveredLines) / float64(totalLines)
	}
	return percent(coveredWeighted, totalWeighted), density
}

// Summary assembles the top-level JSON summary for reports.
func (a *Analyzer) Summary() map[string]interface{} {
	if a.files == nil {
		return map[string]interface{}{}
	}

	metrics := a.CalculateQualityMetrics(nil)
	gaps := a.AnalyzeGaps()

	return map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"metrics": map[string]interface{}{
			"line_coverage":      metrics.LineCoveragePercent,
			"branch_coverage":    metrics.BranchCoveragePercent,
			"function_coverage":  metrics.FunctionCoveragePercent,
			"overall_score":      metrics.OverallScore(),
			"effective_coverage": metrics.EffectiveCoverageScore,
			"test_quality":       metrics.TestQualityScore,
		},
		"gaps": map[string]interface{}{
			"total":    len(gaps),
			"critical": metrics.CriticalGaps,
			"high":     metrics.HighPriorityGaps,
			"by_type":  GroupGapsByType(gaps),
		},
		"files": map[string]interface{}{
			"well_covered":   metrics.WellCoveredFiles,
			"poorly_covered": metrics.PoorlyCoveredFiles,
			"uncovered":      metrics.UncoveredFiles,
		},
		"trend": map[string]interface{}{
			"direction":  metrics.CoverageTrend,
			"percentage": metrics.TrendPercentage,
		},
	}
}

// GroupGapsByType counts gaps per gap type.
func GroupGapsByType(gaps []CoverageGap) map[GapType]int {
	counts := make(map[GapType]int)
	for _, gap := range gaps {
		counts[gap.Type]++
	}
	return counts
}

// GroupGapsBySeverity counts gaps per severity.
func GroupGapsBySeverity(gaps []CoverageGap) map[Severity]int {
	counts := make(map[Severity]int)
	for _, gap := range gaps {
		counts[gap.Severity]++
	}
	return counts
}

// analyzeTrend derives direction and slope over the last 5 history points.
func analyzeTrend(history []float64) (TrendDirection, float64) {
	if len(history) < 2 {
		return TrendStable, 0
	}

	recent := history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}

	slope := (recent[len(recent)-1] - recent[0]) / float64(len(recent))
	switch {
	case slope > 1.0:
		return TrendImproving, slope
	case slope < -1.0:
		return TrendDeclining, slope
	default:
		return TrendStable, slope
	}
}

func percent(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(covered) / float64(total) * 100
}

type fileContentsCache map[string][]string

// fileContents finds the contents of a source file, memoized per run.
func (a *Analyzer) fileContents(filename string) ([]string, error) {
	result, ok := a.fileCache[filename]
	if ok {
		return result, nil
	}

	fd, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	s := bufio.NewScanner(fd)
	for s.Scan() {
		result = append(result, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	a.fileCache[filename] = result
	return result, nil
}

func (a *Analyzer) scopes(filename string) (*ScopeTree, error) {
	if tree, ok := a.scopeCache[filename]; ok {
		return tree, nil
	}
	tree, err := ParseScopes(filename)
	if err != nil {
		return nil, err
	}
	a.scopeCache[filename] = tree
	return tree, nil
}
