package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

// writeDemoRepo lays out a minimal measured repository: go.mod, one
// source file and a cover profile referencing it by import path.
func writeDemoRepo(t *testing.T) (repoDir, profilePath string) {
	t.Helper()
	repoDir = t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "go.mod"), []byte("module example.com/demo\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "demo.go"), []byte(demoSource), 0o644))

	profilePath = filepath.Join(repoDir, "coverage.out")
	require.NoError(t, os.WriteFile(profilePath, []byte(demoProfile), 0o644))
	return repoDir, profilePath
}

func newDemoAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	repoDir, profilePath := writeDemoRepo(t)
	return New(&Options{
		CoverProfiles:  []string{profilePath},
		RepositoryPath: repoDir,
		Logger:         logrus.New(),
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads demo repository", func(t *testing.T) {
		a := newDemoAnalyzer(t)
		assert.False(t, a.Loaded())
		require.True(t, a.Load())
		assert.True(t, a.Loaded())

		files := a.Files()
		require.Len(t, files, 1)
		fc := files[0]

		// line 13 sits on the boundary of a covered and an uncovered
		// block, executed wins
		assert.True(t, fc.ExecutedLines[13])
		assert.False(t, fc.MissingLines[13])
		assert.Equal(t, []int{14}, fc.SortedMissingLines())

		assert.Equal(t, 4, fc.TotalArcs)
		assert.Equal(t, 3, fc.CoveredArcs)
	})

	t.Run("missing profile", func(t *testing.T) {
		a := New(&Options{
			CoverProfiles:  []string{"/nonexist/coverage.out"},
			RepositoryPath: t.TempDir(),
			Logger:         logrus.New(),
		})
		assert.False(t, a.Load())
		assert.False(t, a.Loaded())
	})

	t.Run("empty profile list", func(t *testing.T) {
		a := New(&Options{RepositoryPath: t.TempDir(), Logger: logrus.New()})
		assert.False(t, a.Load())
	})
}

func TestAnalyzeGaps(t *testing.T) {
	a := newDemoAnalyzer(t)
	require.True(t, a.Load())

	gaps := a.AnalyzeGaps()
	require.Len(t, gaps, 1)

	gap := gaps[0]
	assert.Equal(t, "example.com/demo/demo.go", gap.FilePath)
	assert.Equal(t, 14, gap.LineStart)
	assert.Equal(t, ErrorPath, gap.Type)
	assert.Equal(t, SeverityHigh, gap.Severity)
	assert.Equal(t, "Validate", gap.FunctionName)
	assert.Empty(t, gap.TypeName)
	assert.NotEmpty(t, gap.SuggestedTests)
}

func TestAnalyzeGapsUnloaded(t *testing.T) {
	a := newDemoAnalyzer(t)
	assert.Nil(t, a.AnalyzeGaps())
}

func TestCalculateQualityMetrics(t *testing.T) {
	t.Run("unloaded yields zero snapshot", func(t *testing.T) {
		a := newDemoAnalyzer(t)
		metrics := a.CalculateQualityMetrics(nil)
		assert.Zero(t, metrics.LineCoveragePercent)
		assert.Zero(t, metrics.TotalGaps)
		assert.Equal(t, TrendStable, metrics.CoverageTrend)
	})

	t.Run("demo repository", func(t *testing.T) {
		a := newDemoAnalyzer(t)
		require.True(t, a.Load())

		metrics := a.CalculateQualityMetrics(nil)
		assert.InDelta(t, 87.5, metrics.LineCoveragePercent, 0.01)
		assert.InDelta(t, 75.0, metrics.BranchCoveragePercent, 0.01)
		// both function declaration lines executed
		assert.InDelta(t, 100.0, metrics.FunctionCoveragePercent, 0.01)
		assert.Equal(t, 1, metrics.TotalGaps)
		assert.Equal(t, 0, metrics.CriticalGaps)
		assert.Equal(t, 1, metrics.HighPriorityGaps)

		score := metrics.OverallScore()
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	})

	t.Run("history drives trend", func(t *testing.T) {
		a := newDemoAnalyzer(t)
		require.True(t, a.Load())

		metrics := a.CalculateQualityMetrics([]float64{50, 60, 70, 80, 90})
		assert.Equal(t, TrendImproving, metrics.CoverageTrend)

		metrics = a.CalculateQualityMetrics([]float64{90, 80, 70, 60, 50})
		assert.Equal(t, TrendDeclining, metrics.CoverageTrend)

		metrics = a.CalculateQualityMetrics([]float64{80})
		assert.Equal(t, TrendStable, metrics.CoverageTrend)
	})
}

func TestIgnoreDirectives(t *testing.T) {
	t.Run("file directive drops the file", func(t *testing.T) {
		repoDir, profilePath := writeDemoRepo(t)
		source := "package demo\n\n//+covergate:ignore:file\n" + demoSource[len("package demo\n"):]
		require.NoError(t, os.WriteFile(filepath.Join(repoDir, "demo.go"), []byte(source), 0o644))

		a := New(&Options{
			CoverProfiles:  []string{profilePath},
			RepositoryPath: repoDir,
			Logger:         logrus.New(),
		})
		require.True(t, a.Load())
		assert.Empty(t, a.Files())
	})
}

func TestMetricLookup(t *testing.T) {
	m := &QualityMetrics{
		LineCoveragePercent: 82.5,
		CriticalGaps:        3,
	}

	value, ok := m.Metric("line_coverage")
	assert.True(t, ok)
	assert.Equal(t, 82.5, value)

	value, ok = m.Metric("critical_gaps")
	assert.True(t, ok)
	assert.Equal(t, 3.0, value)

	value, ok = m.Metric("no_such_metric")
	assert.False(t, ok)
	assert.Zero(t, value)
}

func TestClassifyGapType(t *testing.T) {
	var testSuites = []struct {
		line   string
		expect GapType
	}{
		{line: "	if x > 0 {", expect: MissingBranch},
		{line: "	} else if y < 0 {", expect: MissingBranch},
		{line: "	if r := recover(); r != nil {", expect: MissingBranch},
		{line: "	defer recover()", expect: ExceptionHandling},
		{line: "func Add(a, b int) int {", expect: UncoveredFunction},
		{line: "type Widget struct {", expect: UncoveredClass},
		{line: "	return err", expect: ErrorPath},
		{line: "	panic(\"boom\")", expect: ErrorPath},
		{line: "	x := 1", expect: UncoveredLines},
	}

	for _, testSuite := range testSuites {
		assert.Equal(t, testSuite.expect, classifyGapType(testSuite.line), "line: %s", testSuite.line)
	}
}

func TestClassifySeverity(t *testing.T) {
	var testSuites = []struct {
		line         string
		functionName string
		expect       Severity
	}{
		{line: "	panic(\"boom\")", expect: SeverityCritical},
		{line: "	token := req.Header.Get(key)", expect: SeverityCritical},
		{line: "	if x > 0 {", expect: SeverityHigh},
		{line: "	x := 1", functionName: "parseConfig", expect: SeverityMedium},
		{line: "	x := 1", functionName: "Run", expect: SeverityLow},
		{line: "	x := 1", expect: SeverityLow},
	}

	for _, testSuite := range testSuites {
		got := classifySeverity(testSuite.line, testSuite.functionName)
		assert.Equal(t, testSuite.expect, got, "line: %s", testSuite.line)
	}
}

func TestLineComplexity(t *testing.T) {
	assert.Equal(t, 1, lineComplexity("x := 1"))
	assert.Equal(t, 2, lineComplexity("if x > 0 {"))
	assert.Equal(t, 4, lineComplexity("if a && b || c {"))
}

func TestIsCodeLine(t *testing.T) {
	assert.True(t, isCodeLine("	return nil"))
	assert.False(t, isCodeLine(""))
	assert.False(t, isCodeLine("   "))
	assert.False(t, isCodeLine("	// comment"))
}

func TestScopeTree(t *testing.T) {
	dir := t.TempDir()
	source := `package demo

type Widget struct {
	Name string
}

func (w *Widget) Render() string {
	return w.Name
}

func Standalone() int {
	return 1
}
`
	path := filepath.Join(dir, "widget.go")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	tree, err := ParseScopes(path)
	require.NoError(t, err)

	funcs := tree.Functions()
	require.Len(t, funcs, 2)
	assert.Equal(t, "Render", funcs[0].Name)
	assert.Equal(t, "Widget", funcs[0].Receiver)
	assert.Equal(t, "Standalone", funcs[1].Name)

	functionName, typeName := tree.Enclosing(8)
	assert.Equal(t, "Render", functionName)
	assert.Equal(t, "Widget", typeName)

	functionName, typeName = tree.Enclosing(12)
	assert.Equal(t, "Standalone", functionName)
	assert.Empty(t, typeName)

	functionName, typeName = tree.Enclosing(4)
	assert.Empty(t, functionName)
	assert.Equal(t, "Widget", typeName)

	functionName, typeName = tree.Enclosing(100)
	assert.Empty(t, functionName)
	assert.Empty(t, typeName)
}
