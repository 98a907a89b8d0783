package suggest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covergate/covergate/pkg/analyzer"
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

func newDemoGenerator(t *testing.T) (*Generator, string) {
	t.Helper()
	repoDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "go.mod"), []byte("module example.com/demo\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "demo.go"), []byte(demoSource), 0o644))

	profilePath := filepath.Join(repoDir, "coverage.out")
	require.NoError(t, os.WriteFile(profilePath, []byte(demoProfile), 0o644))

	cov := analyzer.New(&analyzer.Options{
		CoverProfiles:  []string{profilePath},
		RepositoryPath: repoDir,
		Logger:         logrus.New(),
	})

	return New(&Options{
		RepositoryPath: repoDir,
		Analyzer:       cov,
		Logger:         logrus.New(),
	}), repoDir
}

func TestGenerateSuggestions(t *testing.T) {
	t.Run("derives suggestions from gaps", func(t *testing.T) {
		gen, _ := newDemoGenerator(t)

		suggestions := gen.GenerateSuggestions(0)
		// the single error-path gap in Validate yields the gap-type
		// suggestion plus the parameter edge-case one
		require.Len(t, suggestions, 2)

		errorPath := suggestions[0]
		assert.Equal(t, "example.com/demo/demo.go", errorPath.FilePath)
		assert.Equal(t, "Validate", errorPath.FunctionName)
		assert.Equal(t, EdgeCaseTest, errorPath.TestType)
		assert.Equal(t, PriorityHigh, errorPath.Priority)
		assert.Equal(t, "Validate_error_conditions", errorPath.TestName)
		assert.Equal(t, []int{14}, errorPath.TargetLines)
		assert.Contains(t, errorPath.Template, "TestValidate_Errors")

		edge := suggestions[1]
		assert.Equal(t, PriorityMedium, edge.Priority)
		assert.Equal(t, "Validate_edge_cases", edge.TestName)
		assert.Contains(t, edge.Template, `{name: "zero x"}`)
	})

	t.Run("truncates to max count", func(t *testing.T) {
		gen, _ := newDemoGenerator(t)
		suggestions := gen.GenerateSuggestions(1)
		require.Len(t, suggestions, 1)
		// highest priority survives truncation
		assert.Equal(t, PriorityHigh, suggestions[0].Priority)
	})

	t.Run("unloadable coverage yields nothing", func(t *testing.T) {
		cov := analyzer.New(&analyzer.Options{
			CoverProfiles:  []string{"/nonexist/coverage.out"},
			RepositoryPath: t.TempDir(),
			Logger:         logrus.New(),
		})
		gen := New(&Options{Analyzer: cov, Logger: logrus.New()})
		assert.Empty(t, gen.GenerateSuggestions(10))
	})
}

func TestSuggestionForGapType(t *testing.T) {
	gen, _ := newDemoGenerator(t)
	scope := scopeKey{functionName: "Validate"}
	sig := &FuncSignature{Name: "Validate", Params: []Param{{Name: "x", Type: "int"}}, Results: 1, ReturnsError: true}

	var testSuites = []struct {
		gapType        analyzer.GapType
		gaps           []analyzer.CoverageGap
		expectType     TestType
		expectPriority Priority
		expectName     string
	}{
		{
			gapType:        analyzer.MissingBranch,
			gaps:           []analyzer.CoverageGap{{Type: analyzer.MissingBranch, Severity: analyzer.SeverityLow}},
			expectType:     UnitTest,
			expectPriority: PriorityMedium,
			expectName:     "Validate_branch_coverage",
		},
		{
			gapType:        analyzer.MissingBranch,
			gaps:           []analyzer.CoverageGap{{Type: analyzer.MissingBranch, Severity: analyzer.SeverityHigh}},
			expectType:     UnitTest,
			expectPriority: PriorityHigh,
			expectName:     "Validate_branch_coverage",
		},
		{
			gapType:        analyzer.ExceptionHandling,
			gaps:           []analyzer.CoverageGap{{Type: analyzer.ExceptionHandling}},
			expectType:     ErrorHandlingTest,
			expectPriority: PriorityHigh,
			expectName:     "Validate_exception_handling",
		},
		{
			gapType:        analyzer.UncoveredFunction,
			gaps:           []analyzer.CoverageGap{{Type: analyzer.UncoveredFunction}},
			expectType:     UnitTest,
			expectPriority: PriorityMedium,
			expectName:     "Validate_basic_functionality",
		},
		{
			gapType:        analyzer.ErrorPath,
			gaps:           []analyzer.CoverageGap{{Type: analyzer.ErrorPath}},
			expectType:     EdgeCaseTest,
			expectPriority: PriorityHigh,
			expectName:     "Validate_error_conditions",
		},
		{
			gapType:        analyzer.UncoveredLines,
			gaps:           []analyzer.CoverageGap{{Type: analyzer.UncoveredLines}},
			expectType:     UnitTest,
			expectPriority: PriorityLow,
			expectName:     "Validate_coverage",
		},
	}

	for _, testSuite := range testSuites {
		s := gen.suggestionForGapType("example.com/demo/demo.go", scope, testSuite.gapType, testSuite.gaps, sig)
		assert.Equal(t, testSuite.expectType, s.TestType, "gap type %s", testSuite.gapType)
		assert.Equal(t, testSuite.expectPriority, s.Priority, "gap type %s", testSuite.gapType)
		assert.Equal(t, testSuite.expectName, s.TestName, "gap type %s", testSuite.gapType)
		assert.NotEmpty(t, s.Template, "gap type %s", testSuite.gapType)
	}
}

func TestMissingTestFiles(t *testing.T) {
	gen, repoDir := newDemoGenerator(t)

	// a tested file must not be reported
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "covered.go"), []byte("package demo\n\nfunc Covered() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "covered_test.go"), []byte("package demo\n"), 0o644))
	// mocks and generated code never count
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "mock_thing.go"), []byte("package demo\n\nfunc M() {}\n"), 0o644))

	missing, err := gen.MissingTestFiles()
	require.NoError(t, err)
	require.Len(t, missing, 1)

	m := missing[0]
	assert.Equal(t, filepath.Join(repoDir, "demo.go"), m.SourceFile)
	assert.Equal(t, filepath.Join(repoDir, "demo_test.go"), m.ExpectedTestFile)
	assert.Equal(t, []string{"Add", "Validate"}, m.Functions)
	assert.Equal(t, 2, m.Complexity)
	assert.Equal(t, PriorityLow, m.Priority)
}

func TestTestFilePriority(t *testing.T) {
	assert.Equal(t, PriorityLow, testFilePriority(2))
	assert.Equal(t, PriorityLow, testFilePriority(5))
	assert.Equal(t, PriorityMedium, testFilePriority(6))
	assert.Equal(t, PriorityMedium, testFilePriority(10))
	assert.Equal(t, PriorityHigh, testFilePriority(11))
}

func TestFullTestName(t *testing.T) {
	s := &Suggestion{TestName: "validate_edge_cases"}
	assert.Equal(t, "TestValidate_edge_cases", s.FullTestName())

	s = &Suggestion{TestName: "render", TypeName: "Widget"}
	assert.Equal(t, "TestWidget_Render", s.FullTestName())
}
