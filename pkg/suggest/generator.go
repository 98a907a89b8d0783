package suggest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/covergate/covergate/pkg/analyzer"
)

const defaultMaxSuggestions = 50

// Options contains the input for building a test suggestion Generator.
type Options struct {
	// RepositoryPath is the root directory of the repository under analysis.
	RepositoryPath string
	// ModuleDir is the directory containing go.mod, relative to the repository root.
	ModuleDir string
	// Analyzer supplies the coverage gaps. Required.
	Analyzer *analyzer.Analyzer

	Logger logrus.FieldLogger
}

// Generator turns coverage gaps into prioritized, templated test suggestions.
type Generator struct {
	repositoryPath string
	moduleDir      string
	analyzer       *analyzer.Analyzer

	structures map[string]*fileStructure

	logger logrus.FieldLogger
}

// New creates a Generator from options.
func New(o *Options) *Generator {
	logger := o.Logger
	if logger == nil {
		logger = logrus.New()
	}

	return &Generator{
		repositoryPath: o.RepositoryPath,
		moduleDir:      o.ModuleDir,
		analyzer:       o.Analyzer,
		structures:     make(map[string]*fileStructure),
		logger:         logger.WithField("source", "suggest"),
	}
}

// GenerateSuggestions derives test suggestions from the current coverage
// gaps, sorted by priority then complexity, both descending, truncated to
// maxCount. A maxCount of zero or below applies the default limit.
func (g *Generator) GenerateSuggestions(maxCount int) []Suggestion {
	if maxCount <= 0 {
		maxCount = defaultMaxSuggestions
	}

	if !g.analyzer.Loaded() && !g.analyzer.Load() {
		return nil
	}

	gapsByFile := make(map[string][]analyzer.CoverageGap)
	var fileOrder []string
	for _, gap := range g.analyzer.AnalyzeGaps() {
		if _, ok := gapsByFile[gap.FilePath]; !ok {
			fileOrder = append(fileOrder, gap.FilePath)
		}
		gapsByFile[gap.FilePath] = append(gapsByFile[gap.FilePath], gap)
	}

	pathByImport := make(map[string]string)
	for _, fc := range g.analyzer.Files() {
		pathByImport[fc.ImportPath] = fc.Path
	}

	var suggestions []Suggestion
	for _, file := range fileOrder {
		fileSuggestions, err := g.fileSuggestions(file, pathByImport[file], gapsByFile[file])
		if err != nil {
			g.logger.WithError(err).Warnf("analyze %s, file skipped", file)
			continue
		}
		suggestions = append(suggestions, fileSuggestions...)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		ri, rj := priorityRank[suggestions[i].Priority], priorityRank[suggestions[j].Priority]
		if ri != rj {
			return ri > rj
		}
		return suggestions[i].Complexity > suggestions[j].Complexity
	})

	if len(suggestions) > maxCount {
		suggestions = suggestions[:maxCount]
	}
	return suggestions
}

type scopeKey struct {
	typeName     string
	functionName string
}

func (g *Generator) fileSuggestions(importPath, path string, gaps []analyzer.CoverageGap) ([]Suggestion, error) {
	structure, err := g.structure(path)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}

	gapsByScope := make(map[scopeKey][]analyzer.CoverageGap)
	var scopeOrder []scopeKey
	for _, gap := range gaps {
		key := scopeKey{typeName: gap.TypeName, functionName: gap.FunctionName}
		if _, ok := gapsByScope[key]; !ok {
			scopeOrder = append(scopeOrder, key)
		}
		gapsByScope[key] = append(gapsByScope[key], gap)
	}

	var suggestions []Suggestion
	for _, scope := range scopeOrder {
		sig := structure.signature(scope.typeName, scope.functionName)
		suggestions = append(suggestions, g.scopeSuggestions(importPath, scope, gapsByScope[scope], sig)...)
	}
	return suggestions, nil
}

// scopeSuggestions emits one suggestion per gap type present in the scope,
// plus an edge-case suggestion when the signature carries parameters.
func (g *Generator) scopeSuggestions(importPath string, scope scopeKey, gaps []analyzer.CoverageGap, sig *FuncSignature) []Suggestion {
	gapsByType := make(map[analyzer.GapType][]analyzer.CoverageGap)
	var typeOrder []analyzer.GapType
	for _, gap := range gaps {
		if _, ok := gapsByType[gap.Type]; !ok {
			typeOrder = append(typeOrder, gap.Type)
		}
		gapsByType[gap.Type] = append(gapsByType[gap.Type], gap)
	}

	var suggestions []Suggestion
	for _, gapType := range typeOrder {
		suggestions = append(suggestions, g.suggestionForGapType(importPath, scope, gapType, gapsByType[gapType], sig))
	}

	if sig != nil && len(sig.Params) > 0 {
		suggestions = append(suggestions, g.edgeCaseSuggestion(importPath, scope, sig))
	}

	return suggestions
}

func (g *Generator) suggestionForGapType(importPath string, scope scopeKey, gapType analyzer.GapType, gaps []analyzer.CoverageGap, sig *FuncSignature) Suggestion {
	s := Suggestion{
		FilePath:     importPath,
		FunctionName: scope.functionName,
		TypeName:     scope.typeName,
		TargetLines:  gapLines(gaps),
		Complexity:   gapComplexity(gaps),
	}

	subject := scope.functionName
	if subject == "" {
		subject = "code"
	}

	switch gapType {
	case analyzer.MissingBranch:
		s.TestType = UnitTest
		s.Priority = PriorityMedium
		if hasSeverityAtLeast(gaps, analyzer.SeverityHigh) {
			s.Priority = PriorityHigh
		}
		s.TestName = testName(scope.functionName, "branch_coverage")
		s.Description = fmt.Sprintf("Test branch conditions in %s", subject)
		if len(gaps) > 1 {
			s.Description += fmt.Sprintf(" (%d uncovered branches)", len(gaps))
		}
		s.Template = branchTemplate(scope, sig)

	case analyzer.ExceptionHandling:
		// Panic recovery paths are always worth a test.
		s.TestType = ErrorHandlingTest
		s.Priority = PriorityHigh
		s.TestName = testName(scope.functionName, "exception_handling")
		s.Description = fmt.Sprintf("Test panic recovery in %s", subject)
		s.Template = exceptionTemplate(scope, sig)

	case analyzer.UncoveredFunction:
		s.TestType = UnitTest
		s.Priority = PriorityMedium
		s.TestName = testName(scope.functionName, "basic_functionality")
		s.Description = fmt.Sprintf("Test basic functionality of %s", orElse(scope.functionName, "function"))
		s.Template = functionTemplate(scope, sig)

	case analyzer.ErrorPath:
		s.TestType = EdgeCaseTest
		s.Priority = PriorityHigh
		s.TestName = testName(scope.functionName, "error_conditions")
		s.Description = fmt.Sprintf("Test error conditions and edge cases in %s", subject)
		s.Template = errorPathTemplate(scope, sig)

	default:
		s.TestType = UnitTest
		s.Priority = PriorityLow
		s.TestName = testName(scope.functionName, "coverage")
		s.Description = fmt.Sprintf("Improve test coverage for %s", subject)
		s.Template = genericTemplate(scope, sig)
	}

	return s
}

func (g *Generator) edgeCaseSuggestion(importPath string, scope scopeKey, sig *FuncSignature) Suggestion {
	return Suggestion{
		FilePath:     importPath,
		FunctionName: scope.functionName,
		TypeName:     scope.typeName,
		TestType:     EdgeCaseTest,
		Priority:     PriorityMedium,
		Description:  fmt.Sprintf("Test edge cases for %s parameters", orElse(scope.functionName, "function")),
		TestName:     testName(scope.functionName, "edge_cases"),
		Template:     edgeCaseTemplate(scope, sig),
		Complexity:   len(sig.Params),
	}
}

// MissingTestFiles scans the module for source files without a companion
// test file in the same directory (foo.go without foo_test.go), sorted by
// priority then complexity, both descending.
func (g *Generator) MissingTestFiles() ([]MissingTestFile, error) {
	root := filepath.Join(g.repositoryPath, g.moduleDir)

	var missing []MissingTestFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !isTestableSource(d.Name()) {
			return nil
		}

		testFile := strings.TrimSuffix(path, ".go") + "_test.go"
		if fileExists(testFile) {
			return nil
		}

		structure, err := g.structure(path)
		if err != nil {
			g.logger.WithError(err).Warnf("parse %s, file skipped", path)
			return nil
		}

		missing = append(missing, MissingTestFile{
			SourceFile:       path,
			ExpectedTestFile: testFile,
			Functions:        structure.functions,
			Types:            structure.types,
			Complexity:       structure.complexity(),
			Priority:         testFilePriority(structure.complexity()),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.SliceStable(missing, func(i, j int) bool {
		ri, rj := priorityRank[missing[i].Priority], priorityRank[missing[j].Priority]
		if ri != rj {
			return ri > rj
		}
		return missing[i].Complexity > missing[j].Complexity
	})
	return missing, nil
}

// testFilePriority ranks a source file by how much it declares.
func testFilePriority(complexity int) Priority {
	switch {
	case complexity > 10:
		return PriorityHigh
	case complexity > 5:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func isTestableSource(base string) bool {
	if !strings.HasSuffix(base, ".go") || strings.HasSuffix(base, "_test.go") {
		return false
	}
	if strings.HasPrefix(base, "mock_") || strings.HasPrefix(base, "zz_generated") {
		return false
	}
	return true
}

func (g *Generator) structure(path string) (*fileStructure, error) {
	if structure, ok := g.structures[path]; ok {
		return structure, nil
	}
	structure, err := parseFileStructure(path)
	if err != nil {
		return nil, err
	}
	g.structures[path] = structure
	return structure, nil
}

func gapLines(gaps []analyzer.CoverageGap) []int {
	lines := make([]int, 0, len(gaps))
	for _, gap := range gaps {
		lines = append(lines, gap.LineStart)
	}
	return lines
}

func gapComplexity(gaps []analyzer.CoverageGap) int {
	var total int
	for _, gap := range gaps {
		if gap.Complexity > 0 {
			total += gap.Complexity
		} else {
			total++
		}
	}
	return total
}

func hasSeverityAtLeast(gaps []analyzer.CoverageGap, severity analyzer.Severity) bool {
	for _, gap := range gaps {
		if gap.Severity == severity || gap.Severity == analyzer.SeverityCritical {
			return true
		}
	}
	return false
}

func testName(functionName, suffix string) string {
	if functionName == "" {
		return suffix
	}
	return functionName + "_" + suffix
}

func orElse(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
