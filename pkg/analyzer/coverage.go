package analyzer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/cover"
)

// FileCoverage carries the raw per-file measurements derived from cover
// profiles: which lines ran, which did not, and the branch arc counts.
// Each profile block is treated as one branch arc; the arc is covered when
// its execution count is positive.
type FileCoverage struct {
	// ImportPath is the file name as it appears in the cover profile.
	ImportPath string
	// Path is the resolved location of the file on disk.
	Path string

	ExecutedLines map[int]bool
	MissingLines  map[int]bool

	TotalArcs   int
	CoveredArcs int
}

// LinePercent returns the executed line percentage for this file.
func (f *FileCoverage) LinePercent() float64 {
	total := len(f.ExecutedLines) + len(f.MissingLines)
	if total == 0 {
		return 0
	}
	return float64(len(f.ExecutedLines)) / float64(total) * 100
}

// SortedMissingLines returns the missing line numbers in ascending order.
func (f *FileCoverage) SortedMissingLines() []int {
	return sortedKeys(f.MissingLines)
}

func sortedKeys(set map[int]bool) []int {
	lines := make([]int, 0, len(set))
	for line := range set {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

var ErrModuleNotFound = errors.New("cannot find module path")

// parseGoModulePath uses modfile package to parse go module path
func parseGoModulePath(goModDir string) (string, error) {
	goModFilename := filepath.Join(goModDir, "go.mod")
	bs, err := os.ReadFile(goModFilename)
	if err != nil {
		return "", err
	}

	result := modfile.ModulePath(bs)
	if result == "" {
		return "", fmt.Errorf("%w: %s", ErrModuleNotFound, goModFilename)
	}

	return result, nil
}

// loadProfiles converts cover profiles into per-file coverage, keyed by the
// profile file name.
func loadProfiles(profiles []*cover.Profile, modulePath, repositoryPath string) map[string]*FileCoverage {
	files := make(map[string]*FileCoverage)

	for _, profile := range profiles {
		fc, ok := files[profile.FileName]
		if !ok {
			fc = &FileCoverage{
				ImportPath:    profile.FileName,
				Path:          resolveSourcePath(profile.FileName, modulePath, repositoryPath),
				ExecutedLines: make(map[int]bool),
				MissingLines:  make(map[int]bool),
			}
			files[profile.FileName] = fc
		}

		for _, block := range profile.Blocks {
			fc.TotalArcs++
			if block.Count > 0 {
				fc.CoveredArcs++
			}
			for line := block.StartLine; line <= block.EndLine; line++ {
				if block.Count > 0 {
					fc.ExecutedLines[line] = true
				} else {
					fc.MissingLines[line] = true
				}
			}
		}
	}

	// A line can appear in both a covered and an uncovered block when
	// blocks share a boundary line. Executed wins.
	for _, fc := range files {
		for line := range fc.ExecutedLines {
			delete(fc.MissingLines, line)
		}
	}

	return files
}

// resolveSourcePath maps a profile file name (an import path) to a location
// on disk by trimming the module path against the repository root.
func resolveSourcePath(profileName, modulePath, repositoryPath string) string {
	if modulePath != "" && strings.HasPrefix(profileName, modulePath) {
		rel := strings.TrimPrefix(profileName, modulePath)
		return filepath.Join(repositoryPath, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	}
	return filepath.Join(repositoryPath, filepath.FromSlash(profileName))
}

// isSourceFile reports whether the file takes part in the analysis.
// Test files, mocks and generated code never count.
func isSourceFile(importPath string, excludes []string) bool {
	base := filepath.Base(importPath)
	if !strings.HasSuffix(base, ".go") {
		return false
	}
	if strings.HasSuffix(base, "_test.go") {
		return false
	}
	if strings.HasPrefix(base, "mock_") || strings.HasPrefix(base, "zz_generated") {
		return false
	}
	for _, pattern := range excludes {
		if ok, err := doublestar.Match(pattern, importPath); err == nil && ok {
			return false
		}
	}
	return true
}
