package suggest

import (
	"fmt"
	"strings"
)

// TestType categorizes a suggested test.
type TestType string

const (
	UnitTest          TestType = "unit"
	IntegrationTest   TestType = "integration"
	EdgeCaseTest      TestType = "edge_case"
	ErrorHandlingTest TestType = "error_handling"
)

// Priority ranks how urgent writing a suggested test is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityHigh:   3,
	PriorityMedium: 2,
	PriorityLow:    1,
}

// Suggestion is one proposed test to close a coverage gap. Computed fresh
// per run, never persisted.
type Suggestion struct {
	FilePath     string   `json:"file"`
	FunctionName string   `json:"function,omitempty"`
	TypeName     string   `json:"class,omitempty"`
	TestType     TestType `json:"type"`
	Priority     Priority `json:"priority"`
	Description  string   `json:"description"`
	TestName     string   `json:"test_name"`
	Template     string   `json:"-"`
	TargetLines  []int    `json:"target_lines,omitempty"`
	Complexity   int      `json:"complexity"`
}

// FullTestName generates the final Go test function name, prefixing the
// receiver type when the suggestion targets a method.
func (s *Suggestion) FullTestName() string {
	if s.TypeName != "" {
		return fmt.Sprintf("Test%s_%s", s.TypeName, exportName(s.TestName))
	}
	return fmt.Sprintf("Test%s", exportName(s.TestName))
}

func exportName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// MissingTestFile describes a source file that lacks its conventional
// companion test file.
type MissingTestFile struct {
	SourceFile       string   `json:"source_file"`
	ExpectedTestFile string   `json:"expected_test_file"`
	Functions        []string `json:"functions,omitempty"`
	Types            []string `json:"types,omitempty"`
	Complexity       int      `json:"complexity"`
	Priority         Priority `json:"priority"`
}
