package analyzer

import "strings"

// The classification below works on raw source lines. The rules are ordered
// and the first match wins, so keep the tables in priority order.

type gapTypeRule struct {
	matches func(line string) bool
	gapType GapType
}

func containsAny(line string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

var gapTypeRules = []gapTypeRule{
	{
		matches: func(line string) bool { return containsAny(line, "if ", "else if ") },
		gapType: MissingBranch,
	},
	{
		matches: func(line string) bool { return strings.Contains(line, "recover(") },
		gapType: ExceptionHandling,
	},
	{
		matches: func(line string) bool { return strings.Contains(line, "func ") },
		gapType: UncoveredFunction,
	},
	{
		matches: func(line string) bool {
			return strings.Contains(line, "type ") &&
				containsAny(line, "struct {", "struct{", "interface {", "interface{")
		},
		gapType: UncoveredClass,
	},
	{
		matches: func(line string) bool {
			return containsAny(line, "panic(", "return err", "errors.New", "fmt.Errorf")
		},
		gapType: ErrorPath,
	},
}

// classifyGapType classifies the kind of gap a missing source line represents.
func classifyGapType(line string) GapType {
	for _, rule := range gapTypeRules {
		if rule.matches(line) {
			return rule.gapType
		}
	}
	return UncoveredLines
}

var (
	// criticalKeywords flag error handling and security sensitive code.
	criticalKeywords = []string{"panic(", "recover(", "fatal", "auth", "password", "token", "secret", "credential"}
	// highKeywords flag business logic and data validation.
	highKeywords = []string{"if ", "else if ", "valid", "check", "verify"}
	// mediumFunctionKeywords flag utility scopes by their function name.
	mediumFunctionKeywords = []string{"format", "convert", "parse", "util"}
)

// classifySeverity determines the severity of a coverage gap from the line
// text and its enclosing scope. Deterministic: same inputs, same answer.
func classifySeverity(line, functionName string) Severity {
	lowered := strings.ToLower(line)
	if containsAny(lowered, criticalKeywords...) {
		return SeverityCritical
	}
	if containsAny(line, highKeywords...) {
		return SeverityHigh
	}
	if functionName != "" && containsAny(strings.ToLower(functionName), mediumFunctionKeywords...) {
		return SeverityMedium
	}
	return SeverityLow
}

// lineComplexity scores a single line: 1 plus one point per branching or
// logical-operator token found on it.
func lineComplexity(line string) int {
	complexity := 1
	for _, token := range []string{"if ", "for ", "switch ", "select ", "case ", "&&", "||"} {
		complexity += strings.Count(line, token)
	}
	return complexity
}

// suggestTestsForLine produces short per-gap test hints shown in reports.
func suggestTestsForLine(line, functionName string) []string {
	trimmed := strings.TrimSpace(line)
	var suggestions []string

	if containsAny(line, "if ", "else if ") {
		suggestions = append(suggestions, "Test both true and false conditions for: "+trimmed)
	}
	if strings.Contains(line, "recover(") {
		suggestions = append(suggestions, "Test panic recovery: "+trimmed)
	}
	if functionName != "" {
		suggestions = append(suggestions, "Test function '"+functionName+"' with edge cases")
	}
	if containsAny(line, "panic(", "return err") {
		suggestions = append(suggestions, "Test error condition that triggers: "+trimmed)
	}

	return suggestions
}

// isCodeLine reports whether a source line counts for coverage purposes,
// filtering blank lines and comments.
func isCodeLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && !strings.HasPrefix(trimmed, "//")
}
