package suggest

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Test skeletons are emitted as plain source text for a developer to fill
// in. Each helper returns one or more test functions; RenderTemplate wraps
// them into a complete _test.go file.

func branchTemplate(scope scopeKey, sig *FuncSignature) string {
	name := goTestName(scope)
	call := callHint(scope, sig)

	return fmt.Sprintf(`func %s_TrueBranch(t *testing.T) {
	// TODO: arrange inputs that take the uncovered branch
	%s
	// TODO: assert the branch outcome
}

func %s_FalseBranch(t *testing.T) {
	// TODO: arrange inputs for the opposite branch
	%s
	// TODO: assert the branch outcome
}`, name, call, name, call)
}

func exceptionTemplate(scope scopeKey, sig *FuncSignature) string {
	name := goTestName(scope)
	call := callHint(scope, sig)

	return fmt.Sprintf(`func %s_RecoversFromPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		// TODO: arrange inputs that trigger the recover path
		%s
	})
}`, name, call)
}

func functionTemplate(scope scopeKey, sig *FuncSignature) string {
	name := goTestName(scope)

	var checks string
	if sig != nil && sig.ReturnsError {
		checks = "\n\trequire.NoError(t, err)\n\t// TODO: assert the returned values"
	} else {
		checks = "\n\t// TODO: assert the returned values"
	}

	return fmt.Sprintf(`func %s(t *testing.T) {
	// TODO: arrange inputs
	%s%s
}`, name, callHint(scope, sig), checks)
}

func errorPathTemplate(scope scopeKey, sig *FuncSignature) string {
	name := goTestName(scope)
	call := callHint(scope, sig)

	if sig != nil && sig.ReturnsError {
		return fmt.Sprintf(`func %s_Errors(t *testing.T) {
	// TODO: arrange inputs that make the call fail
	%s
	require.Error(t, err)
}`, name, call)
	}

	return fmt.Sprintf(`func %s_Errors(t *testing.T) {
	// TODO: exercise invalid input and boundary conditions
	%s
}`, name, call)
}

func genericTemplate(scope scopeKey, sig *FuncSignature) string {
	return fmt.Sprintf(`func %s_Coverage(t *testing.T) {
	// TODO: cover the remaining uncovered lines
	%s
}`, goTestName(scope), callHint(scope, sig))
}

// edgeCaseTemplate emits a table-driven skeleton with one case per
// parameter of the target signature.
func edgeCaseTemplate(scope scopeKey, sig *FuncSignature) string {
	var cases strings.Builder
	for _, param := range sig.Params {
		if param.Name == "" || param.Name == "_" {
			continue
		}
		fmt.Fprintf(&cases, "\t\t{name: %q},\n", "zero "+param.Name)
		fmt.Fprintf(&cases, "\t\t{name: %q},\n", "boundary "+param.Name)
	}
	if cases.Len() == 0 {
		cases.WriteString("\t\t{name: \"edge case\"},\n")
	}

	return fmt.Sprintf(`func %s_EdgeCases(t *testing.T) {
	testcases := []struct {
		name string
		// TODO: declare inputs and expectations
	}{
%s	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			%s
			// TODO: assert expectations
		})
	}
}`, goTestName(scope), cases.String(), callHint(scope, sig))
}

// RenderTemplate assembles a complete test file around a suggestion's
// skeleton: package clause, imports, then the test functions.
func RenderTemplate(s *Suggestion) string {
	var b strings.Builder

	fmt.Fprintf(&b, "package %s\n\n", packageNameOf(s.FilePath))
	b.WriteString("import (\n")
	for _, imp := range templateImports(s) {
		fmt.Fprintf(&b, "\t%q\n", imp)
	}
	b.WriteString(")\n\n")
	b.WriteString(s.Template)
	b.WriteString("\n")

	return b.String()
}

func templateImports(s *Suggestion) []string {
	imports := map[string]bool{"testing": true}

	switch s.TestType {
	case ErrorHandlingTest:
		imports["github.com/stretchr/testify/assert"] = true
		imports["github.com/stretchr/testify/mock"] = true
	case IntegrationTest:
		imports["github.com/stretchr/testify/require"] = true
		imports["github.com/stretchr/testify/suite"] = true
	default:
		if strings.Contains(s.Template, "require.") {
			imports["github.com/stretchr/testify/require"] = true
		}
		if strings.Contains(s.Template, "assert.") {
			imports["github.com/stretchr/testify/assert"] = true
		}
	}

	result := make([]string, 0, len(imports))
	for imp := range imports {
		result = append(result, imp)
	}
	sort.Strings(result)
	return result
}

// packageNameOf guesses the package a test file belongs to from the source
// file's directory.
func packageNameOf(filePath string) string {
	dir := path.Base(path.Dir(strings.ReplaceAll(filePath, "\\", "/")))
	if dir == "." || dir == "/" || dir == "" {
		return "main"
	}
	return strings.ReplaceAll(strings.ToLower(dir), "-", "")
}

// goTestName builds the conventional Go test name for a scope,
// Test<Type>_<Function> for methods and Test<Function> otherwise.
func goTestName(scope scopeKey) string {
	switch {
	case scope.typeName != "" && scope.functionName != "":
		return "Test" + exportName(scope.typeName) + "_" + exportName(scope.functionName)
	case scope.typeName != "":
		return "Test" + exportName(scope.typeName)
	case scope.functionName != "":
		return "Test" + exportName(scope.functionName)
	default:
		return "TestCode"
	}
}

// callHint writes the invocation a developer fills in, as a comment when
// the signature is unknown.
func callHint(scope scopeKey, sig *FuncSignature) string {
	if sig == nil {
		return "// TODO: call the code under test"
	}

	args := make([]string, 0, len(sig.Params))
	for _, param := range sig.Params {
		name := param.Name
		if name == "" || name == "_" {
			name = "nil"
		}
		args = append(args, name)
	}

	call := fmt.Sprintf("%s(%s)", sig.Name, strings.Join(args, ", "))
	if sig.Receiver != "" {
		call = "target." + call
	}

	switch {
	case sig.ReturnsError && sig.Results > 1:
		return "got, err := " + call + " // TODO: declare the arguments"
	case sig.ReturnsError:
		return "err := " + call + " // TODO: declare the arguments"
	case sig.Results > 0:
		return "got := " + call + " // TODO: declare the arguments"
	default:
		return call + " // TODO: declare the arguments"
	}
}
