package ci

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportJUnit(t *testing.T) {
	result := &RunResult{
		QualityGates: &GateTally{
			Results: []GateResult{
				{Name: "MinimumLineCoverage", Passed: true, Message: "MinimumLineCoverage passed: 85.0 gte 80"},
				{Name: "MaximumCriticalGaps", Passed: false, Message: "MaximumCriticalGaps failed: 7.0 not lte 5 (diff: 2.0)"},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "gates.xml")
	require.NoError(t, ExportJUnit(result, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), xml.Header)

	var suite junitTestSuite
	require.NoError(t, xml.Unmarshal(data, &suite))

	assert.Equal(t, "Coverage Analysis", suite.Name)
	assert.Equal(t, 2, suite.Tests)
	assert.Equal(t, 1, suite.Failures)
	require.Len(t, suite.TestCases, 2)

	assert.Equal(t, "QualityGate.MinimumLineCoverage", suite.TestCases[0].Name)
	assert.Equal(t, "CoverageAnalysis", suite.TestCases[0].ClassName)
	assert.Nil(t, suite.TestCases[0].Failure)

	require.NotNil(t, suite.TestCases[1].Failure)
	assert.Contains(t, suite.TestCases[1].Failure.Message, "MaximumCriticalGaps failed")
}

func TestExportJUnitNoGates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gates.xml")
	require.NoError(t, ExportJUnit(&RunResult{}, path))

	var suite junitTestSuite
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, xml.Unmarshal(data, &suite))
	assert.Zero(t, suite.Tests)
}
