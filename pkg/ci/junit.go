package ci

import (
	"encoding/xml"
	"fmt"
	"os"
)

type junitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Time      string          `xml:"time,attr"`
	TestCases []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

// ExportJUnit writes the run's gate results as a JUnit XML document: one
// test case per quality gate, failed gates carrying a failure element with
// the gate's message.
func ExportJUnit(result *RunResult, path string) error {
	suite := junitTestSuite{
		Name: "Coverage Analysis",
		Time: "0",
	}

	if result.QualityGates != nil {
		for _, gateResult := range result.QualityGates.Results {
			testCase := junitTestCase{
				Name:      "QualityGate." + gateResult.Name,
				ClassName: "CoverageAnalysis",
			}
			if !gateResult.Passed {
				testCase.Failure = &junitFailure{
					Message: gateResult.Message,
					Content: gateResult.Message,
				}
				suite.Failures++
			}
			suite.TestCases = append(suite.TestCases, testCase)
		}
		suite.Tests = len(suite.TestCases)
	}

	data, err := xml.MarshalIndent(suite, "", "    ")
	if err != nil {
		return fmt.Errorf("encode junit xml: %w", err)
	}

	document := append([]byte(xml.Header), data...)
	document = append(document, '\n')
	if err := os.WriteFile(path, document, 0o644); err != nil {
		return fmt.Errorf("write junit xml: %w", err)
	}
	return nil
}
