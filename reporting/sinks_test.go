package reporting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-coverage/types"
)

func reportFixture() *types.CoverageAnalysisResult {
	summary := types.CoverageSummary{TotalLines: 100, CoveredLines: 75, TotalMethods: 10, CoveredMethods: 8}
	summary.Finalize()

	fileSummary := types.CoverageSummary{TotalLines: 100, CoveredLines: 75}
	fileSummary.Finalize()

	return &types.CoverageAnalysisResult{
		Success:   true,
		Timestamp: time.Now(),
		Duration:  1500 * time.Millisecond,
		Summary:   summary,
		Projects: []types.ProjectCoverage{{
			Name:    "Example.Core",
			Summary: summary,
			Files:   []types.FileCoverage{{Path: "Calculator.cs", Summary: fileSummary}},
		}},
		TestResults: types.TestExecutionSummary{
			TotalTests:  10,
			PassedTests: 9,
			FailedTests: 1,
			Failures: []types.TestFailure{{
				Name:    "Divides",
				Class:   "Example.Tests.CalculatorTests",
				Message: "Assert.Equal() Failure",
			}},
		},
	}
}

func TestTextSummarySink(t *testing.T) {
	base := t.TempDir()
	sink := NewTextSummarySink(base, false)

	require.NoError(t, sink.Complete("run-1", reportFixture()))

	data, err := os.ReadFile(filepath.Join(base, "run-1", "summary.log"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Coverage Analysis SUCCESS")
	assert.Contains(t, content, "Lines:    75/100 (75.00%)")
	assert.Contains(t, content, "Example.Core: 75.00% lines")
	assert.Contains(t, content, "Calculator.cs")
	assert.Contains(t, content, "Example.Tests.CalculatorTests.Divides")
}

func TestTextSummarySink_FailedRun(t *testing.T) {
	base := t.TempDir()
	sink := NewTextSummarySink(base, false)

	result := reportFixture()
	result.Success = false
	result.ErrorMessage = "all 2 test projects failed"
	require.NoError(t, sink.Complete("run-2", result))

	data, err := os.ReadFile(filepath.Join(base, "run-2", "summary.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Coverage Analysis FAILED")
	assert.Contains(t, string(data), "all 2 test projects failed")
}

func TestHTMLSink(t *testing.T) {
	base := t.TempDir()
	sink, err := NewHTMLSink(base, "")
	require.NoError(t, err)

	require.NoError(t, sink.Complete("run-1", reportFixture()))

	data, err := os.ReadFile(filepath.Join(base, "run-1", "results.html"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "<title>Coverage Report run-1</title>")
	assert.Contains(t, content, "75.00%")
	assert.Contains(t, content, "Example.Core")
	assert.Contains(t, content, `class="medium"`, "75% lines should land in the amber bucket")
	assert.Contains(t, content, `class="high"`, "80% methods should land in the green bucket")
}

func TestHTMLSink_CustomTemplate(t *testing.T) {
	base := t.TempDir()
	sink, err := NewHTMLSink(base, `run {{.RunID}}: {{formatPct .Result.Summary.LinesCoveredPercentage}}`)
	require.NoError(t, err)

	require.NoError(t, sink.Complete("run-9", reportFixture()))

	data, err := os.ReadFile(filepath.Join(base, "run-9", "results.html"))
	require.NoError(t, err)
	assert.Equal(t, "run run-9: 75.00%", string(data))
}

func TestHTMLSink_BadTemplate(t *testing.T) {
	_, err := NewHTMLSink(t.TempDir(), "{{.Unclosed")
	assert.Error(t, err)
}

func TestPercentClass(t *testing.T) {
	assert.Equal(t, "high", percentClass(100))
	assert.Equal(t, "high", percentClass(80))
	assert.Equal(t, "medium", percentClass(79.99))
	assert.Equal(t, "medium", percentClass(50))
	assert.Equal(t, "low", percentClass(49.99))
	assert.Equal(t, "low", percentClass(0))
}
