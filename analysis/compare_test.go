package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-coverage/types"
)

func snapshotWithLines(total, covered int) *types.CoverageAnalysisResult {
	summary := types.CoverageSummary{TotalLines: total, CoveredLines: covered}
	summary.Finalize()
	return &types.CoverageAnalysisResult{Success: true, Summary: summary}
}

func TestCompare_Improved(t *testing.T) {
	baseline := snapshotWithLines(100, 50)
	current := snapshotWithLines(100, 60)

	result := Compare(baseline, current)

	assert.True(t, result.Success)
	assert.Equal(t, types.ComparisonImproved, result.Status)
	assert.Equal(t, 10, result.Delta.Lines.CoveredDelta)
	assert.Equal(t, 10.0, result.Delta.Lines.PercentagePoints)
	assert.Equal(t, 50.0, result.Baseline.LinesCoveredPercentage)
	assert.Equal(t, 60.0, result.Current.LinesCoveredPercentage)
}

func TestCompare_Regressed(t *testing.T) {
	result := Compare(snapshotWithLines(100, 60), snapshotWithLines(100, 50))
	assert.Equal(t, types.ComparisonRegressed, result.Status)
	assert.Equal(t, -10.0, result.Delta.Lines.PercentagePoints)
}

func TestCompare_UnchangedWithinTolerance(t *testing.T) {
	// A delta below one hundredth of a percentage point is rounding noise.
	baseline := snapshotWithLines(100000, 50000)
	current := snapshotWithLines(100000, 50001)

	result := Compare(baseline, current)
	assert.Equal(t, types.ComparisonUnchanged, result.Status)
}

func TestCompare_NilSnapshots(t *testing.T) {
	result := Compare(nil, snapshotWithLines(10, 5))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)

	result = Compare(snapshotWithLines(10, 5), nil)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestCompare_FailedBaselineStillCompares(t *testing.T) {
	baseline := snapshotWithLines(100, 50)
	baseline.Success = false
	baseline.ErrorMessage = "half the projects timed out"

	result := Compare(baseline, snapshotWithLines(100, 60))

	assert.True(t, result.Success)
	assert.Equal(t, types.ComparisonImproved, result.Status)
	assert.Contains(t, result.ErrorMessage, "half the projects timed out")
}

func snapshotWithFile(path string, total, covered int) *types.CoverageAnalysisResult {
	summary := types.CoverageSummary{TotalLines: total, CoveredLines: covered}
	summary.Finalize()
	return &types.CoverageAnalysisResult{
		Success: true,
		Summary: summary,
		Projects: []types.ProjectCoverage{{
			Name:  "Core",
			Files: []types.FileCoverage{{Path: path, Summary: summary}},
		}},
	}
}

func TestCompare_FileClassification(t *testing.T) {
	baseline := &types.CoverageAnalysisResult{
		Success: true,
		Projects: []types.ProjectCoverage{{
			Name: "Core",
			Files: []types.FileCoverage{
				{Path: "Improved.cs", Summary: types.CoverageSummary{LinesCoveredPercentage: 40}},
				{Path: "Regressed.cs", Summary: types.CoverageSummary{LinesCoveredPercentage: 90}},
				{Path: "Removed.cs", Summary: types.CoverageSummary{LinesCoveredPercentage: 10}},
				{Path: "Steady.cs", Summary: types.CoverageSummary{LinesCoveredPercentage: 70}},
			},
		}},
	}
	current := &types.CoverageAnalysisResult{
		Success: true,
		Projects: []types.ProjectCoverage{{
			Name: "Core",
			Files: []types.FileCoverage{
				{Path: "Improved.cs", Summary: types.CoverageSummary{LinesCoveredPercentage: 80}},
				{Path: "Regressed.cs", Summary: types.CoverageSummary{LinesCoveredPercentage: 60}},
				{Path: "Added.cs", Summary: types.CoverageSummary{LinesCoveredPercentage: 50}},
				{Path: "Steady.cs", Summary: types.CoverageSummary{LinesCoveredPercentage: 70}},
			},
		}},
	}

	result := Compare(baseline, current)

	assert.Equal(t, []string{"improved.cs"}, result.ImprovedFiles)
	assert.Equal(t, []string{"regressed.cs"}, result.RegressedFiles)
	assert.Equal(t, []string{"added.cs"}, result.AddedFiles)
	assert.Equal(t, []string{"removed.cs"}, result.RemovedFiles)
}

func TestCompare_SingleSnapshotFileMatchesAcrossPathStyles(t *testing.T) {
	baseline := snapshotWithFile("src\\Calculator.cs", 10, 5)
	current := snapshotWithFile("src/calculator.cs", 10, 5)

	result := Compare(baseline, current)
	assert.Empty(t, result.AddedFiles)
	assert.Empty(t, result.RemovedFiles)
}

func TestCompare_MethodFlips(t *testing.T) {
	withMethod := func(pct float64) *types.CoverageAnalysisResult {
		return &types.CoverageAnalysisResult{
			Success: true,
			Projects: []types.ProjectCoverage{{
				Name: "Core",
				Classes: []types.ClassCoverage{{
					Name:      "Calculator",
					Namespace: "Example.Core",
					Methods: []types.MethodCoverage{{
						Name:      "Divide",
						Signature: "(System.Int32,System.Int32)",
						Summary:   types.CoverageSummary{LinesCoveredPercentage: pct},
					}},
				}},
			}},
		}
	}

	result := Compare(withMethod(0), withMethod(50))
	require.Len(t, result.NewlyCoveredMethods, 1)
	assert.Equal(t, "Example.Core.Calculator::(System.Int32,System.Int32)", result.NewlyCoveredMethods[0])
	assert.Empty(t, result.NewlyUncoveredMethods)

	result = Compare(withMethod(50), withMethod(0))
	require.Len(t, result.NewlyUncoveredMethods, 1)
	assert.Empty(t, result.NewlyCoveredMethods)
}

func TestMethodIdentifier(t *testing.T) {
	class := types.ClassCoverage{Name: "Calculator", Namespace: "Example.Core"}
	method := types.MethodCoverage{Name: "Add", Signature: "(System.Int32,System.Int32)"}
	assert.Equal(t, "Example.Core.Calculator::(System.Int32,System.Int32)", MethodIdentifier(class, method))

	// Without a signature the method name stands in.
	assert.Equal(t, "Calculator::Add", MethodIdentifier(types.ClassCoverage{Name: "Calculator"}, types.MethodCoverage{Name: "Add"}))
}
