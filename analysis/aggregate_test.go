package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-coverage/types"
)

func projectWithLines(name string, total, covered int) types.ProjectCoverage {
	summary := types.CoverageSummary{TotalLines: total, CoveredLines: covered}
	summary.Finalize()
	return types.ProjectCoverage{Name: name, Summary: summary}
}

func TestCalculateOverallSummary_SumsCountsNotPercentages(t *testing.T) {
	// 100% of 100 lines plus 50% of 200 lines is 66.67%, not the 75% a
	// percentage average would give.
	result := &types.CoverageAnalysisResult{
		Projects: []types.ProjectCoverage{
			projectWithLines("A", 100, 100),
			projectWithLines("B", 200, 100),
		},
	}

	CalculateOverallSummary(result)

	assert.Equal(t, 300, result.Summary.TotalLines)
	assert.Equal(t, 200, result.Summary.CoveredLines)
	assert.Equal(t, 100, result.Summary.UncoveredLines)
	assert.Equal(t, 66.67, result.Summary.LinesCoveredPercentage)
}

func TestCalculateOverallSummary_Idempotent(t *testing.T) {
	result := &types.CoverageAnalysisResult{
		Projects: []types.ProjectCoverage{
			projectWithLines("A", 10, 7),
			projectWithLines("B", 30, 9),
		},
	}

	CalculateOverallSummary(result)
	first := result.Summary
	CalculateOverallSummary(result)

	assert.Equal(t, first, result.Summary)
}

func TestCalculateOverallSummary_Empty(t *testing.T) {
	result := &types.CoverageAnalysisResult{}
	CalculateOverallSummary(result)
	assert.Equal(t, types.CoverageSummary{}, result.Summary)
	assert.Equal(t, 0.0, result.Summary.LinesCoveredPercentage)
}

func classWithLines(name, path string, total, covered int) types.ClassCoverage {
	summary := types.CoverageSummary{TotalLines: total, CoveredLines: covered, TotalClasses: 1}
	if covered > 0 {
		summary.CoveredClasses = 1
	}
	summary.Finalize()
	return types.ClassCoverage{Name: name, FilePath: path, Summary: summary}
}

func TestMergeProjects_ByName(t *testing.T) {
	accumulated := MergeProjects(nil, []types.ProjectCoverage{
		{Name: "Core", Classes: []types.ClassCoverage{classWithLines("Calculator", "Calculator.cs", 10, 5)}},
	})
	accumulated = MergeProjects(accumulated, []types.ProjectCoverage{
		{Name: "Core", Classes: []types.ClassCoverage{classWithLines("Parser", "Parser.cs", 20, 10)}},
		{Name: "Util", Classes: []types.ClassCoverage{classWithLines("Strings", "Strings.cs", 4, 4)}},
	})

	require.Len(t, accumulated, 2)
	assert.Equal(t, "Core", accumulated[0].Name)
	assert.Equal(t, "Util", accumulated[1].Name)

	core := accumulated[0]
	require.Len(t, core.Classes, 2)
	assert.Equal(t, 30, core.Summary.TotalLines)
	assert.Equal(t, 15, core.Summary.CoveredLines)
	assert.Equal(t, 50.0, core.Summary.LinesCoveredPercentage)
}

func TestMergeProjects_DuplicateClassKeepsDeeperCoverage(t *testing.T) {
	// Two test runs exercising the same class keep the sighting that covered
	// more lines.
	shallow := classWithLines("Calculator", "Calculator.cs", 10, 2)
	deep := classWithLines("Calculator", "Calculator.cs", 10, 8)

	accumulated := MergeProjects(nil, []types.ProjectCoverage{{Name: "Core", Classes: []types.ClassCoverage{shallow}}})
	accumulated = MergeProjects(accumulated, []types.ProjectCoverage{{Name: "Core", Classes: []types.ClassCoverage{deep}}})

	require.Len(t, accumulated, 1)
	require.Len(t, accumulated[0].Classes, 1)
	assert.Equal(t, 8, accumulated[0].Classes[0].Summary.CoveredLines)
	assert.Equal(t, 8, accumulated[0].Summary.CoveredLines)
}

func TestMergeProjects_ClassKeyIsCaseInsensitivePath(t *testing.T) {
	a := classWithLines("Calculator", "src\\Calculator.cs", 10, 3)
	b := classWithLines("Calculator", "src/calculator.cs", 10, 6)

	accumulated := MergeProjects(nil, []types.ProjectCoverage{{Name: "Core", Classes: []types.ClassCoverage{a}}})
	accumulated = MergeProjects(accumulated, []types.ProjectCoverage{{Name: "Core", Classes: []types.ClassCoverage{b}}})

	require.Len(t, accumulated[0].Classes, 1)
	assert.Equal(t, 6, accumulated[0].Classes[0].Summary.CoveredLines)
}

func TestFilterProjects_IncludeExclude(t *testing.T) {
	projects := []types.ProjectCoverage{
		projectWithLines("Core", 10, 5),
		projectWithLines("Util", 10, 5),
		projectWithLines("Legacy", 10, 5),
	}

	opts := types.DefaultAnalysisOptions()
	opts.IncludeProjects = []string{"Core", "Legacy"}
	opts.ExcludeProjects = []string{"Legacy"}

	filtered := FilterProjects(projects, opts)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Core", filtered[0].Name)
}

func TestFilterProjects_ExcludedFilesRecomputeSummary(t *testing.T) {
	project := types.ProjectCoverage{
		Name: "Core",
		Classes: []types.ClassCoverage{
			classWithLines("Calculator", "Calculator.cs", 10, 10),
			classWithLines("Generated", "Generated.cs", 90, 0),
		},
	}
	recomputeProject(&project)
	require.Equal(t, 10.0, project.Summary.LinesCoveredPercentage)

	opts := types.DefaultAnalysisOptions()
	opts.ExcludedFiles = []string{"Generated.cs"}

	filtered := FilterProjects([]types.ProjectCoverage{project}, opts)
	require.Len(t, filtered, 1)
	assert.Equal(t, 10, filtered[0].Summary.TotalLines)
	assert.Equal(t, 100.0, filtered[0].Summary.LinesCoveredPercentage)
	require.Len(t, filtered[0].Files, 1)
	assert.Equal(t, "Calculator.cs", filtered[0].Files[0].Path)
}

func TestFilterProjects_DetailToggles(t *testing.T) {
	project := types.ProjectCoverage{
		Name: "Core",
		Classes: []types.ClassCoverage{{
			Name:     "Calculator",
			FilePath: "Calculator.cs",
			Methods: []types.MethodCoverage{{
				Name:     "Add",
				Branches: []types.BranchCoverage{{LineNumber: 5, BranchNumber: 0}},
			}},
		}},
	}

	opts := types.DefaultAnalysisOptions()
	opts.CollectBranchCoverage = false
	filtered := FilterProjects([]types.ProjectCoverage{project}, opts)
	require.Len(t, filtered[0].Classes[0].Methods, 1)
	assert.Nil(t, filtered[0].Classes[0].Methods[0].Branches)

	opts = types.DefaultAnalysisOptions()
	opts.CollectMethodCoverage = false
	filtered = FilterProjects([]types.ProjectCoverage{project}, opts)
	assert.Nil(t, filtered[0].Classes[0].Methods)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "src/calculator.cs", NormalizePath("src\\Calculator.cs"))
	assert.Equal(t, "src/calculator.cs", NormalizePath("src/Calculator.cs"))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 66.67, types.Round2(66.666666))
	assert.Equal(t, 50.01, types.Round2(50.006))
	assert.Equal(t, 50.0, types.Round2(50.004))
	assert.Equal(t, 0.0, types.Round2(0))
	assert.Equal(t, 100.0, types.Round2(100))
}
