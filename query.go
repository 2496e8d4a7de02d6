package coverage

import (
	"context"
	"strings"

	"github.com/ethereum-optimism/infra/op-coverage/analysis"
	"github.com/ethereum-optimism/infra/op-coverage/types"
)

// GetCoverageSummary produces a fresh snapshot and returns its root summary.
func (e *Engine) GetCoverageSummary(ctx context.Context, opts types.CoverageAnalysisOptions) (types.CoverageSummary, error) {
	if e.workspace() == nil {
		return types.CoverageSummary{}, ErrNoWorkspace
	}

	result := e.RunCoverageAnalysis(ctx, opts)
	if !result.Success {
		return types.CoverageSummary{}, analysisError(result)
	}
	return result.Summary, nil
}

// FindUncoveredCode produces a fresh snapshot and flattens it into
// zero-coverage method, line, and branch lists.
func (e *Engine) FindUncoveredCode(ctx context.Context, opts types.CoverageAnalysisOptions) *types.UncoveredCodeResult {
	result := e.RunCoverageAnalysis(ctx, opts)
	if !result.Success {
		return &types.UncoveredCodeResult{ErrorMessage: result.ErrorMessage}
	}
	return analysis.FindUncovered(result, opts)
}

// GetMethodCoverage produces a fresh snapshot and returns the named method's
// coverage subtree. The class name matches with or without its namespace
// qualifier. A nil method with nil error means the method was not found.
func (e *Engine) GetMethodCoverage(ctx context.Context, className, methodName string, opts types.CoverageAnalysisOptions) (*types.MethodCoverage, error) {
	if e.workspace() == nil {
		return nil, ErrNoWorkspace
	}

	result := e.RunCoverageAnalysis(ctx, opts)
	if !result.Success {
		return nil, analysisError(result)
	}

	for _, project := range result.Projects {
		for _, class := range project.Classes {
			if !classMatches(class, className) {
				continue
			}
			for _, method := range class.Methods {
				if method.Name == methodName || method.Signature == methodName {
					m := method
					return &m, nil
				}
			}
		}
	}
	return nil, nil
}

// CompareCoverage produces a fresh snapshot under the given options and diffs
// it against the supplied baseline. It never panics, whatever state the
// baseline is in.
func (e *Engine) CompareCoverage(ctx context.Context, baseline *types.CoverageAnalysisResult, opts types.CoverageAnalysisOptions) *types.CoverageComparisonResult {
	if e.workspace() == nil {
		return &types.CoverageComparisonResult{
			Status:       types.ComparisonUnchanged,
			ErrorMessage: noWorkspaceMessage,
		}
	}

	current := e.RunCoverageAnalysis(ctx, opts)
	comparison := analysis.Compare(baseline, current)
	if !current.Success {
		comparison.Success = false
		if comparison.ErrorMessage == "" {
			comparison.ErrorMessage = current.ErrorMessage
		}
	}
	return comparison
}

func classMatches(class types.ClassCoverage, name string) bool {
	if strings.EqualFold(class.Name, name) {
		return true
	}
	qualified := class.Name
	if class.Namespace != "" {
		qualified = class.Namespace + "." + class.Name
	}
	return strings.EqualFold(qualified, name)
}

func analysisError(result *types.CoverageAnalysisResult) error {
	if result.ErrorMessage == "" {
		return ErrNoWorkspace
	}
	return &AnalysisError{Message: result.ErrorMessage}
}
