package analysis

import (
	"github.com/ethereum-optimism/infra/op-coverage/discovery"
	"github.com/ethereum-optimism/infra/op-coverage/types"
)

// FindUncovered flattens the aggregated tree into actionable zero-coverage
// lists. A method is fully uncovered when its line-coverage percentage is
// exactly zero; lines and branches are individually uncovered when their hit
// count is zero. The run's project and file filters apply, so no record
// references an excluded project.
func FindUncovered(result *types.CoverageAnalysisResult, opts types.CoverageAnalysisOptions) *types.UncoveredCodeResult {
	out := &types.UncoveredCodeResult{Success: true}

	for _, project := range result.Projects {
		if !discovery.Included(project.Name, opts.IncludeProjects, opts.ExcludeProjects) {
			continue
		}
		for _, class := range project.Classes {
			if fileExcluded(class.FilePath, opts.ExcludedFiles) {
				continue
			}
			for _, method := range class.Methods {
				if method.Summary.LinesCoveredPercentage == 0 {
					out.Methods = append(out.Methods, types.UncoveredMethod{
						ProjectName: project.Name,
						ClassName:   class.Name,
						MethodName:  method.Name,
						Signature:   method.Signature,
						FilePath:    class.FilePath,
						StartLine:   method.StartLine,
						EndLine:     method.EndLine,
					})
				}
				for _, line := range method.Lines {
					if line.HitCount == 0 {
						out.Lines = append(out.Lines, types.UncoveredLine{
							ProjectName:   project.Name,
							ClassName:     class.Name,
							FilePath:      class.FilePath,
							LineNumber:    line.LineNumber,
							SourceSnippet: line.SourceSnippet,
						})
					}
				}
				for _, branch := range method.Branches {
					if branch.HitCount == 0 {
						out.Branches = append(out.Branches, types.UncoveredBranch{
							ProjectName:  project.Name,
							ClassName:    class.Name,
							FilePath:     class.FilePath,
							LineNumber:   branch.LineNumber,
							BranchNumber: branch.BranchNumber,
							Condition:    branch.Condition,
						})
					}
				}
			}
		}
	}

	return out
}
