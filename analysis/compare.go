package analysis

import (
	"fmt"
	"sort"

	"github.com/ethereum-optimism/infra/op-coverage/types"
)

// ComparisonTolerance is the percentage-point band within which a delta
// counts as unchanged, absorbing two-decimal rounding noise.
const ComparisonTolerance = 0.01

// Compare diffs a baseline snapshot against a current one. It never panics:
// a missing baseline yields a failed comparison result, and a baseline whose
// own run failed is still compared on whatever summary it carries.
func Compare(baseline, current *types.CoverageAnalysisResult) *types.CoverageComparisonResult {
	result := &types.CoverageComparisonResult{Success: true, Status: types.ComparisonUnchanged}

	if baseline == nil {
		result.Success = false
		result.ErrorMessage = "baseline snapshot is required"
		return result
	}
	if current == nil {
		result.Success = false
		result.ErrorMessage = "current snapshot is required"
		return result
	}

	result.Baseline = baseline.Summary
	result.Current = current.Summary
	result.Delta = types.CoverageDelta{
		Lines:    metricDelta(baseline.Summary.TotalLines, baseline.Summary.CoveredLines, baseline.Summary.LinesCoveredPercentage, current.Summary.TotalLines, current.Summary.CoveredLines, current.Summary.LinesCoveredPercentage),
		Branches: metricDelta(baseline.Summary.TotalBranches, baseline.Summary.CoveredBranches, baseline.Summary.BranchesCoveredPercentage, current.Summary.TotalBranches, current.Summary.CoveredBranches, current.Summary.BranchesCoveredPercentage),
		Methods:  metricDelta(baseline.Summary.TotalMethods, baseline.Summary.CoveredMethods, baseline.Summary.MethodsCoveredPercentage, current.Summary.TotalMethods, current.Summary.CoveredMethods, current.Summary.MethodsCoveredPercentage),
		Classes:  metricDelta(baseline.Summary.TotalClasses, baseline.Summary.CoveredClasses, baseline.Summary.ClassesCoveredPercentage, current.Summary.TotalClasses, current.Summary.CoveredClasses, current.Summary.ClassesCoveredPercentage),
	}

	switch {
	case result.Delta.Lines.PercentagePoints >= ComparisonTolerance:
		result.Status = types.ComparisonImproved
	case result.Delta.Lines.PercentagePoints <= -ComparisonTolerance:
		result.Status = types.ComparisonRegressed
	}

	compareFiles(baseline, current, result)
	compareMethods(baseline, current, result)

	if !baseline.Success {
		result.ErrorMessage = fmt.Sprintf("baseline snapshot reported failure: %s", baseline.ErrorMessage)
	}

	return result
}

func metricDelta(baseTotal, baseCovered int, basePct float64, curTotal, curCovered int, curPct float64) types.MetricDelta {
	return types.MetricDelta{
		TotalDelta:       curTotal - baseTotal,
		CoveredDelta:     curCovered - baseCovered,
		PercentagePoints: types.Round2(curPct - basePct),
	}
}

// compareFiles classifies files present in both snapshots as improved or
// regressed by their line percentage, and reports files present in only one
// snapshot as added or removed rather than silently omitting them.
func compareFiles(baseline, current *types.CoverageAnalysisResult, result *types.CoverageComparisonResult) {
	basePct := filePercentages(baseline)
	curPct := filePercentages(current)

	for path, cur := range curPct {
		base, inBoth := basePct[path]
		if !inBoth {
			result.AddedFiles = append(result.AddedFiles, path)
			continue
		}
		delta := cur - base
		switch {
		case delta >= ComparisonTolerance:
			result.ImprovedFiles = append(result.ImprovedFiles, path)
		case delta <= -ComparisonTolerance:
			result.RegressedFiles = append(result.RegressedFiles, path)
		}
	}
	for path := range basePct {
		if _, inBoth := curPct[path]; !inBoth {
			result.RemovedFiles = append(result.RemovedFiles, path)
		}
	}

	sort.Strings(result.ImprovedFiles)
	sort.Strings(result.RegressedFiles)
	sort.Strings(result.AddedFiles)
	sort.Strings(result.RemovedFiles)
}

// compareMethods computes the set differences of zero-coverage method
// identifiers between the two snapshots.
func compareMethods(baseline, current *types.CoverageAnalysisResult, result *types.CoverageComparisonResult) {
	baseZero := zeroCoverageMethods(baseline)
	curZero := zeroCoverageMethods(current)

	for id := range baseZero {
		if _, still := curZero[id]; !still {
			result.NewlyCoveredMethods = append(result.NewlyCoveredMethods, id)
		}
	}
	for id := range curZero {
		if _, was := baseZero[id]; !was {
			result.NewlyUncoveredMethods = append(result.NewlyUncoveredMethods, id)
		}
	}

	sort.Strings(result.NewlyCoveredMethods)
	sort.Strings(result.NewlyUncoveredMethods)
}

func filePercentages(snapshot *types.CoverageAnalysisResult) map[string]float64 {
	out := make(map[string]float64)
	for _, p := range snapshot.Projects {
		for _, f := range p.Files {
			out[NormalizePath(f.Path)] = f.Summary.LinesCoveredPercentage
		}
	}
	return out
}

func zeroCoverageMethods(snapshot *types.CoverageAnalysisResult) map[string]struct{} {
	out := make(map[string]struct{})
	for _, p := range snapshot.Projects {
		for _, c := range p.Classes {
			for _, m := range c.Methods {
				if m.Summary.LinesCoveredPercentage == 0 {
					out[MethodIdentifier(c, m)] = struct{}{}
				}
			}
		}
	}
	return out
}

// MethodIdentifier is the class-plus-signature key used to match methods
// across snapshots.
func MethodIdentifier(class types.ClassCoverage, method types.MethodCoverage) string {
	name := class.Name
	if class.Namespace != "" {
		name = class.Namespace + "." + class.Name
	}
	signature := method.Signature
	if signature == "" {
		signature = method.Name
	}
	return name + "::" + signature
}
