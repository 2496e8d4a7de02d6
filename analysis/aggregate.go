// Package analysis holds the pure functions over coverage snapshots:
// bottom-up aggregation, zero-coverage extraction, and snapshot comparison.
package analysis

import (
	"sort"
	"strings"

	"github.com/ethereum-optimism/infra/op-coverage/discovery"
	"github.com/ethereum-optimism/infra/op-coverage/types"
)

// CalculateOverallSummary recomputes the root summary from the per-project
// summaries. Counts are summed and percentages derived from the summed counts
// — never averaged across projects. The function is idempotent and mutates
// only result.Summary.
func CalculateOverallSummary(result *types.CoverageAnalysisResult) {
	var summary types.CoverageSummary
	for _, p := range result.Projects {
		summary.Add(p.Summary)
	}
	summary.Finalize()
	result.Summary = summary
}

// MergeProjects folds the coverage trees of one run into the accumulated
// project list. Projects merge by name; within a merged project, classes
// dedupe by file path and name, keeping whichever sighting covered more
// lines (separate test runs exercise the same production code to different
// depths).
func MergeProjects(accumulated, incoming []types.ProjectCoverage) []types.ProjectCoverage {
	byName := make(map[string]int, len(accumulated))
	for i, p := range accumulated {
		byName[p.Name] = i
	}

	for _, in := range incoming {
		idx, exists := byName[in.Name]
		if !exists {
			byName[in.Name] = len(accumulated)
			accumulated = append(accumulated, in)
			continue
		}
		merged := mergeClasses(accumulated[idx].Classes, in.Classes)
		accumulated[idx].Classes = merged
		recomputeProject(&accumulated[idx])
	}

	sort.Slice(accumulated, func(i, j int) bool {
		return accumulated[i].Name < accumulated[j].Name
	})
	return accumulated
}

// FilterProjects applies the run's include/exclude project filters and
// excluded-file list to the merged tree, recomputing the affected summaries.
// Detail toggles strip method and branch detail without touching the counted
// metrics.
func FilterProjects(projects []types.ProjectCoverage, opts types.CoverageAnalysisOptions) []types.ProjectCoverage {
	var filtered []types.ProjectCoverage
	for _, p := range projects {
		if !discovery.Included(p.Name, opts.IncludeProjects, opts.ExcludeProjects) {
			continue
		}

		if len(opts.ExcludedFiles) > 0 {
			var kept []types.ClassCoverage
			for _, c := range p.Classes {
				if fileExcluded(c.FilePath, opts.ExcludedFiles) {
					continue
				}
				kept = append(kept, c)
			}
			if len(kept) != len(p.Classes) {
				p.Classes = kept
				recomputeProject(&p)
			}
		}

		if !opts.CollectMethodCoverage || !opts.CollectBranchCoverage {
			stripDetail(&p, opts)
		}

		filtered = append(filtered, p)
	}
	return filtered
}

func fileExcluded(path string, excluded []string) bool {
	normalized := NormalizePath(path)
	for _, e := range excluded {
		if NormalizePath(e) == normalized {
			return true
		}
	}
	return false
}

// NormalizePath canonicalizes a source path for cross-snapshot matching.
func NormalizePath(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
}

func stripDetail(p *types.ProjectCoverage, opts types.CoverageAnalysisOptions) {
	for ci := range p.Classes {
		if !opts.CollectMethodCoverage {
			p.Classes[ci].Methods = nil
			continue
		}
		if !opts.CollectBranchCoverage {
			for mi := range p.Classes[ci].Methods {
				p.Classes[ci].Methods[mi].Branches = nil
			}
		}
	}
}

func mergeClasses(accumulated, incoming []types.ClassCoverage) []types.ClassCoverage {
	type classKey struct{ path, name string }
	byKey := make(map[classKey]int, len(accumulated))
	for i, c := range accumulated {
		byKey[classKey{NormalizePath(c.FilePath), c.Name}] = i
	}

	for _, in := range incoming {
		key := classKey{NormalizePath(in.FilePath), in.Name}
		idx, exists := byKey[key]
		if !exists {
			byKey[key] = len(accumulated)
			accumulated = append(accumulated, in)
			continue
		}
		if in.Summary.CoveredLines > accumulated[idx].Summary.CoveredLines {
			accumulated[idx] = in
		}
	}

	sort.Slice(accumulated, func(i, j int) bool {
		if accumulated[i].FilePath != accumulated[j].FilePath {
			return accumulated[i].FilePath < accumulated[j].FilePath
		}
		return accumulated[i].Name < accumulated[j].Name
	})
	return accumulated
}

// recomputeProject rebuilds a project's summary counts and file rollup from
// its class list. Class-level percentages are left as the instrumentation
// tool reported them.
func recomputeProject(p *types.ProjectCoverage) {
	var summary types.CoverageSummary
	for _, c := range p.Classes {
		summary.Add(c.Summary)
	}
	summary.Finalize()
	p.Summary = summary

	byPath := make(map[string]*types.CoverageSummary)
	var order []string
	for _, c := range p.Classes {
		if c.FilePath == "" {
			continue
		}
		s, ok := byPath[c.FilePath]
		if !ok {
			s = &types.CoverageSummary{}
			byPath[c.FilePath] = s
			order = append(order, c.FilePath)
		}
		s.Add(c.Summary)
	}
	sort.Strings(order)
	files := make([]types.FileCoverage, 0, len(order))
	for _, path := range order {
		s := byPath[path]
		s.Finalize()
		files = append(files, types.FileCoverage{Path: path, Summary: *s})
	}
	p.Files = files
}
