package types

import "math"

// CoverageSummary holds the counted and derived coverage metrics for one level
// of the coverage tree (method, class, file, project, or the whole run).
type CoverageSummary struct {
	TotalLines             int     `json:"totalLines" yaml:"totalLines"`
	CoveredLines           int     `json:"coveredLines" yaml:"coveredLines"`
	UncoveredLines         int     `json:"uncoveredLines" yaml:"uncoveredLines"`
	LinesCoveredPercentage float64 `json:"linesCoveredPercentage" yaml:"linesCoveredPercentage"`

	TotalBranches             int     `json:"totalBranches" yaml:"totalBranches"`
	CoveredBranches           int     `json:"coveredBranches" yaml:"coveredBranches"`
	UncoveredBranches         int     `json:"uncoveredBranches" yaml:"uncoveredBranches"`
	BranchesCoveredPercentage float64 `json:"branchesCoveredPercentage" yaml:"branchesCoveredPercentage"`

	TotalMethods             int     `json:"totalMethods" yaml:"totalMethods"`
	CoveredMethods           int     `json:"coveredMethods" yaml:"coveredMethods"`
	UncoveredMethods         int     `json:"uncoveredMethods" yaml:"uncoveredMethods"`
	MethodsCoveredPercentage float64 `json:"methodsCoveredPercentage" yaml:"methodsCoveredPercentage"`

	TotalClasses             int     `json:"totalClasses" yaml:"totalClasses"`
	CoveredClasses           int     `json:"coveredClasses" yaml:"coveredClasses"`
	UncoveredClasses         int     `json:"uncoveredClasses" yaml:"uncoveredClasses"`
	ClassesCoveredPercentage float64 `json:"classesCoveredPercentage" yaml:"classesCoveredPercentage"`
}

// Percentage returns covered/total as a percentage rounded to two decimal
// places. A zero total yields 0, never NaN.
func Percentage(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(covered) / float64(total) * 100)
}

// Round2 rounds half away from zero at two decimal places. The same convention
// is applied at every summary level.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Add accumulates another summary's counts into s. Percentages are not
// touched; call Finalize once all counts are in.
func (s *CoverageSummary) Add(other CoverageSummary) {
	s.TotalLines += other.TotalLines
	s.CoveredLines += other.CoveredLines
	s.TotalBranches += other.TotalBranches
	s.CoveredBranches += other.CoveredBranches
	s.TotalMethods += other.TotalMethods
	s.CoveredMethods += other.CoveredMethods
	s.TotalClasses += other.TotalClasses
	s.CoveredClasses += other.CoveredClasses
}

// Finalize derives the uncovered counts and percentages from the totals.
func (s *CoverageSummary) Finalize() {
	s.UncoveredLines = s.TotalLines - s.CoveredLines
	s.UncoveredBranches = s.TotalBranches - s.CoveredBranches
	s.UncoveredMethods = s.TotalMethods - s.CoveredMethods
	s.UncoveredClasses = s.TotalClasses - s.CoveredClasses
	s.LinesCoveredPercentage = Percentage(s.CoveredLines, s.TotalLines)
	s.BranchesCoveredPercentage = Percentage(s.CoveredBranches, s.TotalBranches)
	s.MethodsCoveredPercentage = Percentage(s.CoveredMethods, s.TotalMethods)
	s.ClassesCoveredPercentage = Percentage(s.CoveredClasses, s.TotalClasses)
}
