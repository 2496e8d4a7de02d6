package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name    string
		covered int
		total   int
		want    float64
	}{
		{name: "zero total yields zero not NaN", covered: 0, total: 0, want: 0},
		{name: "full coverage", covered: 10, total: 10, want: 100},
		{name: "two decimal rounding", covered: 2, total: 3, want: 66.67},
		{name: "small fraction", covered: 1, total: 8, want: 12.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.covered, tt.total))
		})
	}
}

func TestCoverageSummary_AddAndFinalize(t *testing.T) {
	var s CoverageSummary
	s.Add(CoverageSummary{TotalLines: 100, CoveredLines: 100, TotalMethods: 4, CoveredMethods: 4})
	s.Add(CoverageSummary{TotalLines: 200, CoveredLines: 100, TotalMethods: 6, CoveredMethods: 3})
	s.Finalize()

	assert.Equal(t, 300, s.TotalLines)
	assert.Equal(t, 200, s.CoveredLines)
	assert.Equal(t, 100, s.UncoveredLines)
	assert.Equal(t, 66.67, s.LinesCoveredPercentage)
	assert.Equal(t, 70.0, s.MethodsCoveredPercentage)

	// Totals always decompose into covered plus uncovered.
	assert.Equal(t, s.TotalLines, s.CoveredLines+s.UncoveredLines)
	assert.Equal(t, s.TotalMethods, s.CoveredMethods+s.UncoveredMethods)
}

func TestCoverageSummary_FinalizeIdempotent(t *testing.T) {
	s := CoverageSummary{TotalLines: 8, CoveredLines: 1}
	s.Finalize()
	first := s
	s.Finalize()
	assert.Equal(t, first, s)
}

func TestLineCoverage_IsCovered(t *testing.T) {
	assert.True(t, LineCoverage{HitCount: 1}.IsCovered())
	assert.False(t, LineCoverage{HitCount: 0}.IsCovered())
}
