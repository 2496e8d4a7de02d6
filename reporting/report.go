// Package reporting renders completed coverage snapshots to durable per-run
// report files, complementing the live terminal tables.
package reporting

import (
	"github.com/ethereum-optimism/infra/op-coverage/types"
)

// Sink persists one rendering of a completed analysis run.
type Sink interface {
	// Complete writes the run's report into its output directory.
	Complete(runID string, result *types.CoverageAnalysisResult) error
}

// percentClass buckets a percentage for presentation: green at 80% and above,
// amber at 50%, red below.
func percentClass(pct float64) string {
	switch {
	case pct >= 80:
		return "high"
	case pct >= 50:
		return "medium"
	default:
		return "low"
	}
}
