package types

import "time"

// DefaultTimeoutMinutes bounds each per-project test process unless overridden.
const DefaultTimeoutMinutes = 10

// CoverageAnalysisOptions configures a single analysis invocation.
// Options are immutable once handed to the engine; every run gets its own copy.
type CoverageAnalysisOptions struct {
	// IncludeProjects restricts the production projects reported on.
	// Empty means all projects.
	IncludeProjects []string `json:"includeProjects" yaml:"includeProjects"`
	// ExcludeProjects removes production projects from the report.
	ExcludeProjects []string `json:"excludeProjects" yaml:"excludeProjects"`
	// IncludeTestProjects restricts which test projects are executed.
	// Empty means all discovered test projects.
	IncludeTestProjects []string `json:"includeTestProjects" yaml:"includeTestProjects"`
	// ExcludeTestProjects removes test projects from execution.
	ExcludeTestProjects []string `json:"excludeTestProjects" yaml:"excludeTestProjects"`
	// ExcludedFiles removes individual source files (by path) from the report.
	ExcludedFiles []string `json:"excludedFiles" yaml:"excludedFiles"`

	CollectBranchCoverage bool `json:"collectBranchCoverage" yaml:"collectBranchCoverage"`
	CollectMethodCoverage bool `json:"collectMethodCoverage" yaml:"collectMethodCoverage"`

	// TimeoutMinutes bounds each test-project process. Zero means the default.
	TimeoutMinutes int  `json:"timeoutMinutes" yaml:"timeoutMinutes"`
	RunInParallel  bool `json:"runInParallel" yaml:"runInParallel"`

	// TestFilter is passed through to the test tool as its filter expression.
	TestFilter string `json:"testFilter" yaml:"testFilter"`
}

// DefaultAnalysisOptions returns the options used when a caller supplies none.
func DefaultAnalysisOptions() CoverageAnalysisOptions {
	return CoverageAnalysisOptions{
		CollectBranchCoverage: true,
		CollectMethodCoverage: true,
		TimeoutMinutes:        DefaultTimeoutMinutes,
		RunInParallel:         true,
	}
}

// Timeout returns the per-project timeout as a duration, applying the default
// when the configured value is zero or negative.
func (o CoverageAnalysisOptions) Timeout() time.Duration {
	minutes := o.TimeoutMinutes
	if minutes <= 0 {
		minutes = DefaultTimeoutMinutes
	}
	return time.Duration(minutes) * time.Minute
}
