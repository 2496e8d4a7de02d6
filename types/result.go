package types

import "time"

// TestFailure is one failed test case extracted from the test transcript.
type TestFailure struct {
	Name       string `json:"name" yaml:"name"`
	Class      string `json:"class,omitempty" yaml:"class,omitempty"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
	StackTrace string `json:"stackTrace,omitempty" yaml:"stackTrace,omitempty"`
}

// TestExecutionSummary aggregates the outcome of the executed test suites.
// The invariant TotalTests == PassedTests+FailedTests+SkippedTests holds for
// anything produced by the parser.
type TestExecutionSummary struct {
	TotalTests    int           `json:"totalTests" yaml:"totalTests"`
	PassedTests   int           `json:"passedTests" yaml:"passedTests"`
	FailedTests   int           `json:"failedTests" yaml:"failedTests"`
	SkippedTests  int           `json:"skippedTests" yaml:"skippedTests"`
	ExecutionTime time.Duration `json:"executionTime" yaml:"executionTime"`
	Failures      []TestFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Merge accumulates another summary into s, keeping the totals invariant.
func (s *TestExecutionSummary) Merge(other TestExecutionSummary) {
	s.TotalTests += other.TotalTests
	s.PassedTests += other.PassedTests
	s.FailedTests += other.FailedTests
	s.SkippedTests += other.SkippedTests
	s.ExecutionTime += other.ExecutionTime
	s.Failures = append(s.Failures, other.Failures...)
}

// CoverageAnalysisResult is one complete coverage snapshot.
type CoverageAnalysisResult struct {
	Success      bool                 `json:"success" yaml:"success"`
	ErrorMessage string               `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
	Timestamp    time.Time            `json:"timestamp" yaml:"timestamp"`
	Duration     time.Duration        `json:"duration" yaml:"duration"`
	Summary      CoverageSummary      `json:"summary" yaml:"summary"`
	Projects     []ProjectCoverage    `json:"projects,omitempty" yaml:"projects,omitempty"`
	TestResults  TestExecutionSummary `json:"testResults" yaml:"testResults"`
}

// UncoveredMethod locates one method with zero line coverage.
type UncoveredMethod struct {
	ProjectName string `json:"projectName" yaml:"projectName"`
	ClassName   string `json:"className" yaml:"className"`
	MethodName  string `json:"methodName" yaml:"methodName"`
	Signature   string `json:"signature,omitempty" yaml:"signature,omitempty"`
	FilePath    string `json:"filePath" yaml:"filePath"`
	StartLine   int    `json:"startLine" yaml:"startLine"`
	EndLine     int    `json:"endLine" yaml:"endLine"`
}

// UncoveredLine locates one never-executed source line.
type UncoveredLine struct {
	ProjectName   string `json:"projectName" yaml:"projectName"`
	ClassName     string `json:"className" yaml:"className"`
	FilePath      string `json:"filePath" yaml:"filePath"`
	LineNumber    int    `json:"lineNumber" yaml:"lineNumber"`
	SourceSnippet string `json:"sourceSnippet,omitempty" yaml:"sourceSnippet,omitempty"`
}

// UncoveredBranch locates one never-taken branch outcome.
type UncoveredBranch struct {
	ProjectName  string `json:"projectName" yaml:"projectName"`
	ClassName    string `json:"className" yaml:"className"`
	FilePath     string `json:"filePath" yaml:"filePath"`
	LineNumber   int    `json:"lineNumber" yaml:"lineNumber"`
	BranchNumber int    `json:"branchNumber" yaml:"branchNumber"`
	Condition    string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// UncoveredCodeResult is the flattened zero-coverage report.
type UncoveredCodeResult struct {
	Success      bool              `json:"success" yaml:"success"`
	ErrorMessage string            `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
	Methods      []UncoveredMethod `json:"methods,omitempty" yaml:"methods,omitempty"`
	Lines        []UncoveredLine   `json:"lines,omitempty" yaml:"lines,omitempty"`
	Branches     []UncoveredBranch `json:"branches,omitempty" yaml:"branches,omitempty"`
}

// ComparisonStatus classifies the direction of a coverage comparison.
type ComparisonStatus string

const (
	ComparisonImproved  ComparisonStatus = "improved"
	ComparisonRegressed ComparisonStatus = "regressed"
	ComparisonUnchanged ComparisonStatus = "unchanged"
)

// MetricDelta is the movement of one metric between two snapshots.
type MetricDelta struct {
	TotalDelta       int     `json:"totalDelta" yaml:"totalDelta"`
	CoveredDelta     int     `json:"coveredDelta" yaml:"coveredDelta"`
	PercentagePoints float64 `json:"percentagePoints" yaml:"percentagePoints"`
}

// CoverageDelta is the per-metric movement between two snapshots.
type CoverageDelta struct {
	Lines    MetricDelta `json:"lines" yaml:"lines"`
	Branches MetricDelta `json:"branches" yaml:"branches"`
	Methods  MetricDelta `json:"methods" yaml:"methods"`
	Classes  MetricDelta `json:"classes" yaml:"classes"`
}

// CoverageComparisonResult is the delta report between a baseline snapshot and
// a freshly produced current snapshot.
type CoverageComparisonResult struct {
	Success      bool             `json:"success" yaml:"success"`
	ErrorMessage string           `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
	Status       ComparisonStatus `json:"status" yaml:"status"`
	Baseline     CoverageSummary  `json:"baseline" yaml:"baseline"`
	Current      CoverageSummary  `json:"current" yaml:"current"`
	Delta        CoverageDelta    `json:"delta" yaml:"delta"`

	ImprovedFiles  []string `json:"improvedFiles,omitempty" yaml:"improvedFiles,omitempty"`
	RegressedFiles []string `json:"regressedFiles,omitempty" yaml:"regressedFiles,omitempty"`
	// Files present in only one of the two snapshots are reported separately
	// rather than folded into the improved/regressed lists.
	AddedFiles   []string `json:"addedFiles,omitempty" yaml:"addedFiles,omitempty"`
	RemovedFiles []string `json:"removedFiles,omitempty" yaml:"removedFiles,omitempty"`

	// Method identifiers (class + signature) whose zero-coverage state flipped.
	NewlyCoveredMethods   []string `json:"newlyCoveredMethods,omitempty" yaml:"newlyCoveredMethods,omitempty"`
	NewlyUncoveredMethods []string `json:"newlyUncoveredMethods,omitempty" yaml:"newlyUncoveredMethods,omitempty"`
}
