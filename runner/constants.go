package runner

// Test execution constants
const (
	// DefaultTestBinary is the external test tool invoked per project.
	DefaultTestBinary = "dotnet"

	// Test command arguments
	TestCommand          = "test"
	CollectFlag          = "--collect"
	ResultsDirectoryFlag = "--results-directory"
	FilterFlag           = "--filter"
	NoRestoreFlag        = "--no-restore"

	// CoverageCollector names the data collector that produces the coverage
	// report artifact.
	CoverageCollector = "XPlat Code Coverage"

	// CoverageReportSuffix identifies the coverage artifact within a run's
	// results directory.
	CoverageReportSuffix = "coverage.cobertura.xml"

	// MaxReasonableConcurrency caps auto-determined concurrency to avoid
	// resource exhaustion.
	MaxReasonableConcurrency = 8
)
