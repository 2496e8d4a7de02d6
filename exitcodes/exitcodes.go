// Package exitcodes defines the standard exit codes used by op-coverage.
package exitcodes

// Exit code constants used by op-coverage
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when the analysis completes and no tests fail
// * TestFailure (1): Used when one or more test projects report failures
// * RuntimeErr (2): Used for runtime errors such as panics, timeouts or other failures
const (
	Success     = 0 // Analysis completed without test failures
	TestFailure = 1 // Test failures
	RuntimeErr  = 2 // Runtime errors or timeouts
)
