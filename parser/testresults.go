// Package parser turns raw test-run outputs into the normalized coverage and
// test models: a tolerant free-text transcript parser and a structured
// coverage-report parser. Both skip what they cannot read instead of failing
// the run.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-coverage/types"
)

var (
	// Terminal summary line, e.g.
	// "Test Run Successful. Total: 18, Passed: 15, Failed: 2, Skipped: 1 - 00:00:05.123"
	terminalSummaryRe = regexp.MustCompile(`Total:\s*(\S+),\s*Passed:\s*(\S+),\s*Failed:\s*(\S+),\s*Skipped:\s*(\S+?)(?:\s*-\s*(\d+:\d{2}:\d{2}(?:\.\d+)?))?\s*$`)

	// Multi-line block form, spread across separate lines.
	totalTestsRe = regexp.MustCompile(`^\s*Total tests:\s*(\S+)\s*$`)
	passedRe     = regexp.MustCompile(`^\s*Passed:\s*(\S+)\s*$`)
	failedRe     = regexp.MustCompile(`^\s*Failed:\s*(\S+)\s*$`)
	skippedRe    = regexp.MustCompile(`^\s*Skipped:\s*(\S+)\s*$`)

	// Individual failed test header, e.g. "  Failed Proj.Tests.TestFoo [23 ms]".
	// The trailing colon form ("Failed: 2") is the summary, not a failure.
	failedTestRe = regexp.MustCompile(`^\s*Failed[!]?\s+([^\s\[:][^\s\[]*)(?:\s+\[[^\]]*\])?\s*$`)
)

// ParseTestResults parses a test-run transcript into an execution summary.
// Both the single terminal summary line and the multi-line block form are
// recognized; recognized lines overwrite earlier values (last writer wins), so
// a terminal summary after progress lines takes precedence. Unrecognized lines
// are ignored and malformed numeric tokens leave their field at zero.
func ParseTestResults(lines []string) types.TestExecutionSummary {
	var summary types.TestExecutionSummary

	var failure *types.TestFailure
	var section failureSection

	flush := func() {
		if failure != nil {
			failure.Message = strings.TrimSpace(failure.Message)
			failure.StackTrace = strings.TrimRight(failure.StackTrace, "\n")
			summary.Failures = append(summary.Failures, *failure)
			failure = nil
		}
		section = sectionNone
	}

	for _, raw := range lines {
		line := stripansi.Strip(raw)

		if m := terminalSummaryRe.FindStringSubmatch(line); m != nil {
			flush()
			summary.TotalTests = parseCount(m[1])
			summary.PassedTests = parseCount(m[2])
			summary.FailedTests = parseCount(m[3])
			summary.SkippedTests = parseCount(m[4])
			if m[5] != "" {
				summary.ExecutionTime = parseClockDuration(m[5])
			}
			continue
		}
		if m := totalTestsRe.FindStringSubmatch(line); m != nil {
			flush()
			summary.TotalTests = parseCount(m[1])
			continue
		}
		if m := passedRe.FindStringSubmatch(line); m != nil {
			flush()
			summary.PassedTests = parseCount(m[1])
			continue
		}
		if m := failedRe.FindStringSubmatch(line); m != nil {
			flush()
			summary.FailedTests = parseCount(m[1])
			continue
		}
		if m := skippedRe.FindStringSubmatch(line); m != nil {
			flush()
			summary.SkippedTests = parseCount(m[1])
			continue
		}

		if m := failedTestRe.FindStringSubmatch(line); m != nil {
			flush()
			class, name := splitTestIdentifier(m[1])
			failure = &types.TestFailure{Name: name, Class: class}
			continue
		}

		if failure != nil {
			switch {
			case strings.TrimSpace(line) == "Error Message:":
				section = sectionMessage
			case strings.TrimSpace(line) == "Stack Trace:":
				section = sectionStack
			case strings.TrimSpace(line) == "":
				// Blank line ends the current failure block.
				flush()
			case section == sectionMessage:
				if failure.Message != "" {
					failure.Message += "\n"
				}
				failure.Message += strings.TrimSpace(line)
			case section == sectionStack:
				if failure.StackTrace != "" {
					failure.StackTrace += "\n"
				}
				failure.StackTrace += strings.TrimSpace(line)
			}
		}
	}
	flush()

	// Transcripts without an explicit total still satisfy the counts
	// invariant.
	if summary.TotalTests == 0 {
		summary.TotalTests = summary.PassedTests + summary.FailedTests + summary.SkippedTests
	}

	return summary
}

type failureSection int

const (
	sectionNone failureSection = iota
	sectionMessage
	sectionStack
)

// parseCount converts a numeric token, leaving the field at zero when the
// token is malformed.
func parseCount(token string) int {
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseClockDuration parses an HH:MM:SS.fff token. Malformed tokens yield a
// zero duration.
func parseClockDuration(token string) time.Duration {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return 0
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
}

// splitTestIdentifier splits a dotted test identifier into its class prefix
// and method name.
func splitTestIdentifier(id string) (class, name string) {
	idx := strings.LastIndex(id, ".")
	if idx < 0 {
		return "", id
	}
	return id[:idx], id[idx+1:]
}
