package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-coverage/types"
	"github.com/ethereum-optimism/infra/op-coverage/workspace"
)

// RunResult captures one project's test invocation: its ordered output lines,
// the coverage artifact it produced (if any), and how it ended. A failed
// launch or timeout is recorded here, never raised, so sibling runs are
// unaffected.
type RunResult struct {
	ProjectName string
	ProjectPath string
	Output      []string
	// CoverageReport is the path of the produced coverage artifact, empty
	// when the run failed before producing one.
	CoverageReport string
	Duration       time.Duration
	TimedOut       bool
	// Err is set for launch failures and timeouts. Ordinary test failures are
	// not errors; they surface through the parsed transcript.
	Err error
}

// executeProject runs one project's test suite under coverage collection,
// bounded by the per-project timeout.
func (r *Runner) executeProject(ctx context.Context, project workspace.Project, opts types.CoverageAnalysisOptions, scratchRoot string) RunResult {
	result := RunResult{
		ProjectName: project.Name,
		ProjectPath: project.Path,
	}

	resultsDir, err := os.MkdirTemp(scratchRoot, "results-*")
	if err != nil {
		result.Err = fmt.Errorf("failed to create results directory: %w", err)
		return result
	}

	timeout := opts.Timeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.toolchain.Binary, r.toolchain.TestArgs(project.Path, resultsDir, opts)...)
	cmd.Dir = project.Path
	// Give the process a moment to exit cleanly on cancellation before it is
	// killed, so no child is leaked.
	cmd.WaitDelay = 10 * time.Second

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	r.log.Info("Running tests", "project", project.Name, "timeout", timeout)
	start := time.Now()
	runErr := cmd.Run()
	result.Duration = time.Since(start)
	result.Output = splitLines(output.String())

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.Err = fmt.Errorf("test run for %s timed out after %s", project.Name, timeout)
	case runErr != nil:
		exitErr := &exec.ExitError{}
		if errors.As(runErr, &exitErr) && exitErr.ExitCode() == 1 {
			// Exit code 1 means tests failed; the transcript carries the
			// details and the run still counts as executed.
		} else {
			result.Err = fmt.Errorf("failed to run tests for %s: %w", project.Name, runErr)
		}
	}

	if result.Err == nil {
		result.CoverageReport = findCoverageReport(resultsDir)
		if result.CoverageReport == "" {
			r.log.Warn("Test run produced no coverage report", "project", project.Name)
		}
	}

	return result
}

// findCoverageReport locates the coverage artifact within a results
// directory. The newest matching file wins when the tool wrote several.
func findCoverageReport(resultsDir string) string {
	var newest string
	var newestMod time.Time

	_ = filepath.WalkDir(resultsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.HasSuffix(name, CoverageReportSuffix) && name != "coverage.xml" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = path
			newestMod = info.ModTime()
		}
		return nil
	})

	return newest
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
