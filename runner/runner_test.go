package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-coverage/types"
	"github.com/ethereum-optimism/infra/op-coverage/workspace"
)

// writeFakeTool installs a shell script standing in for the test toolchain.
// The script sees the same argument shape TestArgs produces, so the results
// directory is "$6".
func writeFakeTool(t *testing.T, script string) Toolchain {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "faketool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return Toolchain{Binary: path}
}

func testProject(t *testing.T, name string) workspace.Project {
	t.Helper()
	return workspace.Project{Name: name, Path: t.TempDir()}
}

func newTestRunner(t *testing.T, toolchain Toolchain, concurrency int) *Runner {
	t.Helper()
	r, err := NewRunner(Config{Toolchain: toolchain, Concurrency: concurrency})
	require.NoError(t, err)
	return r
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(Config{})
	assert.Error(t, err, "missing toolchain must be rejected")

	_, err = NewRunner(Config{Toolchain: Toolchain{Binary: "sh"}, Concurrency: -1})
	assert.Error(t, err, "negative concurrency must be rejected")

	r, err := NewRunner(Config{Toolchain: Toolchain{Binary: "sh"}})
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestRunAll_Success(t *testing.T) {
	toolchain := writeFakeTool(t, `
mkdir -p "$6/run"
echo '<coverage line-rate="1"><packages></packages></coverage>' > "$6/run/coverage.cobertura.xml"
echo "Test Run Successful."
echo "Total: 3, Passed: 3, Failed: 0, Skipped: 0 - 00:00:01.000"
`)
	r := newTestRunner(t, toolchain, 0)

	results, cleanup, err := r.RunAll(context.Background(), []workspace.Project{testProject(t, "Core.Tests")}, types.DefaultAnalysisOptions())
	require.NoError(t, err)
	defer cleanup()

	require.Len(t, results, 1)
	result := results[0]
	assert.NoError(t, result.Err)
	assert.False(t, result.TimedOut)
	assert.NotEmpty(t, result.CoverageReport)
	assert.FileExists(t, result.CoverageReport)
	assert.Contains(t, strings.Join(result.Output, "\n"), "Total: 3")

	cleanup()
	assert.NoFileExists(t, result.CoverageReport, "cleanup must remove coverage artifacts")
}

func TestRunAll_TestFailureExitCodeIsNotAnError(t *testing.T) {
	toolchain := writeFakeTool(t, `
echo "Total: 3, Passed: 2, Failed: 1, Skipped: 0 - 00:00:01.000"
exit 1
`)
	r := newTestRunner(t, toolchain, 0)

	results, cleanup, err := r.RunAll(context.Background(), []workspace.Project{testProject(t, "Core.Tests")}, types.DefaultAnalysisOptions())
	require.NoError(t, err)
	defer cleanup()

	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err, "exit code 1 means failed tests, not a failed run")
	assert.Contains(t, strings.Join(results[0].Output, "\n"), "Failed: 1")
}

func TestRunAll_LaunchFailureIsolated(t *testing.T) {
	good := writeFakeTool(t, `echo "Total: 1, Passed: 1, Failed: 0, Skipped: 0"`)

	// One project with a bad path, one healthy; the healthy one must still run.
	projects := []workspace.Project{
		{Name: "Broken.Tests", Path: filepath.Join(t.TempDir(), "does-not-exist")},
		testProject(t, "Good.Tests"),
	}

	r := newTestRunner(t, good, 0)
	results, cleanup, err := r.RunAll(context.Background(), projects, types.DefaultAnalysisOptions())
	require.NoError(t, err)
	defer cleanup()

	require.Len(t, results, 2)
	// Results are sorted by project name.
	assert.Equal(t, "Broken.Tests", results[0].ProjectName)
	assert.Error(t, results[0].Err)
	assert.Equal(t, "Good.Tests", results[1].ProjectName)
	assert.NoError(t, results[1].Err)
}

func TestRunAll_NonTestExitCodeIsAnError(t *testing.T) {
	toolchain := writeFakeTool(t, `exit 2`)
	r := newTestRunner(t, toolchain, 0)

	results, cleanup, err := r.RunAll(context.Background(), []workspace.Project{testProject(t, "Core.Tests")}, types.DefaultAnalysisOptions())
	require.NoError(t, err)
	defer cleanup()

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Empty(t, results[0].CoverageReport)
}

func TestRunAll_Timeout(t *testing.T) {
	toolchain := writeFakeTool(t, `sleep 30`)
	r := newTestRunner(t, toolchain, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	results, cleanup, err := r.RunAll(ctx, []workspace.Project{testProject(t, "Slow.Tests")}, types.DefaultAnalysisOptions())
	require.NoError(t, err)
	defer cleanup()

	require.Len(t, results, 1)
	assert.True(t, results[0].TimedOut)
	assert.Error(t, results[0].Err)
}

func TestRunAll_ParallelRunsAllProjects(t *testing.T) {
	toolchain := writeFakeTool(t, `echo "project $2"`)

	var projects []workspace.Project
	for _, name := range []string{"A.Tests", "B.Tests", "C.Tests", "D.Tests"} {
		projects = append(projects, testProject(t, name))
	}

	r := newTestRunner(t, toolchain, 2)
	results, cleanup, err := r.RunAll(context.Background(), projects, types.DefaultAnalysisOptions())
	require.NoError(t, err)
	defer cleanup()

	require.Len(t, results, 4)
	for i, name := range []string{"A.Tests", "B.Tests", "C.Tests", "D.Tests"} {
		assert.Equal(t, name, results[i].ProjectName)
		assert.NoError(t, results[i].Err)
	}
}

func TestRunAll_SerialMode(t *testing.T) {
	toolchain := writeFakeTool(t, `echo "ok"`)
	r := newTestRunner(t, toolchain, 4)

	opts := types.DefaultAnalysisOptions()
	opts.RunInParallel = false

	results, cleanup, err := r.RunAll(context.Background(), []workspace.Project{testProject(t, "A.Tests"), testProject(t, "B.Tests")}, opts)
	require.NoError(t, err)
	defer cleanup()
	assert.Len(t, results, 2)
}

func TestRunAll_NoProjects(t *testing.T) {
	r := newTestRunner(t, Toolchain{Binary: "sh"}, 0)
	results, cleanup, err := r.RunAll(context.Background(), nil, types.DefaultAnalysisOptions())
	require.NoError(t, err)
	defer cleanup()
	assert.Empty(t, results)
}

func TestWorkerCount(t *testing.T) {
	tests := []struct {
		name        string
		concurrency int
		projects    int
		want        int
	}{
		{name: "explicit cap", concurrency: 4, projects: 10, want: 4},
		{name: "capped by project count", concurrency: 8, projects: 3, want: 3},
		{name: "at least one", concurrency: 1, projects: 1, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(t, Toolchain{Binary: "sh"}, tt.concurrency)
			assert.Equal(t, tt.want, r.workerCount(tt.projects))
		})
	}

	t.Run("auto-determined is bounded", func(t *testing.T) {
		r := newTestRunner(t, Toolchain{Binary: "sh"}, 0)
		workers := r.workerCount(100)
		assert.GreaterOrEqual(t, workers, 1)
		assert.LessOrEqual(t, workers, MaxReasonableConcurrency)
	})
}

func TestToolchain_TestArgs(t *testing.T) {
	toolchain := Toolchain{Binary: "/usr/bin/dotnet"}

	opts := types.DefaultAnalysisOptions()
	args := toolchain.TestArgs("/ws/core-tests", "/tmp/results", opts)
	assert.Equal(t, []string{"test", "/ws/core-tests", "--collect", "XPlat Code Coverage", "--results-directory", "/tmp/results"}, args)

	opts.TestFilter = "Category=Unit"
	args = toolchain.TestArgs("/ws/core-tests", "/tmp/results", opts)
	assert.Equal(t, "--filter", args[len(args)-2])
	assert.Equal(t, "Category=Unit", args[len(args)-1])
}

func TestLocateToolchain(t *testing.T) {
	toolchain, err := LocateToolchain("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, toolchain.Binary)

	_, err = LocateToolchain("definitely-not-a-real-binary-name")
	assert.Error(t, err)
}

func TestFindCoverageReport(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	older := filepath.Join(dir, "a", "coverage.cobertura.xml")
	newer := filepath.Join(nested, "coverage.cobertura.xml")
	require.NoError(t, os.WriteFile(older, []byte("<coverage/>"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("<coverage/>"), 0o644))

	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)))

	assert.Equal(t, newer, findCoverageReport(dir))
	assert.Empty(t, findCoverageReport(t.TempDir()))
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"one"}, splitLines("one\n"))
	assert.Equal(t, []string{"one", "two"}, splitLines("one\ntwo"))
}
