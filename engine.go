// Package coverage is the workspace coverage-analysis engine. It discovers
// test projects, runs their suites under coverage instrumentation, and folds
// the raw outputs into one normalized, queryable coverage snapshot.
package coverage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-coverage/analysis"
	"github.com/ethereum-optimism/infra/op-coverage/discovery"
	"github.com/ethereum-optimism/infra/op-coverage/logging"
	"github.com/ethereum-optimism/infra/op-coverage/metrics"
	"github.com/ethereum-optimism/infra/op-coverage/parser"
	"github.com/ethereum-optimism/infra/op-coverage/reporting"
	"github.com/ethereum-optimism/infra/op-coverage/runner"
	"github.com/ethereum-optimism/infra/op-coverage/types"
	"github.com/ethereum-optimism/infra/op-coverage/workspace"
)

// ErrNoWorkspace is returned by the value-returning operations when no
// workspace has been loaded; the result-returning operations carry the same
// condition in their error message.
var ErrNoWorkspace = errors.New("no workspace loaded")

const noWorkspaceMessage = "no workspace loaded; load a workspace before requesting coverage analysis"

// EngineConfig configures an Engine.
type EngineConfig struct {
	Log       log.Logger
	Toolchain runner.Toolchain
	// Concurrency caps the parallel test workers. Zero auto-determines.
	Concurrency int
	// LogDir, when set, receives per-run test transcripts.
	LogDir string
}

// Engine owns the session workspace handle and exposes the public coverage
// operations. All operations are safe to call repeatedly and never panic;
// failures are reported through their results.
type Engine struct {
	log         log.Logger
	runner      *runner.Runner
	logDir      string
	concurrency int
	sinks       []reporting.Sink

	mu sync.RWMutex
	ws *workspace.Workspace
}

// NewEngine creates an engine around an already-located toolchain.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}

	testRunner, err := runner.NewRunner(runner.Config{
		Toolchain:   cfg.Toolchain,
		Log:         cfg.Log,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test runner: %w", err)
	}

	var sinks []reporting.Sink
	if cfg.LogDir != "" {
		sinks = append(sinks, reporting.NewTextSummarySink(cfg.LogDir, false))
		htmlSink, err := reporting.NewHTMLSink(cfg.LogDir, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create HTML report sink: %w", err)
		}
		sinks = append(sinks, htmlSink)
	}

	return &Engine{
		log:         cfg.Log,
		runner:      testRunner,
		logDir:      cfg.LogDir,
		concurrency: cfg.Concurrency,
		sinks:       sinks,
	}, nil
}

// LoadWorkspace loads the workspace the session analyzes. It may be called
// again to switch workspaces.
func (e *Engine) LoadWorkspace(path string) error {
	ws, err := workspace.Load(path, e.log)
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}

	e.mu.Lock()
	e.ws = ws
	e.mu.Unlock()
	return nil
}

func (e *Engine) workspace() *workspace.Workspace {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ws
}

// RunCoverageAnalysis executes the selected test projects and returns a fresh
// coverage snapshot. Per-project failures (timeouts, launch errors) are
// isolated: the snapshot still carries every succeeding project's data, with
// the failures named in the error message.
func (e *Engine) RunCoverageAnalysis(ctx context.Context, opts types.CoverageAnalysisOptions) *types.CoverageAnalysisResult {
	start := time.Now()
	result := &types.CoverageAnalysisResult{Timestamp: start}

	ws := e.workspace()
	if ws == nil {
		result.ErrorMessage = noWorkspaceMessage
		return result
	}

	runID := uuid.New().String()
	e.log.Info("Starting coverage analysis", "run_id", runID, "parallel", opts.RunInParallel, "timeout", opts.Timeout())

	selected := discovery.SelectTestProjects(ws.Projects, opts, e.log)
	if len(selected) == 0 {
		result.Success = true
		result.ErrorMessage = "no test projects selected"
		result.Duration = time.Since(start)
		return result
	}

	runResults, cleanup, err := e.runner.RunAll(ctx, selected, opts)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("test execution failed: %v", err)
		result.Duration = time.Since(start)
		metrics.RecordError("test_execution")
		return result
	}
	defer cleanup()

	var projects []types.ProjectCoverage
	var failed []string
	for _, rr := range runResults {
		result.TestResults.Merge(parser.ParseTestResults(rr.Output))

		if rr.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", rr.ProjectName, rr.Err))
			metrics.RecordErrorDetails("project_run", rr.Err)
			continue
		}
		if rr.CoverageReport == "" {
			continue
		}

		parsed, err := e.parseReportFile(rr.CoverageReport)
		if err != nil {
			e.log.Warn("Failed to parse coverage report", "project", rr.ProjectName, "path", rr.CoverageReport, "error", err)
			metrics.RecordErrorDetails("report_parse", err)
			continue
		}
		projects = analysis.MergeProjects(projects, parsed)
	}

	result.Projects = analysis.FilterProjects(projects, opts)
	analysis.CalculateOverallSummary(result)
	result.Duration = time.Since(start)

	switch {
	case len(failed) == len(runResults):
		result.ErrorMessage = fmt.Sprintf("all %d test projects failed: %s", len(failed), strings.Join(failed, "; "))
	case len(failed) > 0:
		result.Success = true
		result.ErrorMessage = fmt.Sprintf("%d of %d test projects failed: %s", len(failed), len(runResults), strings.Join(failed, "; "))
	default:
		result.Success = true
	}

	e.persistTranscripts(runID, runResults)
	e.persistReports(runID, result)
	metrics.RecordAnalysis(runID, result)

	e.log.Info("Coverage analysis completed",
		"run_id", runID,
		"success", result.Success,
		"projects", len(result.Projects),
		"lines_pct", result.Summary.LinesCoveredPercentage,
		"duration", result.Duration)
	return result
}

func (e *Engine) parseReportFile(path string) ([]types.ProjectCoverage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coverage report: %w", err)
	}
	defer f.Close()
	return parser.ParseReport(f, e.log)
}

// persistTranscripts writes the per-project test output under the configured
// log directory. Persistence failures are logged, never fatal.
func (e *Engine) persistTranscripts(runID string, runResults []runner.RunResult) {
	if e.logDir == "" {
		return
	}

	runLog, err := logging.NewRunLogger(e.logDir, runID, e.log)
	if err != nil {
		e.log.Warn("Failed to create run log directory", "error", err)
		return
	}
	for _, rr := range runResults {
		if len(rr.Output) == 0 {
			continue
		}
		if err := runLog.WriteTranscript(rr.ProjectName, rr.Output); err != nil {
			e.log.Warn("Failed to persist transcript", "project", rr.ProjectName, "error", err)
		}
	}
}

// persistReports renders the snapshot through the configured report sinks.
// Report failures are logged, never fatal.
func (e *Engine) persistReports(runID string, result *types.CoverageAnalysisResult) {
	for _, sink := range e.sinks {
		if err := sink.Complete(runID, result); err != nil {
			e.log.Warn("Failed to write run report", "run_id", runID, "error", err)
		}
	}
}
