// Package runner executes one external test process per selected test
// project, with per-project timeouts, partial-failure isolation, and optional
// parallel fan-out.
package runner

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-coverage/types"
	"github.com/ethereum-optimism/infra/op-coverage/workspace"
)

// Config configures a Runner.
type Config struct {
	Toolchain Toolchain
	Log       log.Logger
	// Concurrency is the worker cap for parallel runs. Zero auto-determines
	// from the machine.
	Concurrency int
	// ScratchDir roots the per-run results directories. Empty uses the
	// system temp directory.
	ScratchDir string
}

// Runner runs test suites for the selected projects.
type Runner struct {
	toolchain   Toolchain
	log         log.Logger
	concurrency int
	scratchDir  string
}

// NewRunner creates a runner with validation.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Toolchain.Binary == "" {
		return nil, fmt.Errorf("toolchain is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency cannot be negative")
	}
	if cfg.Concurrency > MaxReasonableConcurrency {
		cfg.Log.Warn("Very high concurrency requested", "concurrency", cfg.Concurrency)
	}

	return &Runner{
		toolchain:   cfg.Toolchain,
		log:         cfg.Log,
		concurrency: cfg.Concurrency,
		scratchDir:  cfg.ScratchDir,
	}, nil
}

// RunAll executes every selected test project and returns one result per
// project. The returned cleanup function removes the coverage artifacts; call
// it once the reports have been parsed. RunAll itself only fails when the
// scratch space cannot be created — individual project failures are carried
// in their results.
func (r *Runner) RunAll(ctx context.Context, projects []workspace.Project, opts types.CoverageAnalysisOptions) ([]RunResult, func(), error) {
	scratchRoot, err := os.MkdirTemp(r.scratchDir, "op-coverage-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(scratchRoot) }

	if len(projects) == 0 {
		r.log.Debug("No test projects to run")
		return nil, cleanup, nil
	}

	workers := 1
	if opts.RunInParallel {
		workers = r.workerCount(len(projects))
	}
	r.log.Info("Starting test execution", "projects", len(projects), "workers", workers)

	results := r.runWithWorkers(ctx, projects, opts, scratchRoot, workers)

	// Parallel completion order is nondeterministic; sort by project name so
	// repeated runs produce stable output. Consumers key by name regardless.
	sort.Slice(results, func(i, j int) bool {
		return results[i].ProjectName < results[j].ProjectName
	})

	return results, cleanup, nil
}

// runWithWorkers fans the projects out to a bounded worker pool and fans the
// results back in. Each worker owns its in-flight project; results cross only
// the result channel, which is drained by a single collector.
func (r *Runner) runWithWorkers(ctx context.Context, projects []workspace.Project, opts types.CoverageAnalysisOptions, scratchRoot string, workers int) []RunResult {
	workChan := make(chan workspace.Project, len(projects))
	resultChan := make(chan RunResult, len(projects))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case project, ok := <-workChan:
					if !ok {
						return
					}
					// The result channel is buffered to the project count, so
					// this send cannot block even during shutdown.
					resultChan <- r.executeProject(ctx, project, opts, scratchRoot)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for _, p := range projects {
		workChan <- p
	}
	close(workChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var results []RunResult
	for result := range resultChan {
		if result.Err != nil {
			r.log.Error("Project test run failed", "project", result.ProjectName, "error", result.Err, "timedOut", result.TimedOut)
		} else {
			r.log.Info("Project test run completed", "project", result.ProjectName, "duration", result.Duration)
		}
		results = append(results, result)
	}

	return results
}

func (r *Runner) workerCount(projects int) int {
	workers := r.concurrency
	if workers == 0 {
		workers = runtime.NumCPU()
		if workers > MaxReasonableConcurrency {
			workers = MaxReasonableConcurrency
		}
	}
	if workers > projects {
		workers = projects
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
