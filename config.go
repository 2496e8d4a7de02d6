package coverage

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-coverage/flags"
	"github.com/ethereum-optimism/infra/op-coverage/types"
)

// Config holds the application configuration
type Config struct {
	Workspace       string        // Path to the workspace manifest or its directory
	TestBinary      string        // Test toolchain binary
	TimeoutMinutes  int           // Per-project test timeout
	Serial          bool          // Run test projects one at a time
	Concurrency     int           // Number of concurrent project workers (0 = auto-determine)
	IncludeProjects []string      // Only run these test projects
	ExcludeProjects []string      // Skip these test projects
	ExcludedFiles   []string      // Drop coverage entries matching these path fragments
	TestFilter      string        // Filter expression for the test toolchain
	ShowUncovered   bool          // Print uncovered code after the analysis
	Baseline        string        // Baseline snapshot to compare against
	Output          string        // JSON output file
	LogDir          string        // Directory to store test transcripts
	RunInterval     time.Duration // Interval between analysis runs
	RunOnce         bool          // Indicates if the service should exit after one run
	Log             log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	workspacePath := ctx.String(flags.Workspace.Name)
	if workspacePath == "" {
		return nil, errors.New("workspace path is required")
	}
	absWorkspace, err := filepath.Abs(workspacePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for workspace '%s': %w", workspacePath, err)
	}

	logDir := ctx.String(flags.LogDir.Name)
	if logDir != "" {
		logDir, err = filepath.Abs(logDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for log directory: %w", err)
		}
	}

	timeoutMinutes := ctx.Int(flags.TimeoutMinutes.Name)
	if timeoutMinutes <= 0 {
		timeoutMinutes = types.DefaultTimeoutMinutes
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	var baseline string
	if b := ctx.String(flags.Baseline.Name); b != "" {
		baseline, err = filepath.Abs(b)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for baseline '%s': %w", b, err)
		}
	}

	return &Config{
		Workspace:       absWorkspace,
		TestBinary:      ctx.String(flags.TestBinary.Name),
		TimeoutMinutes:  timeoutMinutes,
		Serial:          ctx.Bool(flags.Serial.Name),
		Concurrency:     ctx.Int(flags.Concurrency.Name),
		IncludeProjects: ctx.StringSlice(flags.IncludeProject.Name),
		ExcludeProjects: ctx.StringSlice(flags.ExcludeProject.Name),
		ExcludedFiles:   ctx.StringSlice(flags.ExcludeFile.Name),
		TestFilter:      ctx.String(flags.TestFilter.Name),
		ShowUncovered:   ctx.Bool(flags.ShowUncovered.Name),
		Baseline:        baseline,
		Output:          ctx.String(flags.Output.Name),
		LogDir:          logDir,
		RunInterval:     runInterval,
		RunOnce:         runOnce,
		Log:             logger,
	}, nil
}

// AnalysisOptions translates the CLI configuration into per-run options.
func (c *Config) AnalysisOptions() types.CoverageAnalysisOptions {
	opts := types.DefaultAnalysisOptions()
	opts.IncludeTestProjects = c.IncludeProjects
	opts.ExcludeTestProjects = c.ExcludeProjects
	opts.ExcludedFiles = c.ExcludedFiles
	opts.TimeoutMinutes = c.TimeoutMinutes
	opts.RunInParallel = !c.Serial
	opts.TestFilter = c.TestFilter
	return opts
}
