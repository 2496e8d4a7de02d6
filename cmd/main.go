package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	coverage "github.com/ethereum-optimism/infra/op-coverage"
	"github.com/ethereum-optimism/infra/op-coverage/analysis"
	"github.com/ethereum-optimism/infra/op-coverage/exitcodes"
	"github.com/ethereum-optimism/infra/op-coverage/flags"
	"github.com/ethereum-optimism/infra/op-coverage/runner"
	"github.com/ethereum-optimism/infra/op-coverage/service"
	"github.com/ethereum-optimism/infra/op-coverage/types"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-coverage"
	app.Usage = "Workspace Coverage Analysis Service"
	app.Description = "op-coverage runs a workspace's test suites under coverage instrumentation and reports aggregated results"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// Use the exit code from the ExitCoder
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			// Check for typed runtime errors
			if coverage.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if coverage.IsTestFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			} else {
				// For other unspecified errors, default to exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server
	svc := service.New()
	svc.Start(ctx)
	defer svc.Shutdown()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(cliCtx *cli.Context) error {
	logger, err := setupLogger(cliCtx.String(flags.LogLevel.Name))
	if err != nil {
		return coverage.NewRuntimeError(err)
	}

	cfg, err := coverage.NewConfig(cliCtx, logger)
	if err != nil {
		return coverage.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	toolchain, err := runner.LocateToolchain(cfg.TestBinary)
	if err != nil {
		return coverage.NewRuntimeError(fmt.Errorf("failed to locate test toolchain: %w", err))
	}
	logger.Info("Located test toolchain", "binary", toolchain.Binary)

	engine, err := coverage.NewEngine(coverage.EngineConfig{
		Log:         logger,
		Toolchain:   toolchain,
		Concurrency: cfg.Concurrency,
		LogDir:      cfg.LogDir,
	})
	if err != nil {
		return coverage.NewRuntimeError(fmt.Errorf("failed to create engine: %w", err))
	}

	if err := engine.LoadWorkspace(cfg.Workspace); err != nil {
		return coverage.NewRuntimeError(err)
	}

	if cfg.RunOnce {
		return runAnalysis(cliCtx.Context, engine, cfg)
	}
	return runPeriodically(cliCtx.Context, engine, cfg)
}

// runPeriodically re-runs the analysis on the configured interval until the
// context is cancelled. Per-run failures are logged, not fatal.
func runPeriodically(ctx context.Context, engine *coverage.Engine, cfg *coverage.Config) error {
	cfg.Log.Info("Running in continuous mode", "interval", cfg.RunInterval)

	ticker := time.NewTicker(cfg.RunInterval)
	defer ticker.Stop()

	if err := runAnalysis(ctx, engine, cfg); err != nil {
		cfg.Log.Error("Analysis run failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			cfg.Log.Info("Shutting down")
			return nil
		case <-ticker.C:
			if err := runAnalysis(ctx, engine, cfg); err != nil {
				cfg.Log.Error("Analysis run failed", "error", err)
			}
		}
	}
}

func runAnalysis(ctx context.Context, engine *coverage.Engine, cfg *coverage.Config) error {
	opts := cfg.AnalysisOptions()

	if cfg.Baseline != "" {
		baseline, err := loadBaseline(cfg.Baseline)
		if err != nil {
			return coverage.NewRuntimeError(fmt.Errorf("failed to load baseline: %w", err))
		}
		comparison := engine.CompareCoverage(ctx, baseline, opts)
		coverage.PrintComparisonTable(os.Stdout, comparison)
		if err := writeOutput(cfg.Output, comparison); err != nil {
			return coverage.NewRuntimeError(err)
		}
		if !comparison.Success {
			return coverage.NewRuntimeError(errors.New(comparison.ErrorMessage))
		}
		if comparison.Status == types.ComparisonRegressed {
			return coverage.NewTestFailureError("coverage regressed against baseline")
		}
		return nil
	}

	result := engine.RunCoverageAnalysis(ctx, opts)
	coverage.PrintAnalysisTable(os.Stdout, result)
	coverage.PrintTestSummaryTable(os.Stdout, result.TestResults)
	if cfg.ShowUncovered {
		coverage.PrintUncoveredTable(os.Stdout, analysis.FindUncovered(result, opts))
	}
	if err := writeOutput(cfg.Output, result); err != nil {
		return coverage.NewRuntimeError(err)
	}

	if !result.Success {
		return coverage.NewRuntimeError(errors.New(result.ErrorMessage))
	}
	if result.TestResults.FailedTests > 0 {
		return coverage.NewTestFailureError(fmt.Sprintf("%d tests failed", result.TestResults.FailedTests))
	}
	return nil
}

func loadBaseline(path string) (*types.CoverageAnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var baseline types.CoverageAnalysisResult
	if err := json.Unmarshal(data, &baseline); err != nil {
		return nil, fmt.Errorf("failed to parse baseline snapshot '%s': %w", path, err)
	}
	return &baseline, nil
}

func writeOutput(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func setupLogger(level string) (log.Logger, error) {
	lvl, err := lvlFromString(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)
	logger := log.NewLogger(handler)
	log.SetDefault(logger)
	return logger, nil
}

// lvlFromString replicates go-ethereum's legacy log.LvlFromString, which was
// removed when the log package migrated to slog.
func lvlFromString(lvlString string) (slog.Level, error) {
	switch lvlString {
	case "trace", "trce":
		return log.LevelTrace, nil
	case "debug", "dbug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error", "eror":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelDebug, fmt.Errorf("unknown level: %v", lvlString)
	}
}
