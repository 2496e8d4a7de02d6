package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "OP_COVERAGE"

// prefixEnvVars adds the application env-var prefix to a flag's env name.
func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Workspace = &cli.StringFlag{
		Name:     "workspace",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("WORKSPACE"),
		Usage:    "Path to the workspace manifest or the directory containing it",
	}
	TestBinary = &cli.StringFlag{
		Name:    "test-binary",
		Value:   "dotnet",
		EnvVars: prefixEnvVars("TEST_BINARY"),
		Usage:   "Path to the test toolchain binary used to run project tests",
	}
	TimeoutMinutes = &cli.IntFlag{
		Name:    "timeout-minutes",
		Value:   10,
		EnvVars: prefixEnvVars("TIMEOUT_MINUTES"),
		Usage:   "Per-project test execution timeout in minutes",
	}
	Serial = &cli.BoolFlag{
		Name:    "serial",
		Value:   false,
		EnvVars: prefixEnvVars("SERIAL"),
		Usage:   "Run test projects one at a time instead of in parallel",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: prefixEnvVars("CONCURRENCY"),
		Usage:   "Number of concurrent project workers (0 = auto-determine based on CPU count)",
	}
	IncludeProject = &cli.StringSliceFlag{
		Name:    "include-project",
		EnvVars: prefixEnvVars("INCLUDE_PROJECT"),
		Usage:   "Only analyze the named test projects (repeatable)",
	}
	ExcludeProject = &cli.StringSliceFlag{
		Name:    "exclude-project",
		EnvVars: prefixEnvVars("EXCLUDE_PROJECT"),
		Usage:   "Skip the named test projects (repeatable, wins over --include-project)",
	}
	ExcludeFile = &cli.StringSliceFlag{
		Name:    "exclude-file",
		EnvVars: prefixEnvVars("EXCLUDE_FILE"),
		Usage:   "Drop coverage entries whose file path contains the given fragment (repeatable)",
	}
	TestFilter = &cli.StringFlag{
		Name:    "test-filter",
		Value:   "",
		EnvVars: prefixEnvVars("TEST_FILTER"),
		Usage:   "Filter expression passed through to the test toolchain",
	}
	ShowUncovered = &cli.BoolFlag{
		Name:    "show-uncovered",
		Value:   false,
		EnvVars: prefixEnvVars("SHOW_UNCOVERED"),
		Usage:   "Print uncovered methods, lines and branches after the analysis",
	}
	Baseline = &cli.StringFlag{
		Name:    "baseline",
		Value:   "",
		EnvVars: prefixEnvVars("BASELINE"),
		Usage:   "Path to a baseline analysis snapshot (JSON) to compare against",
	}
	Output = &cli.StringFlag{
		Name:    "output",
		Value:   "",
		EnvVars: prefixEnvVars("OUTPUT"),
		Usage:   "Write the analysis result as JSON to the given file",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: prefixEnvVars("LOGDIR"),
		Usage:   "Directory to store per-run test transcripts",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between analysis runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log.level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "The lowest log level that will be output (trace, debug, info, warn, error, crit)",
	}
)

var requiredFlags = []cli.Flag{
	Workspace,
}

var optionalFlags = []cli.Flag{
	TestBinary,
	TimeoutMinutes,
	Serial,
	Concurrency,
	IncludeProject,
	ExcludeProject,
	ExcludeFile,
	TestFilter,
	ShowUncovered,
	Baseline,
	Output,
	LogDir,
	RunInterval,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
