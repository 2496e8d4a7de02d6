package runner

import (
	"fmt"
	"os/exec"

	"github.com/ethereum-optimism/infra/op-coverage/types"
)

// Toolchain is the located external test tool. It is resolved once at startup
// and passed down as a dependency rather than re-discovered per run.
type Toolchain struct {
	// Binary is the resolved path of the test tool.
	Binary string
}

// LocateToolchain resolves the test tool binary on PATH. An empty binary name
// selects the default tool.
func LocateToolchain(binary string) (Toolchain, error) {
	if binary == "" {
		binary = DefaultTestBinary
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return Toolchain{}, fmt.Errorf("test tool %q not found: %w", binary, err)
	}
	return Toolchain{Binary: path}, nil
}

// TestArgs builds the argument list for one project's test invocation with
// coverage collection enabled.
func (t Toolchain) TestArgs(projectPath, resultsDir string, opts types.CoverageAnalysisOptions) []string {
	args := []string{
		TestCommand,
		projectPath,
		CollectFlag, CoverageCollector,
		ResultsDirectoryFlag, resultsDir,
	}
	if opts.TestFilter != "" {
		args = append(args, FilterFlag, opts.TestFilter)
	}
	return args
}
