package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-coverage/types"
)

// TextSummarySink writes a plain-text run summary next to the transcripts.
type TextSummarySink struct {
	baseDir        string
	includeClasses bool
}

// NewTextSummarySink creates a text summary sink rooted at baseDir.
func NewTextSummarySink(baseDir string, includeClasses bool) *TextSummarySink {
	return &TextSummarySink{baseDir: baseDir, includeClasses: includeClasses}
}

// Complete generates the text summary file for the run.
func (s *TextSummarySink) Complete(runID string, result *types.CoverageAnalysisResult) error {
	outputDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	summaryFile := filepath.Join(outputDir, "summary.log")
	if err := os.WriteFile(summaryFile, []byte(s.format(result)), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

func (s *TextSummarySink) format(result *types.CoverageAnalysisResult) string {
	var b strings.Builder

	status := "SUCCESS"
	if !result.Success {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "Coverage Analysis %s (%s)\n", status, result.Duration.Round(time.Millisecond))
	if result.ErrorMessage != "" {
		fmt.Fprintf(&b, "Note: %s\n", result.ErrorMessage)
	}
	fmt.Fprintf(&b, "\nLines:    %d/%d (%.2f%%)\n", result.Summary.CoveredLines, result.Summary.TotalLines, result.Summary.LinesCoveredPercentage)
	fmt.Fprintf(&b, "Branches: %d/%d (%.2f%%)\n", result.Summary.CoveredBranches, result.Summary.TotalBranches, result.Summary.BranchesCoveredPercentage)
	fmt.Fprintf(&b, "Methods:  %d/%d (%.2f%%)\n", result.Summary.CoveredMethods, result.Summary.TotalMethods, result.Summary.MethodsCoveredPercentage)
	fmt.Fprintf(&b, "Classes:  %d/%d (%.2f%%)\n", result.Summary.CoveredClasses, result.Summary.TotalClasses, result.Summary.ClassesCoveredPercentage)

	fmt.Fprintf(&b, "\nTests: %d total, %d passed, %d failed, %d skipped\n",
		result.TestResults.TotalTests, result.TestResults.PassedTests,
		result.TestResults.FailedTests, result.TestResults.SkippedTests)

	for _, project := range result.Projects {
		fmt.Fprintf(&b, "\n%s: %.2f%% lines\n", project.Name, project.Summary.LinesCoveredPercentage)
		for _, file := range project.Files {
			fmt.Fprintf(&b, "  %-50s %.2f%%\n", file.Path, file.Summary.LinesCoveredPercentage)
		}
		if s.includeClasses {
			for _, class := range project.Classes {
				fmt.Fprintf(&b, "    %s.%s: %.2f%%\n", class.Namespace, class.Name, class.Summary.LinesCoveredPercentage)
			}
		}
	}

	if len(result.TestResults.Failures) > 0 {
		b.WriteString("\nFailed tests:\n")
		for _, failure := range result.TestResults.Failures {
			fmt.Fprintf(&b, "  %s.%s\n", failure.Class, failure.Name)
			if failure.Message != "" {
				fmt.Fprintf(&b, "    %s\n", strings.ReplaceAll(failure.Message, "\n", "\n    "))
			}
		}
	}

	return b.String()
}
