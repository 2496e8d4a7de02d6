package coverage

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-coverage/types"
)

// PrintAnalysisTable renders one coverage snapshot as a per-project table with
// file rows nested under each project and an overall footer.
func PrintAnalysisTable(w io.Writer, result *types.CoverageAnalysisResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Coverage Analysis Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{
		"Type", "Name", "Lines", "Covered", "Line %", "Branch %", "Method %",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "Name", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Lines", Align: text.AlignRight},
		{Name: "Covered", Align: text.AlignRight},
		{Name: "Line %", Align: text.AlignRight},
		{Name: "Branch %", Align: text.AlignRight},
		{Name: "Method %", Align: text.AlignRight},
	})

	for _, project := range result.Projects {
		t.AppendRow(table.Row{
			"Project",
			project.Name,
			project.Summary.TotalLines,
			project.Summary.CoveredLines,
			formatPercent(project.Summary.LinesCoveredPercentage),
			formatPercent(project.Summary.BranchesCoveredPercentage),
			formatPercent(project.Summary.MethodsCoveredPercentage),
		})

		for i, file := range project.Files {
			prefix := "├──"
			if i == len(project.Files)-1 {
				prefix = "└──"
			}
			t.AppendRow(table.Row{
				"File",
				fmt.Sprintf("%s %s", prefix, file.Path),
				file.Summary.TotalLines,
				file.Summary.CoveredLines,
				formatPercent(file.Summary.LinesCoveredPercentage),
				formatPercent(file.Summary.BranchesCoveredPercentage),
				formatPercent(file.Summary.MethodsCoveredPercentage),
			})
		}
		t.AppendSeparator()
	}

	if result.Success && result.TestResults.FailedTests == 0 {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else if result.Success {
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		result.Summary.TotalLines,
		result.Summary.CoveredLines,
		formatPercent(result.Summary.LinesCoveredPercentage),
		formatPercent(result.Summary.BranchesCoveredPercentage),
		formatPercent(result.Summary.MethodsCoveredPercentage),
	})

	t.Render()
}

// PrintTestSummaryTable renders the merged test execution totals, with one row
// per extracted failure when tests failed.
func PrintTestSummaryTable(w io.Writer, summary types.TestExecutionSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Test Execution")

	t.AppendHeader(table.Row{"Tests", "Passed", "Failed", "Skipped", "Duration"})
	t.AppendRow(table.Row{
		summary.TotalTests,
		summary.PassedTests,
		summary.FailedTests,
		summary.SkippedTests,
		formatDuration(summary.ExecutionTime),
	})

	if summary.FailedTests == 0 {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}
	t.Render()

	if len(summary.Failures) == 0 {
		return
	}

	ft := table.NewWriter()
	ft.SetOutputMirror(w)
	ft.SetTitle("Failed Tests")
	ft.AppendHeader(table.Row{"Test", "Message"})
	ft.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Message", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})
	for _, failure := range summary.Failures {
		name := failure.Name
		if failure.Class != "" {
			name = failure.Class + "." + failure.Name
		}
		ft.AppendRow(table.Row{name, failure.Message})
	}
	ft.SetStyle(table.StyleColoredBlackOnRedWhite)
	ft.Render()
}

// PrintUncoveredTable renders the zero-coverage report.
func PrintUncoveredTable(w io.Writer, uncovered *types.UncoveredCodeResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Uncovered Code (%d methods, %d lines, %d branches)",
		len(uncovered.Methods), len(uncovered.Lines), len(uncovered.Branches)))

	t.AppendHeader(table.Row{"Kind", "Project", "Location", "Lines"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Kind", AutoMerge: true},
		{Name: "Location", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Lines", Align: text.AlignRight},
	})

	for _, m := range uncovered.Methods {
		t.AppendRow(table.Row{
			"Method",
			m.ProjectName,
			fmt.Sprintf("%s::%s", m.ClassName, m.MethodName),
			fmt.Sprintf("%d-%d", m.StartLine, m.EndLine),
		})
	}
	for _, l := range uncovered.Lines {
		t.AppendRow(table.Row{
			"Line",
			l.ProjectName,
			fmt.Sprintf("%s:%d", l.FilePath, l.LineNumber),
			l.LineNumber,
		})
	}
	for _, b := range uncovered.Branches {
		t.AppendRow(table.Row{
			"Branch",
			b.ProjectName,
			fmt.Sprintf("%s:%d (branch %d)", b.FilePath, b.LineNumber, b.BranchNumber),
			b.LineNumber,
		})
	}

	if len(uncovered.Methods) == 0 && len(uncovered.Lines) == 0 && len(uncovered.Branches) == 0 {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	}
	t.Render()
}

// PrintComparisonTable renders the movement between a baseline and the current
// snapshot.
func PrintComparisonTable(w io.Writer, comparison *types.CoverageComparisonResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Coverage Comparison: %s", comparison.Status))

	t.AppendHeader(table.Row{"Metric", "Baseline %", "Current %", "Delta (pp)", "Covered Δ"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Baseline %", Align: text.AlignRight},
		{Name: "Current %", Align: text.AlignRight},
		{Name: "Delta (pp)", Align: text.AlignRight},
		{Name: "Covered Δ", Align: text.AlignRight},
	})

	appendMetric := func(name string, baseline, current float64, delta types.MetricDelta) {
		t.AppendRow(table.Row{
			name,
			formatPercent(baseline),
			formatPercent(current),
			fmt.Sprintf("%+.2f", delta.PercentagePoints),
			fmt.Sprintf("%+d", delta.CoveredDelta),
		})
	}
	appendMetric("Lines", comparison.Baseline.LinesCoveredPercentage, comparison.Current.LinesCoveredPercentage, comparison.Delta.Lines)
	appendMetric("Branches", comparison.Baseline.BranchesCoveredPercentage, comparison.Current.BranchesCoveredPercentage, comparison.Delta.Branches)
	appendMetric("Methods", comparison.Baseline.MethodsCoveredPercentage, comparison.Current.MethodsCoveredPercentage, comparison.Delta.Methods)
	appendMetric("Classes", comparison.Baseline.ClassesCoveredPercentage, comparison.Current.ClassesCoveredPercentage, comparison.Delta.Classes)

	switch comparison.Status {
	case types.ComparisonImproved:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.ComparisonRegressed:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	}
	t.Render()

	printFileList(w, "Improved files", comparison.ImprovedFiles)
	printFileList(w, "Regressed files", comparison.RegressedFiles)
	printFileList(w, "Added files", comparison.AddedFiles)
	printFileList(w, "Removed files", comparison.RemovedFiles)
	printFileList(w, "Newly covered methods", comparison.NewlyCoveredMethods)
	printFileList(w, "Newly uncovered methods", comparison.NewlyUncoveredMethods)
}

func printFileList(w io.Writer, title string, entries []string) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d):\n", title, len(entries))
	for _, entry := range entries {
		fmt.Fprintf(w, "  %s\n", entry)
	}
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
