package reporting

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-coverage/types"
)

// HTMLSink generates a self-contained HTML report per run.
type HTMLSink struct {
	baseDir  string
	template *template.Template
}

// NewHTMLSink creates an HTML sink rooted at baseDir. A custom template may
// be supplied; empty selects the built-in one.
func NewHTMLSink(baseDir, templateContent string) (*HTMLSink, error) {
	if templateContent == "" {
		templateContent = defaultHTMLTemplate
	}

	tmpl, err := template.New("coverage").Funcs(template.FuncMap{
		"percentClass": percentClass,
		"formatPct":    func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
		"lower":        strings.ToLower,
	}).Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}

	return &HTMLSink{baseDir: baseDir, template: tmpl}, nil
}

type htmlReport struct {
	RunID     string
	Generated time.Time
	Result    *types.CoverageAnalysisResult
}

// Complete generates the HTML report file for the run.
func (s *HTMLSink) Complete(runID string, result *types.CoverageAnalysisResult) error {
	outputDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	f, err := os.Create(filepath.Join(outputDir, "results.html"))
	if err != nil {
		return fmt.Errorf("failed to create HTML file: %w", err)
	}
	defer f.Close()

	report := htmlReport{RunID: runID, Generated: time.Now(), Result: result}
	if err := s.template.Execute(f, report); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

const defaultHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Coverage Report {{.RunID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 0.3em 0.8em; text-align: left; }
td.num { text-align: right; }
.high { background: #d4edda; }
.medium { background: #fff3cd; }
.low { background: #f8d7da; }
.failed { color: #a00; }
</style>
</head>
<body>
<h1>Coverage Report</h1>
<p>Run {{.RunID}} &middot; generated {{.Generated.Format "2006-01-02 15:04:05"}}</p>
{{if not .Result.Success}}<p class="failed">{{.Result.ErrorMessage}}</p>{{end}}

<h2>Overall</h2>
<table>
<tr><th>Metric</th><th>Covered</th><th>Total</th><th>Percentage</th></tr>
<tr class="{{percentClass .Result.Summary.LinesCoveredPercentage}}"><td>Lines</td><td class="num">{{.Result.Summary.CoveredLines}}</td><td class="num">{{.Result.Summary.TotalLines}}</td><td class="num">{{formatPct .Result.Summary.LinesCoveredPercentage}}</td></tr>
<tr class="{{percentClass .Result.Summary.BranchesCoveredPercentage}}"><td>Branches</td><td class="num">{{.Result.Summary.CoveredBranches}}</td><td class="num">{{.Result.Summary.TotalBranches}}</td><td class="num">{{formatPct .Result.Summary.BranchesCoveredPercentage}}</td></tr>
<tr class="{{percentClass .Result.Summary.MethodsCoveredPercentage}}"><td>Methods</td><td class="num">{{.Result.Summary.CoveredMethods}}</td><td class="num">{{.Result.Summary.TotalMethods}}</td><td class="num">{{formatPct .Result.Summary.MethodsCoveredPercentage}}</td></tr>
<tr class="{{percentClass .Result.Summary.ClassesCoveredPercentage}}"><td>Classes</td><td class="num">{{.Result.Summary.CoveredClasses}}</td><td class="num">{{.Result.Summary.TotalClasses}}</td><td class="num">{{formatPct .Result.Summary.ClassesCoveredPercentage}}</td></tr>
</table>

<h2>Tests</h2>
<p>{{.Result.TestResults.TotalTests}} total, {{.Result.TestResults.PassedTests}} passed,
{{.Result.TestResults.FailedTests}} failed, {{.Result.TestResults.SkippedTests}} skipped</p>
{{if .Result.TestResults.Failures}}
<ul>
{{range .Result.TestResults.Failures}}<li class="failed">{{.Class}}.{{.Name}}{{if .Message}} &mdash; {{.Message}}{{end}}</li>
{{end}}</ul>
{{end}}

<h2>Projects</h2>
{{range .Result.Projects}}
<h3>{{.Name}} ({{formatPct .Summary.LinesCoveredPercentage}} lines)</h3>
<table>
<tr><th>File</th><th>Lines</th><th>Covered</th><th>Percentage</th></tr>
{{range .Files}}<tr class="{{percentClass .Summary.LinesCoveredPercentage}}"><td>{{.Path}}</td><td class="num">{{.Summary.TotalLines}}</td><td class="num">{{.Summary.CoveredLines}}</td><td class="num">{{formatPct .Summary.LinesCoveredPercentage}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`
