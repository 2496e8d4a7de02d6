package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-coverage/types"
)

// The report schema: coverage → packages → classes → methods → lines, each
// node carrying rate/hit attributes. Attributes are decoded as strings so one
// malformed value skips one node instead of aborting the document decode.
type reportXML struct {
	XMLName  xml.Name     `xml:"coverage"`
	LineRate string       `xml:"line-rate,attr"`
	Packages []packageXML `xml:"packages>package"`
}

type packageXML struct {
	Name       string     `xml:"name,attr"`
	LineRate   string     `xml:"line-rate,attr"`
	BranchRate string     `xml:"branch-rate,attr"`
	Classes    []classXML `xml:"classes>class"`
}

// ClassNode is one class element of the coverage report.
type ClassNode struct {
	Name       string       `xml:"name,attr"`
	Filename   string       `xml:"filename,attr"`
	LineRate   string       `xml:"line-rate,attr"`
	BranchRate string       `xml:"branch-rate,attr"`
	Methods    []MethodNode `xml:"methods>method"`
	Lines      []LineNode   `xml:"lines>line"`
}

// MethodNode is one method element of the coverage report.
type MethodNode struct {
	Name       string     `xml:"name,attr"`
	Signature  string     `xml:"signature,attr"`
	LineRate   string     `xml:"line-rate,attr"`
	BranchRate string     `xml:"branch-rate,attr"`
	Lines      []LineNode `xml:"lines>line"`
}

// LineNode is one line element of the coverage report.
type LineNode struct {
	Number            string          `xml:"number,attr"`
	Hits              string          `xml:"hits,attr"`
	Branch            string          `xml:"branch,attr"`
	ConditionCoverage string          `xml:"condition-coverage,attr"`
	Conditions        []conditionNode `xml:"conditions>condition"`
}

type conditionNode struct {
	Number   string `xml:"number,attr"`
	Type     string `xml:"type,attr"`
	Coverage string `xml:"coverage,attr"`
}

type classXML = ClassNode

// ParseReport decodes a coverage report into per-project coverage trees.
// Report packages map to production projects. A report with zero classes
// yields an empty zero-summary project, not an error; malformed nodes are
// skipped and logged.
func ParseReport(r io.Reader, logger log.Logger) ([]types.ProjectCoverage, error) {
	if logger == nil {
		logger = log.New()
	}

	var report reportXML
	if err := xml.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode coverage report: %w", err)
	}

	var projects []types.ProjectCoverage
	for _, pkg := range report.Packages {
		project := types.ProjectCoverage{Name: pkg.Name}
		for _, cls := range pkg.Classes {
			class, err := ParseClass(cls)
			if err != nil {
				logger.Warn("Skipping malformed class node", "class", cls.Name, "error", err)
				continue
			}
			project.Classes = append(project.Classes, class)
		}

		for _, class := range project.Classes {
			project.Summary.Add(class.Summary)
		}
		project.Summary.Finalize()
		project.Files = fileRollup(project.Classes)

		projects = append(projects, project)
	}

	return projects, nil
}

// ParseClass transforms one class node into its coverage entity. The node's
// own line-rate and branch-rate are used directly as the class percentages;
// they are not recomputed from child hit counts, preserving the
// instrumentation tool's accounting.
func ParseClass(node ClassNode) (types.ClassCoverage, error) {
	if node.Name == "" {
		return types.ClassCoverage{}, fmt.Errorf("class node has no name")
	}

	namespace, name := splitTestIdentifier(node.Name)
	class := types.ClassCoverage{
		Name:      name,
		Namespace: namespace,
		FilePath:  node.Filename,
	}

	for _, m := range node.Methods {
		method, err := ParseMethod(m)
		if err != nil {
			log.Warn("Skipping malformed method node", "class", node.Name, "method", m.Name, "error", err)
			continue
		}
		class.Methods = append(class.Methods, method)
	}

	// Line counts come from the class's own line list when present, else from
	// its methods.
	lines, branches := parseLines(node.Lines)
	if len(lines) == 0 {
		for _, m := range class.Methods {
			class.Summary.TotalLines += m.Summary.TotalLines
			class.Summary.CoveredLines += m.Summary.CoveredLines
			class.Summary.TotalBranches += m.Summary.TotalBranches
			class.Summary.CoveredBranches += m.Summary.CoveredBranches
		}
	} else {
		class.Summary.TotalLines = len(lines)
		class.Summary.CoveredLines = countCovered(lines)
		class.Summary.TotalBranches = len(branches)
		class.Summary.CoveredBranches = countCoveredBranches(branches)
	}

	class.Summary.TotalMethods = len(class.Methods)
	for _, m := range class.Methods {
		if m.Summary.CoveredLines > 0 {
			class.Summary.CoveredMethods++
		}
	}
	class.Summary.TotalClasses = 1
	if class.Summary.CoveredLines > 0 {
		class.Summary.CoveredClasses = 1
	}

	class.Summary.UncoveredLines = class.Summary.TotalLines - class.Summary.CoveredLines
	class.Summary.UncoveredBranches = class.Summary.TotalBranches - class.Summary.CoveredBranches
	class.Summary.UncoveredMethods = class.Summary.TotalMethods - class.Summary.CoveredMethods
	class.Summary.UncoveredClasses = class.Summary.TotalClasses - class.Summary.CoveredClasses

	class.Summary.LinesCoveredPercentage = ratePercentage(node.LineRate)
	class.Summary.BranchesCoveredPercentage = ratePercentage(node.BranchRate)
	class.Summary.MethodsCoveredPercentage = types.Percentage(class.Summary.CoveredMethods, class.Summary.TotalMethods)
	class.Summary.ClassesCoveredPercentage = types.Percentage(class.Summary.CoveredClasses, class.Summary.TotalClasses)

	return class, nil
}

// ParseMethod transforms one method node into its coverage entity. Like
// ParseClass, the node's own rate attributes carry the percentages.
func ParseMethod(node MethodNode) (types.MethodCoverage, error) {
	if node.Name == "" {
		return types.MethodCoverage{}, fmt.Errorf("method node has no name")
	}

	method := types.MethodCoverage{
		Name:      node.Name,
		Signature: node.Signature,
	}

	method.Lines, method.Branches = parseLines(node.Lines)
	if len(method.Lines) > 0 {
		method.StartLine = method.Lines[0].LineNumber
		method.EndLine = method.Lines[len(method.Lines)-1].LineNumber
	}

	method.Summary.TotalLines = len(method.Lines)
	method.Summary.CoveredLines = countCovered(method.Lines)
	method.Summary.UncoveredLines = method.Summary.TotalLines - method.Summary.CoveredLines
	method.Summary.TotalBranches = len(method.Branches)
	method.Summary.CoveredBranches = countCoveredBranches(method.Branches)
	method.Summary.UncoveredBranches = method.Summary.TotalBranches - method.Summary.CoveredBranches

	method.Summary.LinesCoveredPercentage = ratePercentage(node.LineRate)
	method.Summary.BranchesCoveredPercentage = ratePercentage(node.BranchRate)

	return method, nil
}

// ParseLine transforms one line node. The hits attribute defaults to zero
// when missing or malformed; a missing line number makes the node malformed.
func ParseLine(node LineNode) (types.LineCoverage, error) {
	number, err := strconv.Atoi(node.Number)
	if err != nil || number <= 0 {
		return types.LineCoverage{}, fmt.Errorf("invalid line number %q", node.Number)
	}

	hits, err := strconv.Atoi(node.Hits)
	if err != nil || hits < 0 {
		hits = 0
	}

	line := types.LineCoverage{
		LineNumber: number,
		HitCount:   hits,
		Status:     types.StatusUncovered,
	}
	if hits > 0 {
		line.Status = types.StatusCovered
	}
	return line, nil
}

// ParseBranches extracts the branch outcomes of one line node. Lines without
// branch data yield nothing.
func ParseBranches(node LineNode) []types.BranchCoverage {
	if !strings.EqualFold(node.Branch, "true") {
		return nil
	}

	lineNumber, err := strconv.Atoi(node.Number)
	if err != nil {
		return nil
	}
	hits, err := strconv.Atoi(node.Hits)
	if err != nil {
		hits = 0
	}

	var branches []types.BranchCoverage
	for i, cond := range node.Conditions {
		number, err := strconv.Atoi(cond.Number)
		if err != nil {
			number = i
		}
		branch := types.BranchCoverage{
			LineNumber:   lineNumber,
			BranchNumber: number,
			Condition:    cond.Coverage,
			Type:         cond.Type,
		}
		if covered, _ := parseConditionCoverage(cond.Coverage); covered {
			branch.HitCount = max(hits, 1)
		}
		branches = append(branches, branch)
	}

	// Some tools emit only the condition-coverage attribute without condition
	// children; synthesize outcomes from the covered/total fraction.
	if len(branches) == 0 && node.ConditionCoverage != "" {
		covered, total := parseConditionFraction(node.ConditionCoverage)
		for i := 0; i < total; i++ {
			branch := types.BranchCoverage{
				LineNumber:   lineNumber,
				BranchNumber: i,
				Condition:    node.ConditionCoverage,
			}
			if i < covered {
				branch.HitCount = max(hits, 1)
			}
			branches = append(branches, branch)
		}
	}

	return branches
}

func parseLines(nodes []LineNode) ([]types.LineCoverage, []types.BranchCoverage) {
	var lines []types.LineCoverage
	var branches []types.BranchCoverage
	for _, n := range nodes {
		line, err := ParseLine(n)
		if err != nil {
			log.Debug("Skipping malformed line node", "number", n.Number, "error", err)
			continue
		}
		lines = append(lines, line)
		branches = append(branches, ParseBranches(n)...)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })
	return lines, branches
}

func countCovered(lines []types.LineCoverage) int {
	covered := 0
	for _, l := range lines {
		if l.HitCount > 0 {
			covered++
		}
	}
	return covered
}

func countCoveredBranches(branches []types.BranchCoverage) int {
	covered := 0
	for _, b := range branches {
		if b.HitCount > 0 {
			covered++
		}
	}
	return covered
}

// ratePercentage converts a 0.0-1.0 rate attribute to a percentage. The rate
// is read as-is and multiplied by 100; malformed rates yield zero.
func ratePercentage(rate string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
	if err != nil || v < 0 {
		return 0
	}
	return types.Round2(v * 100)
}

// parseConditionCoverage reports whether a condition coverage value such as
// "50%" or "100%" indicates at least one hit.
func parseConditionCoverage(coverage string) (bool, float64) {
	s := strings.TrimSpace(coverage)
	if i := strings.IndexByte(s, '%'); i >= 0 {
		s = s[:i]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, 0
	}
	return v > 0, v
}

// parseConditionFraction extracts covered/total from a condition-coverage
// attribute of the form "50% (1/2)".
func parseConditionFraction(coverage string) (covered, total int) {
	open := strings.IndexByte(coverage, '(')
	end := strings.IndexByte(coverage, ')')
	if open < 0 || end <= open {
		return 0, 0
	}
	parts := strings.SplitN(coverage[open+1:end], "/", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	covered = parseCount(strings.TrimSpace(parts[0]))
	total = parseCount(strings.TrimSpace(parts[1]))
	if covered > total {
		covered = total
	}
	return covered, total
}

// fileRollup groups classes by source file and sums their counts.
func fileRollup(classes []types.ClassCoverage) []types.FileCoverage {
	byPath := make(map[string]*types.CoverageSummary)
	var order []string
	for _, c := range classes {
		if c.FilePath == "" {
			continue
		}
		s, ok := byPath[c.FilePath]
		if !ok {
			s = &types.CoverageSummary{}
			byPath[c.FilePath] = s
			order = append(order, c.FilePath)
		}
		s.Add(c.Summary)
	}

	sort.Strings(order)
	files := make([]types.FileCoverage, 0, len(order))
	for _, path := range order {
		s := byPath[path]
		s.Finalize()
		files = append(files, types.FileCoverage{Path: path, Summary: *s})
	}
	return files
}
