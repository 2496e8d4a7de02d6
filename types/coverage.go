package types

// CoverageStatus classifies a single line's execution state.
type CoverageStatus string

const (
	StatusCovered   CoverageStatus = "covered"
	StatusUncovered CoverageStatus = "uncovered"
)

// LineCoverage is one executable source line as reported by the
// instrumentation tool.
type LineCoverage struct {
	LineNumber    int            `json:"lineNumber" yaml:"lineNumber"`
	HitCount      int            `json:"hitCount" yaml:"hitCount"`
	Status        CoverageStatus `json:"status" yaml:"status"`
	SourceSnippet string         `json:"sourceSnippet,omitempty" yaml:"sourceSnippet,omitempty"`
}

// IsCovered reports whether the line executed at least once.
func (l LineCoverage) IsCovered() bool {
	return l.HitCount > 0
}

// BranchCoverage is one branch outcome on a source line.
type BranchCoverage struct {
	LineNumber   int    `json:"lineNumber" yaml:"lineNumber"`
	BranchNumber int    `json:"branchNumber" yaml:"branchNumber"`
	HitCount     int    `json:"hitCount" yaml:"hitCount"`
	Condition    string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty"`
}

// MethodCoverage is one method's coverage subtree.
type MethodCoverage struct {
	Name      string           `json:"name" yaml:"name"`
	Signature string           `json:"signature" yaml:"signature"`
	StartLine int              `json:"startLine" yaml:"startLine"`
	EndLine   int              `json:"endLine" yaml:"endLine"`
	Summary   CoverageSummary  `json:"summary" yaml:"summary"`
	Lines     []LineCoverage   `json:"lines,omitempty" yaml:"lines,omitempty"`
	Branches  []BranchCoverage `json:"branches,omitempty" yaml:"branches,omitempty"`
}

// ClassCoverage is one class's coverage subtree.
type ClassCoverage struct {
	Name      string           `json:"name" yaml:"name"`
	Namespace string           `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	FilePath  string           `json:"filePath" yaml:"filePath"`
	Summary   CoverageSummary  `json:"summary" yaml:"summary"`
	Methods   []MethodCoverage `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// FileCoverage is the per-source-file rollup of the classes it contains.
type FileCoverage struct {
	Path    string          `json:"path" yaml:"path"`
	Summary CoverageSummary `json:"summary" yaml:"summary"`
}

// ProjectCoverage is one production project's coverage subtree.
type ProjectCoverage struct {
	Name    string          `json:"name" yaml:"name"`
	Path    string          `json:"path,omitempty" yaml:"path,omitempty"`
	Summary CoverageSummary `json:"summary" yaml:"summary"`
	Files   []FileCoverage  `json:"files,omitempty" yaml:"files,omitempty"`
	Classes []ClassCoverage `json:"classes,omitempty" yaml:"classes,omitempty"`
}
