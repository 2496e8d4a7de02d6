// Package discovery classifies workspace projects as test or production
// projects and selects which test projects a coverage run executes.
package discovery

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-coverage/types"
	"github.com/ethereum-optimism/infra/op-coverage/workspace"
)

// Reason tags why a project was classified as a test project.
type Reason string

const (
	ReasonFrameworkDependency Reason = "framework-dependency"
	ReasonExplicitFlag        Reason = "explicit-flag"
	ReasonNamingConvention    Reason = "naming-convention"
	// ReasonNone marks the default: ambiguity classifies as production so
	// coverage targets are never silently dropped.
	ReasonNone Reason = "none"
)

// Classification is the outcome of classifying one project.
type Classification struct {
	IsTest bool
	Reason Reason
}

// testFrameworkMarkers are the dependency substrings that mark a project as a
// test project. Matching is case-insensitive.
var testFrameworkMarkers = []string{
	"xunit",
	"nunit",
	"mstest.testframework",
	"microsoft.net.test.sdk",
	"github.com/stretchr/testify",
}

// testNameSuffixes are the conventional test-project name endings.
var testNameSuffixes = []string{
	".tests",
	".test",
	"_test",
	"-tests",
	"-test",
	"tests",
}

// Classify decides whether a project is a test project. It is a pure function
// of the project's already-loaded metadata.
func Classify(p workspace.Project) Classification {
	if p.IsTestProject {
		return Classification{IsTest: true, Reason: ReasonExplicitFlag}
	}

	for _, dep := range p.Dependencies {
		lower := strings.ToLower(dep)
		for _, marker := range testFrameworkMarkers {
			if strings.Contains(lower, marker) {
				return Classification{IsTest: true, Reason: ReasonFrameworkDependency}
			}
		}
	}

	lowerName := strings.ToLower(p.Name)
	for _, suffix := range testNameSuffixes {
		if strings.HasSuffix(lowerName, suffix) {
			return Classification{IsTest: true, Reason: ReasonNamingConvention}
		}
	}

	return Classification{IsTest: false, Reason: ReasonNone}
}

// SelectTestProjects returns the test projects the run should execute, in
// lexicographic path order so repeated runs produce stable diffs. Projects
// with unreadable metadata are excluded and logged, never fatal.
func SelectTestProjects(projects []workspace.Project, opts types.CoverageAnalysisOptions, logger log.Logger) []workspace.Project {
	if logger == nil {
		logger = log.New()
	}

	var selected []workspace.Project
	for _, p := range projects {
		if p.MetadataErr != nil {
			logger.Warn("Excluding project with unreadable metadata", "project", p.Name, "error", p.MetadataErr)
			continue
		}

		c := Classify(p)
		if !c.IsTest {
			continue
		}
		if !Included(p.Name, opts.IncludeTestProjects, opts.ExcludeTestProjects) {
			logger.Debug("Test project filtered out by options", "project", p.Name)
			continue
		}

		logger.Debug("Selected test project", "project", p.Name, "reason", string(c.Reason))
		selected = append(selected, p)
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Path < selected[j].Path
	})
	return selected
}

// Included applies an include/exclude name filter pair. An empty include list
// admits every name; exclusion wins over inclusion.
func Included(name string, include, exclude []string) bool {
	for _, e := range exclude {
		if strings.EqualFold(e, name) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, i := range include {
		if strings.EqualFold(i, name) {
			return true
		}
	}
	return false
}
