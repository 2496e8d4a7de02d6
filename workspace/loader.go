package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

// ManifestName is the workspace manifest looked up when Load is given a
// directory instead of a file.
const ManifestName = "workspace.yaml"

type manifest struct {
	Projects []Project `yaml:"projects"`
}

// Load reads a workspace manifest and resolves each project's metadata.
// A project whose metadata cannot be read is kept in the list with
// MetadataErr set; only a missing or malformed manifest is a hard error.
func Load(path string, logger log.Logger) (*Workspace, error) {
	if logger == nil {
		logger = log.New()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace path %q: %w", path, err)
	}

	manifestPath := abs
	root := filepath.Dir(abs)
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		root = abs
		manifestPath = filepath.Join(abs, ManifestName)
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse workspace manifest: %w", err)
	}
	if len(m.Projects) == 0 {
		return nil, fmt.Errorf("workspace manifest %s lists no projects", manifestPath)
	}

	ws := &Workspace{Root: root}
	for _, p := range m.Projects {
		resolved := resolveProject(root, p, logger)
		ws.Projects = append(ws.Projects, resolved)
	}

	logger.Info("Workspace loaded", "manifest", manifestPath, "projects", len(ws.Projects))
	return ws, nil
}

// resolveProject makes the project path absolute and enriches its dependency
// set from the project's own module metadata where available.
func resolveProject(root string, p Project, logger log.Logger) Project {
	if p.Name == "" {
		p.Name = filepath.Base(p.Path)
	}
	if !filepath.IsAbs(p.Path) {
		p.Path = filepath.Join(root, p.Path)
	}

	if _, err := os.Stat(p.Path); err != nil {
		p.MetadataErr = fmt.Errorf("project directory unreadable: %w", err)
		logger.Warn("Skipping project with unreadable metadata", "project", p.Name, "error", err)
		return p
	}

	deps, err := moduleDependencies(p.Path)
	if err != nil {
		// Not every project is a Go module; the manifest's dependency list
		// still applies.
		logger.Debug("No module metadata for project", "project", p.Name, "error", err)
	} else {
		p.Dependencies = append(p.Dependencies, deps...)
	}

	return p
}

// moduleDependencies reads the project's go.mod, when present, and returns its
// direct requirements.
func moduleDependencies(dir string) ([]string, error) {
	goModPath := filepath.Join(dir, "go.mod")
	content, err := os.ReadFile(goModPath)
	if err != nil {
		return nil, err
	}

	mod, err := modfile.Parse(goModPath, content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", goModPath, err)
	}

	var deps []string
	for _, req := range mod.Require {
		if req.Indirect {
			continue
		}
		deps = append(deps, req.Mod.Path)
	}
	return deps, nil
}
