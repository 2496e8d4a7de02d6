// Package workspace loads the multi-project workspace the engine analyzes.
// The workspace is described by a manifest file enumerating projects; each
// project carries the metadata the discovery layer classifies on.
package workspace

// Project is one workspace project's metadata as supplied by the loader.
type Project struct {
	Name string `yaml:"name"`
	// Path is the project directory, relative to the workspace root in the
	// manifest and absolute after loading.
	Path string `yaml:"path"`
	// Dependencies is the project's declared package/dependency set.
	Dependencies []string `yaml:"dependencies,omitempty"`
	// IsTestProject is the project's own explicit test flag.
	IsTestProject bool `yaml:"testProject,omitempty"`
	// Files lists the project's source files, when the manifest provides them.
	Files []string `yaml:"files,omitempty"`

	// MetadataErr records a metadata read failure for this project. The
	// project stays listed so callers can log and skip it; loading never
	// fails because one project is unreadable.
	MetadataErr error `yaml:"-"`
}

// Workspace is the session-scoped workspace handle.
type Workspace struct {
	Root     string
	Projects []Project
}

// Project returns the named project, if present.
func (w *Workspace) Project(name string) (Project, bool) {
	for _, p := range w.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return Project{}, false
}
