// Package logging persists per-run test transcripts so failures can be
// inspected after the process exits.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// RunLogger writes one directory per analysis run containing a transcript
// file per executed test project plus a run summary.
type RunLogger struct {
	baseDir string
	runID   string
	logger  log.Logger

	mu      sync.Mutex
	written []string
}

// NewRunLogger creates the run directory under baseDir.
func NewRunLogger(baseDir, runID string, logger log.Logger) (*RunLogger, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if logger == nil {
		logger = log.New()
	}

	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run log directory: %w", err)
	}

	return &RunLogger{baseDir: baseDir, runID: runID, logger: logger}, nil
}

// Dir returns the run's log directory.
func (r *RunLogger) Dir() string {
	return filepath.Join(r.baseDir, r.runID)
}

// WriteTranscript stores one project's ordered test output. Safe for
// concurrent writers; each project writes its own file.
func (r *RunLogger) WriteTranscript(project string, lines []string) error {
	name := sanitizeFilename(project) + ".log"
	path := filepath.Join(r.Dir(), name)

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript for %s: %w", project, err)
	}

	r.mu.Lock()
	r.written = append(r.written, name)
	r.mu.Unlock()

	r.logger.Debug("Wrote test transcript", "project", project, "path", path)
	return nil
}

// WriteSummary stores the run-level summary text next to the transcripts.
func (r *RunLogger) WriteSummary(text string) error {
	path := filepath.Join(r.Dir(), "summary.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return nil
}

// Transcripts returns the transcript filenames written so far.
func (r *RunLogger) Transcripts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.written))
	copy(out, r.written)
	return out
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")
	return replacer.Replace(name)
}
