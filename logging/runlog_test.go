package logging

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunLogger_Validation(t *testing.T) {
	_, err := NewRunLogger("", "run-1", nil)
	assert.Error(t, err)

	_, err = NewRunLogger(t.TempDir(), "", nil)
	assert.Error(t, err)
}

func TestRunLogger_WriteTranscript(t *testing.T) {
	base := t.TempDir()
	rl, err := NewRunLogger(base, "run-1", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "run-1"), rl.Dir())
	assert.DirExists(t, rl.Dir())

	require.NoError(t, rl.WriteTranscript("Core.Tests", []string{"line one", "line two"}))

	data, err := os.ReadFile(filepath.Join(rl.Dir(), "Core.Tests.log"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))
	assert.Equal(t, []string{"Core.Tests.log"}, rl.Transcripts())
}

func TestRunLogger_SanitizesProjectNames(t *testing.T) {
	rl, err := NewRunLogger(t.TempDir(), "run-1", nil)
	require.NoError(t, err)

	require.NoError(t, rl.WriteTranscript("src/Core Tests:v2", []string{"x"}))
	assert.FileExists(t, filepath.Join(rl.Dir(), "src_Core_Tests_v2.log"))
}

func TestRunLogger_WriteSummary(t *testing.T) {
	rl, err := NewRunLogger(t.TempDir(), "run-1", nil)
	require.NoError(t, err)

	require.NoError(t, rl.WriteSummary("3 projects, 75.00% lines"))

	data, err := os.ReadFile(filepath.Join(rl.Dir(), "summary.txt"))
	require.NoError(t, err)
	assert.Equal(t, "3 projects, 75.00% lines", string(data))
}

func TestRunLogger_ConcurrentWriters(t *testing.T) {
	rl, err := NewRunLogger(t.TempDir(), "run-1", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	names := []string{"A.Tests", "B.Tests", "C.Tests", "D.Tests"}
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			assert.NoError(t, rl.WriteTranscript(name, []string{"output for " + name}))
		}(name)
	}
	wg.Wait()

	assert.Len(t, rl.Transcripts(), len(names))
}
