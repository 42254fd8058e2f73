package fileprovider

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSProvider(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "templates")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "steps.yml"), []byte("steps: []\n"), 0o644))

	var p OS
	resolved := p.ResolvePath(root, "templates/../templates/steps.yml")
	assert.Equal(t, filepath.Join(dir, "steps.yml"), resolved)

	f, err := p.GetFile(resolved)
	require.NoError(t, err)
	assert.Equal(t, resolved, f.Name)
	assert.Equal(t, dir, f.Directory)
	assert.Equal(t, "steps: []\n", string(f.Content))

	abs := filepath.Join(root, "x.yml")
	assert.Equal(t, abs, p.ResolvePath("/elsewhere", abs))

	_, err = p.GetFile(filepath.Join(root, "missing.yml"))
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestMemoryProvider(t *testing.T) {
	m := Memory{
		"ci.yml":             "steps: []",
		"templates/jobs.yml": "jobs: []",
	}

	assert.Equal(t, "templates/jobs.yml", m.ResolvePath("templates", "./jobs.yml"))
	assert.Equal(t, "jobs.yml", m.ResolvePath("templates", "../jobs.yml"))
	assert.Equal(t, "/abs.yml", m.ResolvePath("templates", "/abs.yml"))

	f, err := m.GetFile("templates/./jobs.yml")
	require.NoError(t, err)
	assert.Equal(t, "templates/jobs.yml", f.Name)
	assert.Equal(t, "templates", f.Directory)

	root, err := m.GetFile("ci.yml")
	require.NoError(t, err)
	assert.Equal(t, ".", root.Directory)

	_, err = m.GetFile("nope.yml")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"ci.yml", "templates/jobs.yml"}, m.Names())
}
