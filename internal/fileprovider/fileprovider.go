// Package fileprovider supplies pipeline and template files to the loader.
package fileprovider

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// ErrNotFound reports a file the provider does not have.
var ErrNotFound = errors.New("file not found")

// File is the raw content of one pipeline or template file.
type File struct {
	// Name is the resolved path the file was read from.
	Name string
	// Directory is the directory templates referenced by the file resolve
	// against.
	Directory string
	Content   []byte
}

// OS reads files from the local file system.
type OS struct{}

// ResolvePath joins a relative path onto defaultRoot.
func (OS) ResolvePath(defaultRoot, p string) string {
	if filepath.IsAbs(p) || defaultRoot == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(defaultRoot, p)
}

// GetFile reads the file at p.
func (OS) GetFile(p string) (File, error) {
	content, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return File{}, fmt.Errorf("read %q: %w", p, err)
	}
	return File{Name: p, Directory: filepath.Dir(p), Content: content}, nil
}

// Memory serves files from a map keyed by slash-separated path. It is safe
// for concurrent reads once populated.
type Memory map[string]string

// ResolvePath joins a relative path onto defaultRoot.
func (Memory) ResolvePath(defaultRoot, p string) string {
	if path.IsAbs(p) || defaultRoot == "" {
		return path.Clean(p)
	}
	return path.Join(defaultRoot, p)
}

// GetFile returns the file at p.
func (m Memory) GetFile(p string) (File, error) {
	p = path.Clean(p)
	content, ok := m[p]
	if !ok {
		return File{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return File{Name: p, Directory: path.Dir(p), Content: []byte(content)}, nil
}

// Names lists the stored paths in lexical order.
func (m Memory) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
