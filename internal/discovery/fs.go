package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoPipeline indicates that no pipeline definition was found during discovery.
var ErrNoPipeline = errors.New("no pipeline definition found")

// DefaultNames are the pipeline definition file names probed, in order, when
// no explicit path is given.
var DefaultNames = []string{".vsts-ci.yml", "azure-pipelines.yml", ".azure-pipelines.yml"}

// Pipeline returns the path of the pipeline definition to load, relative to
// root where possible. An explicit path is validated; otherwise the first
// existing default name wins.
func Pipeline(root, explicit string) (string, error) {
	if explicit != "" {
		return resolveExplicit(root, explicit)
	}

	for _, name := range DefaultNames {
		candidate := filepath.Join(root, name)
		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("stat %q: %w", name, err)
		}
		if info.IsDir() {
			continue
		}
		return mustRelOrClean(root, candidate), nil
	}
	return "", ErrNoPipeline
}

func resolveExplicit(root, input string) (string, error) {
	cleaned := input
	if !filepath.IsAbs(cleaned) {
		cleaned = filepath.Join(root, cleaned)
	}
	info, err := os.Stat(cleaned)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("pipeline %q not found", input)
		}
		return "", fmt.Errorf("stat %q: %w", input, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("pipeline %q is a directory", input)
	}
	return mustRelOrClean(root, cleaned), nil
}

func mustRelOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
