package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Parameters returns the template parameters for the root pipeline file:
// values from ParametersFile, overlaid by Parameters. A relative
// ParametersFile is resolved against root.
func (c Config) Parameters(root string) (map[string]any, error) {
	out := map[string]any{}
	if c.ParametersFile != "" {
		path := c.ParametersFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		fromFile, err := ReadParameters(path)
		if err != nil {
			return nil, err
		}
		maps.Copy(out, fromFile)
	}
	maps.Copy(out, c.Parameters)
	return out, nil
}

// ReadParameters reads a parameters file. Files ending in .json or .jsonc
// may carry comments and trailing commas; anything else is read as YAML.
func ReadParameters(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameters %q: %w", path, err)
	}

	var out map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), &out)
	default:
		err = yaml.Unmarshal(data, &out)
	}
	if err != nil {
		return nil, fmt.Errorf("parse parameters %q: %w", path, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// ParseParam splits a key=value flag argument.
func ParseParam(arg string) (string, string, error) {
	key, value, ok := strings.Cut(arg, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid parameter %q: expected key=value", arg)
	}
	return key, value, nil
}
