package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// FileName is the optional config file read from the working directory.
const FileName = ".pipexpand.yml"

// Config captures CLI options sourced from config files or flags.
type Config struct {
	Pipeline string `yaml:"pipeline"`

	Phases    []string `yaml:"phases"`
	Jobs      []string `yaml:"jobs"`
	OnlySteps []string `yaml:"only_step"`
	SkipSteps []string `yaml:"skip_step"`

	Parameters     map[string]any `yaml:"parameters"`
	ParametersFile string         `yaml:"parameters_file"`

	Limits Limits `yaml:"limits"`

	Format      string `yaml:"format"`
	Verbose     bool   `yaml:"verbose"`
	LogLevel    string `yaml:"log_level"`
	MetricsFile string `yaml:"metrics_file"`
}

// Limits overrides individual loader limits. Nil fields keep the default;
// zero disables the limit.
type Limits struct {
	MaxFiles          *int           `yaml:"max_files"`
	MaxResultLength   *int           `yaml:"max_result_length"`
	EvaluationTimeout *time.Duration `yaml:"evaluation_timeout"`
	MaxDepth          *int           `yaml:"max_depth"`
}

const (
	// FormatYAML renders the resolved pipeline as YAML.
	FormatYAML = "yaml"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
)

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		LogLevel: "warn",
	}
}

// Load reads .pipexpand.yml from root when present. Missing files are ignored.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	fileCfg, err := decode(data)
	if err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	return cfg, nil
}

// decode reads the YAML into a generic map first so durations such as
// "30s" and unknown keys are handled by mapstructure.
func decode(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, err
	}
	var out Config
	if raw == nil {
		return out, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		Result:      &out,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, err
	}
	return out, nil
}

func merge(base, override Config) Config {
	out := base

	if override.Pipeline != "" {
		out.Pipeline = override.Pipeline
	}
	if len(override.Phases) > 0 {
		out.Phases = append([]string{}, override.Phases...)
	}
	if len(override.Jobs) > 0 {
		out.Jobs = append([]string{}, override.Jobs...)
	}
	if len(override.OnlySteps) > 0 {
		out.OnlySteps = append([]string{}, override.OnlySteps...)
	}
	if len(override.SkipSteps) > 0 {
		out.SkipSteps = append([]string{}, override.SkipSteps...)
	}
	if len(override.Parameters) > 0 {
		if out.Parameters == nil {
			out.Parameters = make(map[string]any, len(override.Parameters))
		}
		maps.Copy(out.Parameters, override.Parameters)
	}
	if override.ParametersFile != "" {
		out.ParametersFile = override.ParametersFile
	}
	if override.Limits.MaxFiles != nil {
		out.Limits.MaxFiles = override.Limits.MaxFiles
	}
	if override.Limits.MaxResultLength != nil {
		out.Limits.MaxResultLength = override.Limits.MaxResultLength
	}
	if override.Limits.EvaluationTimeout != nil {
		out.Limits.EvaluationTimeout = override.Limits.EvaluationTimeout
	}
	if override.Limits.MaxDepth != nil {
		out.Limits.MaxDepth = override.Limits.MaxDepth
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.LogLevel != "" {
		out.LogLevel = override.LogLevel
	}
	if override.MetricsFile != "" {
		out.MetricsFile = override.MetricsFile
	}

	return out
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Pipeline.Set {
		cfg.Pipeline = flags.Pipeline.Value
	}
	if len(flags.Phases.Values) > 0 {
		cfg.Phases = append([]string{}, flags.Phases.Values...)
	}
	if len(flags.Jobs.Values) > 0 {
		cfg.Jobs = append([]string{}, flags.Jobs.Values...)
	}
	if len(flags.OnlySteps.Values) > 0 {
		cfg.OnlySteps = append([]string{}, flags.OnlySteps.Values...)
	}
	if len(flags.SkipSteps.Values) > 0 {
		cfg.SkipSteps = append([]string{}, flags.SkipSteps.Values...)
	}
	if len(flags.Params) > 0 {
		if cfg.Parameters == nil {
			cfg.Parameters = make(map[string]any, len(flags.Params))
		}
		for k, v := range flags.Params {
			cfg.Parameters[k] = v
		}
	}
	if flags.ParametersFile.Set {
		cfg.ParametersFile = flags.ParametersFile.Value
	}
	if flags.MaxFiles.Set {
		v := flags.MaxFiles.Value
		cfg.Limits.MaxFiles = &v
	}
	if flags.MaxResultLength.Set {
		v := flags.MaxResultLength.Value
		cfg.Limits.MaxResultLength = &v
	}
	if flags.EvaluationTimeout.Set {
		v := flags.EvaluationTimeout.Value
		cfg.Limits.EvaluationTimeout = &v
	}
	if flags.MaxDepth.Set {
		v := flags.MaxDepth.Value
		cfg.Limits.MaxDepth = &v
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
	if flags.LogLevel.Set {
		cfg.LogLevel = flags.LogLevel.Value
	}
	if flags.MetricsFile.Set {
		cfg.MetricsFile = flags.MetricsFile.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	Pipeline          StringFlag
	Phases            SliceFlag
	Jobs              SliceFlag
	OnlySteps         SliceFlag
	SkipSteps         SliceFlag
	Params            map[string]string
	ParametersFile    StringFlag
	MaxFiles          IntFlag
	MaxResultLength   IntFlag
	EvaluationTimeout DurationFlag
	MaxDepth          IntFlag
	Format            StringFlag
	Verbose           BoolFlag
	LogLevel          StringFlag
	MetricsFile       StringFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}

// IntFlag represents an int flag and whether it was set.
type IntFlag struct {
	Value int
	Set   bool
}

// DurationFlag represents a duration flag and whether it was set.
type DurationFlag struct {
	Value time.Duration
	Set   bool
}
