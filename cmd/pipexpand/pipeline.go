package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bgricker/pipexpand/internal/config"
	"github.com/bgricker/pipexpand/internal/discovery"
	"github.com/bgricker/pipexpand/internal/fileprovider"
	"github.com/bgricker/pipexpand/internal/filter"
	"github.com/bgricker/pipexpand/internal/loader"
	"github.com/bgricker/pipexpand/internal/logging"
	"github.com/bgricker/pipexpand/internal/metrics"
	"github.com/bgricker/pipexpand/internal/pipeline"
	"github.com/bgricker/pipexpand/internal/report"
)

// run bundles what every subcommand needs to load one pipeline.
type run struct {
	cfg      config.Config
	root     string
	path     string
	params   map[string]any
	logger   *slog.Logger
	metrics  *metrics.Recorder
	loader   *loader.Loader
	warnings []string
}

// loaded is a resolved pipeline after filtering.
type loaded struct {
	process *pipeline.Process
	files   []string
	summary report.Summary
}

func newRun(cmd *cobra.Command, args []string) (*run, error) {
	cfg, root, err := loadConfig(cmd, args)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	logger := logging.New(level, cmd.ErrOrStderr())

	path, err := discovery.Pipeline(root, cfg.Pipeline)
	if err != nil {
		if errors.Is(err, discovery.ErrNoPipeline) {
			return nil, fmt.Errorf("no pipeline found; specify --pipeline to provide a file")
		}
		return nil, err
	}

	params, err := cfg.Parameters(root)
	if err != nil {
		return nil, err
	}

	recorder := metrics.New()
	r := &run{
		cfg:     cfg,
		root:    root,
		path:    path,
		params:  params,
		logger:  logger,
		metrics: recorder,
		loader: loader.New(fileprovider.OS{},
			loader.WithLimits(limits(cfg.Limits)),
			loader.WithLogger(logger),
			loader.WithMetrics(recorder)),
	}
	return r, nil
}

func limits(c config.Limits) loader.Limits {
	out := loader.DefaultLimits()
	if c.MaxFiles != nil {
		out.MaxFiles = *c.MaxFiles
	}
	if c.MaxResultLength != nil {
		out.MaxResultLength = *c.MaxResultLength
	}
	if c.EvaluationTimeout != nil {
		out.EvaluationTimeout = *c.EvaluationTimeout
	}
	if c.MaxDepth != nil {
		out.MaxDepth = *c.MaxDepth
	}
	return out
}

// load resolves the pipeline and applies the configured filters.
func (r *run) load(cmd *cobra.Command) (loaded, error) {
	start := time.Now()
	res, err := r.loader.LoadDetailed(cmd.Context(), r.root, r.path, r.params)
	if err != nil {
		return loaded{}, err
	}

	set, err := filter.CompileSet(r.cfg.Phases, r.cfg.Jobs, r.cfg.OnlySteps, r.cfg.SkipSteps)
	if err != nil {
		return loaded{}, err
	}
	p := filter.FilterProcess(res.Process, set)
	if !set.Empty() && len(p.Phases) == 0 {
		r.warnings = append(r.warnings, "no phases or jobs matched the filters")
	}
	return loaded{
		process: p,
		files:   res.Files,
		summary: report.Summarize(r.path, res.Files, p, time.Since(start)),
	}, nil
}

// finish writes metrics when requested.
func (r *run) finish() error {
	if r.cfg.MetricsFile == "" {
		return nil
	}
	if err := r.metrics.WriteFile(r.cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics %q: %w", r.cfg.MetricsFile, err)
	}
	r.logger.Debug("metrics written", "file", r.cfg.MetricsFile)
	return nil
}

func loadConfig(cmd *cobra.Command, args []string) (config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, "", err
	}

	flags, err := gatherFlags(cmd, args)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)

	return cfg, root, nil
}
