package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bgricker/pipexpand/internal/config"
)

func gatherFlags(cmd *cobra.Command, args []string) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	if len(args) > 0 {
		values.Pipeline = config.StringFlag{Value: args[0], Set: true}
	} else if flags.Changed("pipeline") {
		v, err := flags.GetString("pipeline")
		if err != nil {
			return values, fmt.Errorf("parse --pipeline: %w", err)
		}
		values.Pipeline = config.StringFlag{Value: v, Set: true}
	}

	raw, ok, err := changedStringArray(flags, "param")
	if err != nil {
		return values, err
	}
	if ok {
		values.Params = make(map[string]string, len(raw))
		for _, arg := range raw {
			k, v, err := config.ParseParam(arg)
			if err != nil {
				return values, err
			}
			values.Params[k] = v
		}
	}

	for name, dst := range map[string]*config.SliceFlag{
		"phase":     &values.Phases,
		"job":       &values.Jobs,
		"only-step": &values.OnlySteps,
		"skip-step": &values.SkipSteps,
	} {
		v, ok, err := changedStringArray(flags, name)
		if err != nil {
			return values, err
		}
		if ok {
			*dst = config.SliceFlag{Values: v}
		}
	}

	for name, dst := range map[string]*config.StringFlag{
		"parameters-file": &values.ParametersFile,
		"format":          &values.Format,
		"log-level":       &values.LogLevel,
		"metrics-file":    &values.MetricsFile,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", name, err)
		}
		*dst = config.StringFlag{Value: v, Set: true}
	}

	for name, dst := range map[string]*config.IntFlag{
		"max-files":         &values.MaxFiles,
		"max-result-length": &values.MaxResultLength,
		"max-depth":         &values.MaxDepth,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", name, err)
		}
		*dst = config.IntFlag{Value: v, Set: true}
	}

	if flags.Changed("evaluation-timeout") {
		v, err := flags.GetDuration("evaluation-timeout")
		if err != nil {
			return values, fmt.Errorf("parse --evaluation-timeout: %w", err)
		}
		values.EvaluationTimeout = config.DurationFlag{Value: v, Set: true}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}

// changedStringArray returns a copy of a repeatable flag's values when the
// flag was given on the command line.
func changedStringArray(flags *pflag.FlagSet, name string) ([]string, bool, error) {
	if !flags.Changed(name) {
		return nil, false, nil
	}
	v, err := flags.GetStringArray(name)
	if err != nil {
		return nil, false, fmt.Errorf("parse --%s: %w", name, err)
	}
	return append([]string{}, v...), true, nil
}
