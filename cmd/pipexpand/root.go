package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pipexpand",
		Short:         "Pipexpand resolves templated pipeline definitions into a single document",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.StringP("pipeline", "p", "", "pipeline file to load (default: discovered in the working directory)")
	persistent.StringArray("param", nil, "template parameter as key=value (repeatable)")
	persistent.String("parameters-file", "", "YAML or JSON file with template parameters")
	persistent.StringArray("phase", nil, "phase filter (repeatable)")
	persistent.StringArray("job", nil, "job filter (repeatable)")
	persistent.StringArray("only-step", nil, "include only matching steps")
	persistent.StringArray("skip-step", nil, "exclude matching steps")
	persistent.Int("max-files", 0, "maximum number of files a load may read (0 disables)")
	persistent.Int("max-result-length", 0, "maximum characters a template may produce (0 disables)")
	persistent.Duration("evaluation-timeout", 0, "time limit for evaluating one file (0 disables)")
	persistent.Int("max-depth", 0, "maximum template nesting depth (0 disables)")
	persistent.String("format", "", "output format (yaml|json|pretty)")
	persistent.BoolP("verbose", "v", false, "log each document as it is loaded and resolved")
	persistent.String("log-level", "", "log level (debug|info|warn|error)")
	persistent.String("metrics-file", "", "write load metrics in Prometheus text format to this file")

	cmd.AddCommand(newExpandCmd())
	cmd.AddCommand(newDumpCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newValidateCmd())

	return cmd
}
