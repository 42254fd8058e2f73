package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/pipexpand/internal/config"
	"github.com/bgricker/pipexpand/internal/output"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [pipeline]",
		Short: "List resolved phases, jobs and steps",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	r, err := newRun(cmd, args)
	if err != nil {
		return err
	}
	res, err := r.load(cmd)
	if err != nil {
		return err
	}

	switch formatOrDefault(r.cfg, config.FormatPretty) {
	case config.FormatPretty:
		if len(res.process.Phases) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matching phases, jobs or steps")
		} else if err := output.NewPretty(cmd.OutOrStdout()).RenderList(res.process); err != nil {
			return err
		}
		printWarnings(cmd, r.warnings)
	case config.FormatJSON:
		if err := renderJSON(cmd, r, res, true); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", r.cfg.Format)
	}
	return r.finish()
}
