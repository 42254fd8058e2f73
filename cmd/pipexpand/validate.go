package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/pipexpand/internal/config"
	"github.com/bgricker/pipexpand/internal/output"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [pipeline]",
		Short: "Check that the pipeline and its templates load",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
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
		if err := output.NewPretty(cmd.OutOrStdout()).RenderSummary(res.summary, r.warnings); err != nil {
			return err
		}
	case config.FormatJSON:
		if err := renderJSON(cmd, r, res, false); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", r.cfg.Format)
	}
	return r.finish()
}
