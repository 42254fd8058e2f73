package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgricker/pipexpand/internal/config"
	"github.com/bgricker/pipexpand/internal/output"
)

func newExpandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expand [pipeline]",
		Short: "Print the pipeline with every template reference resolved",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExpand,
	}
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump [pipeline]",
		Short: "Print the resolved pipeline without implied phases, jobs or names",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDump,
	}
}

func runExpand(cmd *cobra.Command, args []string) error {
	r, err := newRun(cmd, args)
	if err != nil {
		return err
	}
	res, err := r.load(cmd)
	if err != nil {
		return err
	}

	switch formatOrDefault(r.cfg, config.FormatYAML) {
	case config.FormatYAML:
		if err := output.NewYAML(cmd.OutOrStdout()).Render(res.process); err != nil {
			return err
		}
		printWarnings(cmd, r.warnings)
	case config.FormatJSON:
		if err := renderJSON(cmd, r, res, true); err != nil {
			return err
		}
	case config.FormatPretty:
		if err := output.NewPretty(cmd.OutOrStdout()).RenderList(res.process); err != nil {
			return err
		}
		printWarnings(cmd, r.warnings)
	default:
		return fmt.Errorf("unsupported format %q", r.cfg.Format)
	}
	return r.finish()
}

func runDump(cmd *cobra.Command, args []string) error {
	r, err := newRun(cmd, args)
	if err != nil {
		return err
	}
	out, err := r.loader.Dump(cmd.Context(), r.root, r.path, r.params)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}
	return r.finish()
}

func renderJSON(cmd *cobra.Command, r *run, res loaded, withProcess bool) error {
	rep := output.Report{
		Files:    res.files,
		Summary:  res.summary,
		Warnings: r.warnings,
	}
	if withProcess {
		doc, err := output.Document(res.process)
		if err != nil {
			return err
		}
		rep.Process = doc
	}
	return output.NewJSON(cmd.OutOrStdout()).Render(rep)
}

func formatOrDefault(cfg config.Config, def string) string {
	if cfg.Format == "" {
		return def
	}
	return strings.ToLower(cfg.Format)
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
	}
}
