package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"github.com/bgricker/pipexpand/internal/pipeline"
	"github.com/bgricker/pipexpand/internal/report"
)

// PrettyRenderer renders pipelines in a human-friendly format.
type PrettyRenderer struct {
	out *termenv.Output
}

// NewPretty creates a PrettyRenderer writing to the provided writer. Colors
// are only emitted when out is a terminal.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: termenv.NewOutput(out)}
}

// RenderList renders phases/jobs/steps in list mode.
func (p *PrettyRenderer) RenderList(process *pipeline.Process) error {
	for _, item := range process.Phases {
		phase, ok := item.(*pipeline.Phase)
		if !ok {
			continue
		}
		header := p.out.String("Phase " + decorateName(phase.Name, phase.Target)).Bold()
		if _, err := fmt.Fprintln(p.out, header); err != nil {
			return err
		}
		for _, j := range phase.Jobs {
			job, ok := j.(*pipeline.Job)
			if !ok {
				continue
			}
			if _, err := fmt.Fprintf(p.out, "  Job %s\n", job.Name); err != nil {
				return err
			}
			for _, step := range job.Steps {
				if err := p.renderStep(step, "    "); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *PrettyRenderer) renderStep(step pipeline.Step, pad string) error {
	group, ok := step.(*pipeline.StepsPhase)
	if !ok {
		_, err := fmt.Fprintf(p.out, "%s• %s\n", pad, pipeline.StepLabel(step))
		return err
	}
	label := p.out.String(group.Name).Faint()
	if _, err := fmt.Fprintf(p.out, "%s▸ %s\n", pad, label); err != nil {
		return err
	}
	for _, s := range group.Steps {
		if err := p.renderStep(s, pad+"  "); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary prints the one line result of a validation.
func (p *PrettyRenderer) RenderSummary(summary report.Summary, warnings []string) error {
	for _, w := range warnings {
		if _, err := fmt.Fprintf(p.out, "warning: %s\n", indent(w, "  ")); err != nil {
			return err
		}
	}
	ok := p.out.String("✓").Foreground(p.out.Color("2"))
	_, err := fmt.Fprintf(p.out, "%s %s: %d files, %d phases, %d jobs, %d steps (%s)\n",
		ok, summary.Pipeline, summary.Files, summary.Phases, summary.Jobs, summary.Steps,
		formatDuration(summary.Duration))
	return err
}

func decorateName(name string, target *pipeline.PhaseTarget) string {
	if target == nil || target.Name == "" {
		return name
	}
	if target.Type == "" {
		return fmt.Sprintf("%s (%s)", name, target.Name)
	}
	return fmt.Sprintf("%s (%s: %s)", name, target.Type, target.Name)
}

// indent pads every line after the first.
func indent(s, pad string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
