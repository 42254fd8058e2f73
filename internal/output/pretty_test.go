package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bgricker/pipexpand/internal/pipeline"
	"github.com/bgricker/pipexpand/internal/report"
)

func TestPrettyRenderList(t *testing.T) {
	p := &pipeline.Process{Phases: []pipeline.PhaseItem{
		&pipeline.Phase{
			Name:   "Build",
			Target: &pipeline.PhaseTarget{Type: "queue", Name: "Hosted"},
			Jobs: []pipeline.JobItem{&pipeline.Job{Name: "Linux", Steps: []pipeline.Step{
				&pipeline.TaskStep{Name: "Compile", Reference: pipeline.TaskReference{Name: "MSBuild"}},
				&pipeline.StepsPhase{Name: "test", Steps: []pipeline.SimpleStep{&pipeline.ImportStep{Name: "bin"}}},
			}}},
		},
	}}

	buf := &bytes.Buffer{}
	if err := NewPretty(buf).RenderList(p); err != nil {
		t.Fatalf("render list: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Phase Build (queue: Hosted)") {
		t.Fatalf("expected phase header, got %q", out)
	}
	if !strings.Contains(out, "  Job Linux\n") {
		t.Fatalf("expected job line, got %q", out)
	}
	if !strings.Contains(out, "    • Compile\n") {
		t.Fatalf("expected step bullet, got %q", out)
	}
	if !strings.Contains(out, "    ▸ test\n      • import bin\n") {
		t.Fatalf("expected nested group, got %q", out)
	}
}

func TestPrettyRenderSummary(t *testing.T) {
	summary := report.Summary{Pipeline: "ci.yml", Files: 2, Phases: 1, Jobs: 3, Steps: 7, Duration: 1234 * time.Millisecond}

	buf := &bytes.Buffer{}
	if err := NewPretty(buf).RenderSummary(summary, []string{"first\nsecond"}); err != nil {
		t.Fatalf("render summary: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "warning: first\n  second\n") {
		t.Fatalf("expected indented warning, got %q", out)
	}
	if !strings.Contains(out, "✓ ci.yml: 2 files, 1 phases, 3 jobs, 7 steps (1.234s)") {
		t.Fatalf("expected summary line, got %q", out)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "0s",
		1500 * time.Microsecond: "2ms",
		2*time.Second + 999999:  "2s",
	}
	for in, want := range cases {
		if got := formatDuration(in); got != want {
			t.Fatalf("formatDuration(%s) = %q, want %q", in, got, want)
		}
	}
}
