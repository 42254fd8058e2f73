package filter

import (
	"testing"

	"github.com/bgricker/pipexpand/internal/pipeline"
)

func sampleProcess() *pipeline.Process {
	return &pipeline.Process{
		Phases: []pipeline.PhaseItem{
			&pipeline.Phase{
				Name: "Build",
				Jobs: []pipeline.JobItem{
					&pipeline.Job{Name: "Linux", Steps: []pipeline.Step{
						&pipeline.ImportStep{Name: "src"},
						&pipeline.StepsPhase{Name: "compile", Steps: []pipeline.SimpleStep{
							&pipeline.TaskStep{Name: "Restore", Reference: pipeline.TaskReference{Name: "NuGet", Version: "2"}},
							&pipeline.TaskStep{Reference: pipeline.TaskReference{Name: "MSBuild", Version: "1"}},
						}},
					}},
					&pipeline.Job{Name: "Windows", Steps: []pipeline.Step{
						&pipeline.TaskStep{Name: "Unit tests", Reference: pipeline.TaskReference{Name: "VSTest"}},
					}},
				},
			},
			&pipeline.Phase{
				Name: "Publish",
				Jobs: []pipeline.JobItem{
					&pipeline.Job{Name: "Package", Steps: []pipeline.Step{&pipeline.ExportStep{Name: "drop"}}},
				},
			},
		},
	}
}

func jobNames(p *pipeline.Process) []string {
	var names []string
	for _, item := range p.Phases {
		for _, j := range item.(*pipeline.Phase).Jobs {
			names = append(names, j.(*pipeline.Job).Name)
		}
	}
	return names
}

func TestFilterProcessByJob(t *testing.T) {
	set, err := CompileSet(nil, []string{"linux"}, nil, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	filtered := FilterProcess(sampleProcess(), set)
	if len(filtered.Phases) != 1 {
		t.Fatalf("expected 1 phase, got %d", len(filtered.Phases))
	}
	names := jobNames(filtered)
	if len(names) != 1 || names[0] != "Linux" {
		t.Fatalf("expected only Linux job, got %v", names)
	}
}

func TestFilterProcessByPhase(t *testing.T) {
	set, err := CompileSet([]string{"/^Pub/"}, nil, nil, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	filtered := FilterProcess(sampleProcess(), set)
	names := jobNames(filtered)
	if len(names) != 1 || names[0] != "Package" {
		t.Fatalf("expected only Package job, got %v", names)
	}
}

func TestFilterProcessSteps(t *testing.T) {
	set, err := CompileSet(nil, nil, []string{"/^(MSBuild|NuGet)/", "restore"}, []string{"restore"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	filtered := FilterProcess(sampleProcess(), set)
	if len(filtered.Phases) != 1 {
		t.Fatalf("expected only Build phase, got %d phases", len(filtered.Phases))
	}
	job := filtered.Phases[0].(*pipeline.Phase).Jobs[0].(*pipeline.Job)
	if len(job.Steps) != 1 {
		t.Fatalf("expected 1 step after filtering, got %d", len(job.Steps))
	}
	if got := pipeline.StepLabel(job.Steps[0]); got != "MSBuild@1" {
		t.Fatalf("expected MSBuild step, got %s", got)
	}
}

func TestFilterProcessLeavesInputUntouched(t *testing.T) {
	p := sampleProcess()
	set, err := CompileSet(nil, nil, nil, []string{"src"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	FilterProcess(p, set)
	linux := p.Phases[0].(*pipeline.Phase).Jobs[0].(*pipeline.Job)
	if len(linux.Steps) != 2 {
		t.Fatalf("input job modified: %d steps", len(linux.Steps))
	}
}

func TestFilterProcessEmptySet(t *testing.T) {
	p := sampleProcess()
	filtered := FilterProcess(p, Set{})
	if len(filtered.Phases) != len(p.Phases) {
		t.Fatalf("expected all phases, got %d", len(filtered.Phases))
	}
	if FilterProcess(nil, Set{}) != nil {
		t.Fatalf("expected nil for nil process")
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile([]string{"/(/"}); err == nil {
		t.Fatalf("expected compile error")
	}
	if _, err := CompileSet(nil, nil, nil, []string{"/[/"}); err == nil {
		t.Fatalf("expected compile error from skip patterns")
	}
}

func TestPatternMatch(t *testing.T) {
	patterns, err := Compile([]string{" Build ", "", "/^v[0-9]+$/"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("expected blank pattern dropped, got %d", len(patterns))
	}
	if !patterns[0].Match("nightly-build") || patterns[0].Match("") {
		t.Fatalf("substring pattern mismatch")
	}
	if !patterns[1].Match("v12") || patterns[1].Match("v1.2") {
		t.Fatalf("regex pattern mismatch")
	}
	if patterns[1].String() != "/^v[0-9]+$/" {
		t.Fatalf("unexpected raw %q", patterns[1].String())
	}
}
