package report

import (
	"testing"
	"time"

	"github.com/bgricker/pipexpand/internal/pipeline"
)

func TestSummarize(t *testing.T) {
	p := &pipeline.Process{
		Resources: []*pipeline.ProcessResource{{Name: "repo", Type: "git"}},
		Phases: []pipeline.PhaseItem{
			&pipeline.Phase{Name: "Build", Jobs: []pipeline.JobItem{
				&pipeline.Job{Name: "A", Steps: []pipeline.Step{
					&pipeline.ImportStep{Name: "src"},
					&pipeline.StepsPhase{Name: "compile", Steps: []pipeline.SimpleStep{
						&pipeline.ImportStep{Name: "a"},
						&pipeline.ImportStep{Name: "b"},
					}},
				}},
				&pipeline.Job{Name: "B"},
			}},
			&pipeline.Phase{Name: "Empty"},
		},
	}

	s := Summarize("azure-pipelines.yml", []string{"azure-pipelines.yml", "steps.yml"}, p, 1500*time.Millisecond)
	if s.Pipeline != "azure-pipelines.yml" || s.Files != 2 {
		t.Fatalf("unexpected header fields: %+v", s)
	}
	if s.Phases != 2 || s.Jobs != 2 || s.Steps != 3 || s.Resources != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.DurationMS != 1500 {
		t.Fatalf("expected 1500ms, got %d", s.DurationMS)
	}
}

func TestSummarizeNilProcess(t *testing.T) {
	s := Summarize("x.yml", nil, nil, 0)
	if s.Phases != 0 || s.Files != 0 {
		t.Fatalf("expected zero counts, got %+v", s)
	}
}
