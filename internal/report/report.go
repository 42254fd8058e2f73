package report

import (
	"time"

	"github.com/bgricker/pipexpand/internal/pipeline"
)

// Summary counts what a resolved pipeline contains.
type Summary struct {
	Pipeline   string        `json:"pipeline"`
	Files      int           `json:"files"`
	Phases     int           `json:"phases"`
	Jobs       int           `json:"jobs"`
	Steps      int           `json:"steps"`
	Resources  int           `json:"resources"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// Summarize counts the concrete phases, jobs and steps of p. Step groups
// count the steps they hold.
func Summarize(pipelinePath string, files []string, p *pipeline.Process, elapsed time.Duration) Summary {
	s := Summary{
		Pipeline:   pipelinePath,
		Files:      len(files),
		Duration:   elapsed,
		DurationMS: elapsed.Milliseconds(),
	}
	if p == nil {
		return s
	}
	s.Resources = len(p.Resources)
	for _, item := range p.Phases {
		phase, ok := item.(*pipeline.Phase)
		if !ok {
			continue
		}
		s.Phases++
		for _, j := range phase.Jobs {
			job, ok := j.(*pipeline.Job)
			if !ok {
				continue
			}
			s.Jobs++
			s.Steps += len(job.FlattenSteps())
		}
	}
	return s
}
