package loader

import (
	"fmt"
	"strings"

	"github.com/bgricker/pipexpand/internal/pipeline"
)

// normalize gives a resolved process the full phase/job/step shape: a flat
// job or step list moves into a synthesized phase, a phase's flat steps move
// into a synthesized job, and unnamed phases and jobs get generated names.
func normalize(p *pipeline.Process) {
	switch {
	case p.Jobs != nil:
		p.Phases = []pipeline.PhaseItem{&pipeline.Phase{
			Name:     p.Name,
			Parallel: p.Parallel,
			Target:   p.Target,
			Jobs:     p.Jobs,
		}}
		p.Jobs, p.Parallel, p.Target = nil, nil, nil
	case p.Steps != nil:
		job := &pipeline.Job{
			Name:             p.Name,
			TimeoutInMinutes: p.TimeoutInMinutes,
			Variables:        p.Variables,
			Steps:            p.Steps,
		}
		p.Phases = []pipeline.PhaseItem{&pipeline.Phase{Jobs: []pipeline.JobItem{job}}}
		p.Steps, p.Variables, p.TimeoutInMinutes = nil, nil, nil
	}

	phases := make([]*pipeline.Phase, 0, len(p.Phases))
	known := make(nameSet)
	for _, item := range p.Phases {
		phase, ok := item.(*pipeline.Phase)
		if !ok {
			continue
		}
		if phase.Steps != nil {
			phase.Jobs = []pipeline.JobItem{&pipeline.Job{Steps: phase.Steps}}
			phase.Steps = nil
		}
		known.add(phase.Name)
		phases = append(phases, phase)
	}

	// Generated job names are reserved in the phase name set, so a job never
	// receives a name already used by a phase.
	phaseNames := &nameGenerator{prefix: "Phase", known: known}
	jobNames := &nameGenerator{prefix: "Build", known: known}
	for _, phase := range phases {
		if phase.Name == "" {
			phase.Name = phaseNames.next()
		}
		for _, item := range phase.Jobs {
			if job, ok := item.(*pipeline.Job); ok && job.Name == "" {
				job.Name = jobNames.next()
			}
		}
	}
}

// nameSet holds names compared case-insensitively.
type nameSet map[string]bool

// add reports whether name was not already present.
func (s nameSet) add(name string) bool {
	key := strings.ToLower(name)
	if s[key] {
		return false
	}
	s[key] = true
	return true
}

// nameGenerator yields prefix, prefix2, prefix3, ... skipping names in known.
type nameGenerator struct {
	prefix string
	n      int
	known  nameSet
}

func (g *nameGenerator) next() string {
	for {
		candidate := g.prefix
		if g.n > 0 {
			candidate = fmt.Sprintf("%s%d", g.prefix, g.n)
		}
		if g.known.add(candidate) {
			return candidate
		}
		if g.n == 0 {
			g.n = 2
		} else {
			g.n++
		}
	}
}
