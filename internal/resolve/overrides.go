package resolve

import "github.com/bgricker/pipexpand/internal/pipeline"

// applyOverrides applies a reference's selectors to the content of the
// template it loaded. Tiers run from most to least specific: phase and job,
// job, phase, then unqualified. A steps phase replaced by one tier is gone
// before the next tier runs, so the most specific match wins.
func (r *Resolver) applyOverrides(
	phaseSelectors []*pipeline.PhaseSelector,
	jobSelectors []*pipeline.JobSelector,
	overrides pipeline.StepOverrides,
	phases []pipeline.PhaseItem,
	jobs []pipeline.JobItem,
	steps *[]pipeline.Step,
) {
	applied := 0

	type phaseMatch struct {
		selector *pipeline.PhaseSelector
		phase    *pipeline.Phase
	}
	var byPhase []phaseMatch
	for _, sel := range phaseSelectors {
		for _, phase := range concretePhases(phases) {
			if phase.Name == sel.Name {
				byPhase = append(byPhase, phaseMatch{selector: sel, phase: phase})
			}
		}
	}
	for _, m := range byPhase {
		for _, jobSel := range m.selector.JobSelectors {
			for _, job := range concreteJobs(m.phase.Jobs) {
				if job.Name == jobSel.Name {
					applied += applyStepOverrides(jobSel.StepOverrides, &job.Steps)
				}
			}
		}
	}

	var allJobs []*pipeline.Job
	for _, phase := range concretePhases(phases) {
		allJobs = append(allJobs, concreteJobs(phase.Jobs)...)
	}
	allJobs = append(allJobs, concreteJobs(jobs)...)

	for _, sel := range jobSelectors {
		for _, job := range allJobs {
			if job.Name == sel.Name {
				applied += applyStepOverrides(sel.StepOverrides, &job.Steps)
			}
		}
	}

	for _, m := range byPhase {
		for _, job := range concreteJobs(m.phase.Jobs) {
			applied += applyStepOverrides(m.selector.StepOverrides, &job.Steps)
		}
		applied += applyStepOverrides(m.selector.StepOverrides, &m.phase.Steps)
	}

	for _, job := range allJobs {
		applied += applyStepOverrides(overrides, &job.Steps)
	}
	for _, phase := range concretePhases(phases) {
		applied += applyStepOverrides(overrides, &phase.Steps)
	}
	applied += applyStepOverrides(overrides, steps)

	r.metrics.OverridesApplied(applied)
}

// applyStepOverrides splices a clone of the matching override into the
// place of every steps phase named in overrides, and reports how many were
// replaced. Steps phases without an override stay in place.
func applyStepOverrides(overrides pipeline.StepOverrides, steps *[]pipeline.Step) int {
	if len(overrides) == 0 || steps == nil || *steps == nil {
		return 0
	}
	replaced := 0
	out, _ := expandList(*steps, func(step pipeline.Step) ([]pipeline.Step, bool, error) {
		group, ok := step.(*pipeline.StepsPhase)
		if !ok {
			return nil, false, nil
		}
		repl, ok := overrides.Lookup(group.Name)
		if !ok {
			return nil, false, nil
		}
		replaced++
		cloned := make([]pipeline.Step, 0, len(repl))
		for _, s := range repl {
			cloned = append(cloned, s.Clone())
		}
		return cloned, true, nil
	})
	*steps = out
	return replaced
}

func concretePhases(items []pipeline.PhaseItem) []*pipeline.Phase {
	out := make([]*pipeline.Phase, 0, len(items))
	for _, item := range items {
		if phase, ok := item.(*pipeline.Phase); ok {
			out = append(out, phase)
		}
	}
	return out
}

func concreteJobs(items []pipeline.JobItem) []*pipeline.Job {
	out := make([]*pipeline.Job, 0, len(items))
	for _, item := range items {
		if job, ok := item.(*pipeline.Job); ok {
			out = append(out, job)
		}
	}
	return out
}
