// Package filter narrows a resolved pipeline to the phases, jobs and steps
// selected on the command line.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bgricker/pipexpand/internal/pipeline"
)

// Pattern represents a compiled filter condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			re, err := regexp.Compile(raw[1 : len(raw)-1])
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// String returns the pattern as written.
func (p Pattern) String() string { return p.raw }

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// Set is the compiled selection applied to a process.
type Set struct {
	Phases []Pattern
	Jobs   []Pattern
	Only   []Pattern
	Skip   []Pattern
}

// CompileSet compiles each pattern list of a selection.
func CompileSet(phases, jobs, only, skip []string) (Set, error) {
	var (
		set Set
		err error
	)
	if set.Phases, err = Compile(phases); err != nil {
		return Set{}, err
	}
	if set.Jobs, err = Compile(jobs); err != nil {
		return Set{}, err
	}
	if set.Only, err = Compile(only); err != nil {
		return Set{}, err
	}
	if set.Skip, err = Compile(skip); err != nil {
		return Set{}, err
	}
	return set, nil
}

// Empty reports whether the set selects everything.
func (s Set) Empty() bool {
	return len(s.Phases) == 0 && len(s.Jobs) == 0 && len(s.Only) == 0 && len(s.Skip) == 0
}

// FilterProcess returns a copy of a normalized process holding only the
// selected phases and jobs. When step patterns are given, step groups are
// flattened before matching and jobs left without steps are dropped, as are
// phases left without jobs. The input is not modified.
func FilterProcess(p *pipeline.Process, set Set) *pipeline.Process {
	if p == nil {
		return nil
	}
	out := *p
	if set.Empty() {
		return &out
	}

	out.Phases = make([]pipeline.PhaseItem, 0, len(p.Phases))
	for _, item := range p.Phases {
		phase, ok := item.(*pipeline.Phase)
		if !ok {
			continue
		}
		if !matchesAny(set.Phases, phase.Name) {
			continue
		}
		jobs := filterJobs(phase.Jobs, set)
		if len(jobs) == 0 {
			continue
		}
		phaseCopy := *phase
		phaseCopy.Jobs = jobs
		out.Phases = append(out.Phases, &phaseCopy)
	}
	return &out
}

func filterJobs(jobs []pipeline.JobItem, set Set) []pipeline.JobItem {
	result := make([]pipeline.JobItem, 0, len(jobs))
	for _, item := range jobs {
		job, ok := item.(*pipeline.Job)
		if !ok {
			continue
		}
		if !matchesAny(set.Jobs, job.Name) {
			continue
		}
		jobCopy := *job
		if len(set.Only) > 0 || len(set.Skip) > 0 {
			jobCopy.Steps = filterSteps(job.FlattenSteps(), set.Only, set.Skip)
			if len(jobCopy.Steps) == 0 {
				continue
			}
		}
		result = append(result, &jobCopy)
	}
	return result
}

func filterSteps(steps []pipeline.Step, onlyPatterns, skipPatterns []Pattern) []pipeline.Step {
	result := make([]pipeline.Step, 0, len(steps))
	for _, step := range steps {
		if len(onlyPatterns) > 0 && !matchesStep(step, onlyPatterns) {
			continue
		}
		if len(skipPatterns) > 0 && matchesStep(step, skipPatterns) {
			continue
		}
		result = append(result, step)
	}
	return result
}

// matchesAny treats an empty pattern list as matching everything.
func matchesAny(patterns []Pattern, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if pattern.Match(name) {
			return true
		}
	}
	return false
}

func matchesStep(step pipeline.Step, patterns []Pattern) bool {
	label := pipeline.StepLabel(step)
	var task string
	if t, ok := step.(*pipeline.TaskStep); ok {
		task = t.Reference.Name
	}
	for _, pattern := range patterns {
		if pattern.Match(label) || pattern.Match(task) {
			return true
		}
	}
	return false
}
