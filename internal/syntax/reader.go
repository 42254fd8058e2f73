// Package syntax reads and writes pipeline documents as YAML node trees.
package syntax

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bgricker/pipexpand/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// ParseProcess reads a pipeline definition.
func ParseProcess(file string, content []byte) (*pipeline.Process, error) {
	return parse(file, content, (*reader).process)
}

// ParseProcessTemplate reads a template included by a process.
func ParseProcessTemplate(file string, content []byte) (*pipeline.ProcessTemplate, error) {
	return parse(file, content, (*reader).processTemplate)
}

// ParsePhasesTemplate reads a template included from a phase list.
func ParsePhasesTemplate(file string, content []byte) (*pipeline.PhasesTemplate, error) {
	return parse(file, content, (*reader).phasesTemplate)
}

// ParseJobsTemplate reads a template included from a job list.
func ParseJobsTemplate(file string, content []byte) (*pipeline.JobsTemplate, error) {
	return parse(file, content, (*reader).jobsTemplate)
}

// ParseVariablesTemplate reads a template included from a variable list.
func ParseVariablesTemplate(file string, content []byte) (*pipeline.VariablesTemplate, error) {
	return parse(file, content, (*reader).variablesTemplate)
}

// ParseStepsTemplate reads a template included from a step list.
func ParseStepsTemplate(file string, content []byte) (*pipeline.StepsTemplate, error) {
	return parse(file, content, (*reader).stepsTemplate)
}

var yamlLine = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

func parse[T any](file string, content []byte, read func(*reader, *yaml.Node) (*T, error)) (*T, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		msg := err.Error()
		if m := yamlLine.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return nil, &pipeline.SyntaxError{File: file, Line: line, Message: m[2]}
		}
		return nil, &pipeline.SyntaxError{File: file, Message: strings.TrimPrefix(msg, "yaml: ")}
	}
	if len(doc.Content) == 0 {
		return new(T), nil
	}
	root := deref(doc.Content[0])
	if isNull(root) {
		return new(T), nil
	}
	r := &reader{file: file}
	return read(r, root)
}

type reader struct {
	file string
}

func (r *reader) errorf(n *yaml.Node, format string, args ...any) error {
	return &pipeline.SyntaxError{
		File:    r.file,
		Line:    n.Line,
		Column:  n.Column,
		Message: fmt.Sprintf(format, args...),
	}
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

type pair struct {
	key   *yaml.Node
	value *yaml.Node
}

// pairs returns the entries of a mapping node in document order.
func (r *reader) pairs(n *yaml.Node, what string) ([]pair, error) {
	n = deref(n)
	if n.Kind != yaml.MappingNode {
		return nil, r.errorf(n, "expected a mapping for %s", what)
	}
	out := make([]pair, 0, len(n.Content)/2)
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := deref(n.Content[i])
		if key.Kind != yaml.ScalarNode {
			return nil, r.errorf(key, "expected a property name in %s", what)
		}
		if seen[key.Value] {
			return nil, r.errorf(key, "an item with the same key has already been added: '%s'", key.Value)
		}
		seen[key.Value] = true
		out = append(out, pair{key: key, value: n.Content[i+1]})
	}
	return out, nil
}

func (r *reader) items(n *yaml.Node, what string) ([]*yaml.Node, error) {
	n = deref(n)
	if n.Kind != yaml.SequenceNode {
		return nil, r.errorf(n, "expected a sequence for %s", what)
	}
	return n.Content, nil
}

// leading splits off the discriminating first property of a mapping.
func (r *reader) leading(n *yaml.Node, what string) (pair, []pair, error) {
	ps, err := r.pairs(n, what)
	if err != nil {
		return pair{}, nil, err
	}
	if len(ps) == 0 {
		return pair{}, nil, r.errorf(deref(n), "empty %s", what)
	}
	return ps[0], ps[1:], nil
}

func (r *reader) expectName(n *yaml.Node, what string) (string, []pair, error) {
	first, rest, err := r.leading(n, what)
	if err != nil {
		return "", nil, err
	}
	if first.key.Value != keyName {
		return "", nil, r.errorf(first.key, "expected value '%s', actual '%s'", keyName, first.key.Value)
	}
	name, err := r.nonEmptyString(first.value)
	if err != nil {
		return "", nil, err
	}
	return name, rest, nil
}

// exclusive tracks which properties of one mapping have been read.
type exclusive struct {
	r    *reader
	seen map[string]bool
}

func (r *reader) exclusive() *exclusive {
	return &exclusive{r: r, seen: make(map[string]bool)}
}

// check fails when key or any of conflicts was already set, then marks key
// as set.
func (e *exclusive) check(key *yaml.Node, conflicts ...string) error {
	if e.seen[key.Value] {
		return e.r.errorf(key, "an item with the same key has already been added: '%s'", key.Value)
	}
	for _, prev := range conflicts {
		if e.seen[prev] {
			return e.r.errorf(key, "'%s' is not allowed: '%s' was already specified at the same level and is mutually exclusive", key.Value, prev)
		}
	}
	e.seen[key.Value] = true
	return nil
}

//
// Process
//

func (r *reader) process(n *yaml.Node) (*pipeline.Process, error) {
	ps, err := r.pairs(n, "process")
	if err != nil {
		return nil, err
	}
	out := &pipeline.Process{}
	ex := r.exclusive()
	for _, p := range ps {
		switch p.key.Value {
		case keyResources:
			out.Resources, err = r.resources(p.value)
		case keyTemplate:
			if err = ex.check(p.key, keyPhases, keyParallel, keyTarget, keyJobs, keyTimeoutInMinutes, keyVariables, keySteps); err == nil {
				out.Template, err = r.processTemplateReference(p.value)
			}
		case keyPhases:
			if err = ex.check(p.key, keyTemplate, keyParallel, keyTarget, keyJobs, keyTimeoutInMinutes, keyVariables, keySteps); err == nil {
				out.Phases, err = r.phases(p.value, false)
			}
		case keyParallel:
			if err = ex.check(p.key, keyTemplate, keyPhases, keyTimeoutInMinutes, keyVariables, keySteps); err == nil {
				out.Parallel, err = r.boolPtr(p.value)
			}
		case keyTarget:
			if err = ex.check(p.key, keyTemplate, keyPhases, keyTimeoutInMinutes, keyVariables, keySteps); err == nil {
				out.Target, err = r.phaseTarget(p.value)
			}
		case keyJobs:
			if err = ex.check(p.key, keyTemplate, keyPhases, keyTimeoutInMinutes, keyVariables, keySteps); err == nil {
				out.Jobs, err = r.jobs(p.value, false)
			}
		case keyTimeoutInMinutes:
			if err = ex.check(p.key, keyTemplate, keyPhases, keyParallel, keyTarget, keyJobs); err == nil {
				out.TimeoutInMinutes, err = r.int32Ptr(p.value)
			}
		case keyVariables:
			if err = ex.check(p.key, keyTemplate, keyPhases, keyParallel, keyTarget, keyJobs); err == nil {
				out.Variables, err = r.variables(p.value, false)
			}
		case keySteps:
			if err = ex.check(p.key, keyTemplate, keyPhases, keyParallel, keyTarget, keyJobs); err == nil {
				out.Steps, err = r.steps(p.value, false)
			}
		case keyName:
			out.Name, err = r.str(p.value)
		default:
			err = r.errorf(p.key, "unexpected process property: '%s'", p.key.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *reader) resources(n *yaml.Node) ([]*pipeline.ProcessResource, error) {
	items, err := r.items(n, keyResources)
	if err != nil {
		return nil, err
	}
	out := make([]*pipeline.ProcessResource, 0, len(items))
	for _, item := range items {
		name, rest, err := r.expectName(item, "resource")
		if err != nil {
			return nil, err
		}
		res := &pipeline.ProcessResource{Name: name}
		for _, p := range rest {
			switch p.key.Value {
			case keyType:
				res.Type, err = r.nonEmptyString(p.value)
			case keyData:
				res.Data, err = r.mapping(p.value)
			default:
				err = r.errorf(p.key, "unexpected property: '%s'", p.key.Value)
			}
			if err != nil {
				return nil, err
			}
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *reader) processTemplateReference(n *yaml.Node) (*pipeline.ProcessTemplateReference, error) {
	name, rest, err := r.expectName(n, "process template reference")
	if err != nil {
		return nil, err
	}
	sel, err := r.referenceProperties(rest, true, true)
	if err != nil {
		return nil, err
	}
	return &pipeline.ProcessTemplateReference{
		Name:           name,
		Parameters:     sel.parameters,
		PhaseSelectors: sel.phases,
		JobSelectors:   sel.jobs,
		StepOverrides:  sel.overrides,
	}, nil
}

// selection is the data a template reference carries beyond its name.
type selection struct {
	parameters map[string]any
	phases     []*pipeline.PhaseSelector
	jobs       []*pipeline.JobSelector
	overrides  pipeline.StepOverrides
}

func (r *reader) referenceProperties(ps []pair, allowPhases, allowJobs bool) (selection, error) {
	var sel selection
	for _, p := range ps {
		var err error
		switch {
		case p.key.Value == keyParameters:
			sel.parameters, err = r.mapping(p.value)
		case p.key.Value == keyPhases && allowPhases:
			sel.phases, err = r.phaseSelectors(p.value)
		case p.key.Value == keyJobs && allowJobs:
			sel.jobs, err = r.jobSelectors(p.value)
		case p.key.Value == keySteps:
			sel.overrides, err = r.stepOverrides(p.value)
		default:
			err = r.errorf(p.key, "unexpected property: '%s'", p.key.Value)
		}
		if err != nil {
			return selection{}, err
		}
	}
	return sel, nil
}

//
// Phases
//

func (r *reader) phases(n *yaml.Node, simpleOnly bool) ([]pipeline.PhaseItem, error) {
	items, err := r.items(n, keyPhases)
	if err != nil {
		return nil, err
	}
	out := make([]pipeline.PhaseItem, 0, len(items))
	for _, item := range items {
		phase, err := r.phase(item, simpleOnly)
		if err != nil {
			return nil, err
		}
		out = append(out, phase)
	}
	return out, nil
}

func (r *reader) phase(n *yaml.Node, simpleOnly bool) (pipeline.PhaseItem, error) {
	ps, err := r.pairs(n, "phase")
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return &pipeline.Phase{}, nil
	}
	first, rest := ps[0], ps[1:]
	switch first.key.Value {
	case keyName:
		name, err := r.nonEmptyString(first.value)
		if err != nil {
			return nil, err
		}
		phase := &pipeline.Phase{Name: name}
		if err := r.phaseBody(phase, rest); err != nil {
			return nil, err
		}
		return phase, nil
	case keyParallel, keyTarget, keyJobs, keyTimeoutInMinutes, keyVariables, keySteps:
		// Phases implied by a resolved template have no name.
		phase := &pipeline.Phase{}
		if err := r.phaseBody(phase, ps); err != nil {
			return nil, err
		}
		return phase, nil
	case keyTemplate:
		if simpleOnly {
			return nil, r.errorf(first.key, "a phases template cannot reference another phases '%s'", keyTemplate)
		}
		name, err := r.nonEmptyString(first.value)
		if err != nil {
			return nil, err
		}
		sel, err := r.referenceProperties(rest, true, true)
		if err != nil {
			return nil, err
		}
		return &pipeline.PhasesTemplateReference{
			Name:           name,
			Parameters:     sel.parameters,
			PhaseSelectors: sel.phases,
			JobSelectors:   sel.jobs,
			StepOverrides:  sel.overrides,
		}, nil
	default:
		return nil, r.errorf(first.key, "unknown phase type: '%s'", first.key.Value)
	}
}

func (r *reader) phaseBody(phase *pipeline.Phase, ps []pair) error {
	ex := r.exclusive()
	for _, p := range ps {
		var err error
		switch p.key.Value {
		case keyParallel:
			if err = ex.check(p.key, keyTimeoutInMinutes, keyVariables, keySteps); err == nil {
				phase.Parallel, err = r.boolPtr(p.value)
			}
		case keyTarget:
			if err = ex.check(p.key, keyTimeoutInMinutes, keyVariables, keySteps); err == nil {
				phase.Target, err = r.phaseTarget(p.value)
			}
		case keyJobs:
			if err = ex.check(p.key, keyTimeoutInMinutes, keyVariables, keySteps); err == nil {
				phase.Jobs, err = r.jobs(p.value, false)
			}
		case keyTimeoutInMinutes:
			if err = ex.check(p.key, keyJobs, keyParallel, keyTarget); err == nil {
				phase.TimeoutInMinutes, err = r.int32Ptr(p.value)
			}
		case keyVariables:
			if err = ex.check(p.key, keyJobs, keyParallel, keyTarget); err == nil {
				phase.Variables, err = r.variables(p.value, false)
			}
		case keySteps:
			if err = ex.check(p.key, keyJobs, keyParallel, keyTarget); err == nil {
				phase.Steps, err = r.steps(p.value, false)
			}
		default:
			err = r.errorf(p.key, "unexpected phase property: '%s'", p.key.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *reader) phaseTarget(n *yaml.Node) (*pipeline.PhaseTarget, error) {
	ps, err := r.pairs(n, keyTarget)
	if err != nil {
		return nil, err
	}
	out := &pipeline.PhaseTarget{}
	for _, p := range ps {
		switch p.key.Value {
		case keyType:
			out.Type, err = r.nonEmptyString(p.value)
		case keyName:
			out.Name, err = r.nonEmptyString(p.value)
		default:
			err = r.errorf(p.key, "unexpected property: '%s'", p.key.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *reader) phaseSelectors(n *yaml.Node) ([]*pipeline.PhaseSelector, error) {
	items, err := r.items(n, "phase selectors")
	if err != nil {
		return nil, err
	}
	out := make([]*pipeline.PhaseSelector, 0, len(items))
	for _, item := range items {
		name, rest, err := r.expectName(item, "phase selector")
		if err != nil {
			return nil, err
		}
		sel := &pipeline.PhaseSelector{Name: name}
		for _, p := range rest {
			switch p.key.Value {
			case keyJobs:
				sel.JobSelectors, err = r.jobSelectors(p.value)
			case keySteps:
				sel.StepOverrides, err = r.stepOverrides(p.value)
			default:
				err = r.errorf(p.key, "unexpected property: '%s'", p.key.Value)
			}
			if err != nil {
				return nil, err
			}
		}
		out = append(out, sel)
	}
	return out, nil
}

//
// Jobs
//

func (r *reader) jobs(n *yaml.Node, simpleOnly bool) ([]pipeline.JobItem, error) {
	items, err := r.items(n, keyJobs)
	if err != nil {
		return nil, err
	}
	out := make([]pipeline.JobItem, 0, len(items))
	for _, item := range items {
		job, err := r.job(item, simpleOnly)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

func (r *reader) job(n *yaml.Node, simpleOnly bool) (pipeline.JobItem, error) {
	ps, err := r.pairs(n, "job")
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return &pipeline.Job{}, nil
	}
	first, rest := ps[0], ps[1:]
	switch first.key.Value {
	case keyName:
		name, err := r.nonEmptyString(first.value)
		if err != nil {
			return nil, err
		}
		job := &pipeline.Job{Name: name}
		if err := r.jobBody(job, rest); err != nil {
			return nil, err
		}
		return job, nil
	case keyTimeoutInMinutes, keyVariables, keySteps:
		// Jobs implied by a resolved template have no name.
		job := &pipeline.Job{}
		if err := r.jobBody(job, ps); err != nil {
			return nil, err
		}
		return job, nil
	case keyTemplate:
		if simpleOnly {
			return nil, r.errorf(first.key, "a jobs template cannot reference another jobs '%s'", keyTemplate)
		}
		name, err := r.nonEmptyString(first.value)
		if err != nil {
			return nil, err
		}
		sel, err := r.referenceProperties(rest, false, true)
		if err != nil {
			return nil, err
		}
		return &pipeline.JobsTemplateReference{
			Name:          name,
			Parameters:    sel.parameters,
			JobSelectors:  sel.jobs,
			StepOverrides: sel.overrides,
		}, nil
	default:
		return nil, r.errorf(first.key, "unknown job type: '%s'", first.key.Value)
	}
}

func (r *reader) jobBody(job *pipeline.Job, ps []pair) error {
	for _, p := range ps {
		var err error
		switch p.key.Value {
		case keyTimeoutInMinutes:
			job.TimeoutInMinutes, err = r.int32Ptr(p.value)
		case keyVariables:
			job.Variables, err = r.variables(p.value, false)
		case keySteps:
			job.Steps, err = r.steps(p.value, false)
		default:
			err = r.errorf(p.key, "unexpected job property: '%s'", p.key.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *reader) jobSelectors(n *yaml.Node) ([]*pipeline.JobSelector, error) {
	items, err := r.items(n, "job selectors")
	if err != nil {
		return nil, err
	}
	out := make([]*pipeline.JobSelector, 0, len(items))
	for _, item := range items {
		name, rest, err := r.expectName(item, "job selector")
		if err != nil {
			return nil, err
		}
		sel := &pipeline.JobSelector{Name: name}
		for _, p := range rest {
			if p.key.Value != keySteps {
				return nil, r.errorf(p.key, "unexpected property: '%s'", p.key.Value)
			}
			if sel.StepOverrides, err = r.stepOverrides(p.value); err != nil {
				return nil, err
			}
		}
		out = append(out, sel)
	}
	return out, nil
}

//
// Variables
//

func (r *reader) variables(n *yaml.Node, simpleOnly bool) ([]pipeline.VariableItem, error) {
	items, err := r.items(n, keyVariables)
	if err != nil {
		return nil, err
	}
	out := make([]pipeline.VariableItem, 0, len(items))
	for _, item := range items {
		first, rest, err := r.leading(item, "variable")
		if err != nil {
			return nil, err
		}
		switch first.key.Value {
		case keyName:
			name, err := r.nonEmptyString(first.value)
			if err != nil {
				return nil, err
			}
			v := &pipeline.Variable{Name: name}
			for _, p := range rest {
				switch p.key.Value {
				case keyValue:
					v.Value, err = r.str(p.value)
				case keyVerbatim:
					v.Verbatim, err = r.boolean(p.value)
				default:
					err = r.errorf(p.key, "unexpected variable property: '%s'", p.key.Value)
				}
				if err != nil {
					return nil, err
				}
			}
			out = append(out, v)
		case keyTemplate:
			if simpleOnly {
				return nil, r.errorf(first.key, "a variables template cannot reference another variables '%s'", keyTemplate)
			}
			name, err := r.nonEmptyString(first.value)
			if err != nil {
				return nil, err
			}
			ref := &pipeline.VariablesTemplateReference{Name: name}
			for _, p := range rest {
				if p.key.Value != keyParameters {
					return nil, r.errorf(p.key, "unexpected property: '%s'", p.key.Value)
				}
				if ref.Parameters, err = r.mapping(p.value); err != nil {
					return nil, err
				}
			}
			out = append(out, ref)
		default:
			return nil, r.errorf(first.key, "unknown variable type: '%s'", first.key.Value)
		}
	}
	return out, nil
}

//
// Steps
//

func (r *reader) steps(n *yaml.Node, simpleOnly bool) ([]pipeline.Step, error) {
	items, err := r.items(n, keySteps)
	if err != nil {
		return nil, err
	}
	out := make([]pipeline.Step, 0, len(items))
	for _, item := range items {
		step, err := r.step(item, simpleOnly)
		if err != nil {
			return nil, err
		}
		out = append(out, step)
	}
	return out, nil
}

// simpleSteps reads a step list that may hold task, import and export steps
// only.
func (r *reader) simpleSteps(n *yaml.Node) ([]pipeline.SimpleStep, error) {
	steps, err := r.steps(n, true)
	if err != nil {
		return nil, err
	}
	out := make([]pipeline.SimpleStep, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.(pipeline.SimpleStep))
	}
	return out, nil
}

func (r *reader) step(n *yaml.Node, simpleOnly bool) (pipeline.Step, error) {
	first, rest, err := r.leading(n, "step")
	if err != nil {
		return nil, err
	}
	switch first.key.Value {
	case keyTask:
		ref, err := r.nonEmptyString(first.value)
		if err != nil {
			return nil, err
		}
		name, version, _ := strings.Cut(ref, "@")
		if name == "" || strings.Contains(version, "@") {
			return nil, r.errorf(first.value, "task reference '%s' must have the form name or name@version", ref)
		}
		task := &pipeline.TaskStep{
			Enabled:   true,
			Reference: pipeline.TaskReference{Name: name, Version: version},
		}
		for _, p := range rest {
			if p.key.Value == keyInputs {
				task.Inputs, err = r.stringMapping(p.value, true)
			} else {
				err = r.taskControl(task, p)
			}
			if err != nil {
				return nil, err
			}
		}
		return task, nil
	case keyScript:
		return r.shorthandTask(cmdLineTask, first, rest)
	case keyBash:
		return r.shorthandTask(bashTask, first, rest)
	case keyPowerShell:
		return r.shorthandTask(powerShellTask, first, rest)
	case keyImport:
		name, err := r.nonEmptyString(first.value)
		if err != nil {
			return nil, err
		}
		if len(rest) > 0 {
			return nil, r.errorf(rest[0].key, "unexpected property: '%s'", rest[0].key.Value)
		}
		return &pipeline.ImportStep{Name: name}, nil
	case keyExport:
		name, err := r.nonEmptyString(first.value)
		if err != nil {
			return nil, err
		}
		export := &pipeline.ExportStep{Name: name}
		for _, p := range rest {
			switch p.key.Value {
			case keyType:
				export.ResourceType, err = r.nonEmptyString(p.value)
			case keyInputs:
				export.Inputs, err = r.mapping(p.value)
			default:
				err = r.errorf(p.key, "unexpected property: '%s'", p.key.Value)
			}
			if err != nil {
				return nil, err
			}
		}
		return export, nil
	case keyPhase:
		if simpleOnly {
			return nil, r.errorf(first.key, "steps '%s' cannot be nested within a steps phase or steps template", keyPhase)
		}
		name, err := r.nonEmptyString(first.value)
		if err != nil {
			return nil, err
		}
		group := &pipeline.StepsPhase{Name: name}
		for _, p := range rest {
			if p.key.Value != keySteps {
				return nil, r.errorf(p.key, "unexpected property: '%s'", p.key.Value)
			}
			if group.Steps, err = r.simpleSteps(p.value); err != nil {
				return nil, err
			}
		}
		return group, nil
	case keyTemplate:
		if simpleOnly {
			return nil, r.errorf(first.key, "steps '%s' cannot be nested within a steps phase or steps template", keyTemplate)
		}
		name, err := r.nonEmptyString(first.value)
		if err != nil {
			return nil, err
		}
		sel, err := r.referenceProperties(rest, false, false)
		if err != nil {
			return nil, err
		}
		return &pipeline.StepsTemplateReference{
			Name:          name,
			Parameters:    sel.parameters,
			StepOverrides: sel.overrides,
		}, nil
	default:
		return nil, r.errorf(first.key, "unknown step type: '%s'", first.key.Value)
	}
}

func (r *reader) shorthandTask(sh shorthand, first pair, rest []pair) (*pipeline.TaskStep, error) {
	script, err := r.str(first.value)
	if err != nil {
		return nil, err
	}
	task := &pipeline.TaskStep{
		Enabled:   true,
		Reference: pipeline.TaskReference{Name: sh.name, Version: sh.version},
		Inputs:    map[string]string{keyScript: script},
	}
next:
	for _, p := range rest {
		for _, key := range sh.extra {
			if p.key.Value == key {
				if task.Inputs[key], err = r.str(p.value); err != nil {
					return nil, err
				}
				continue next
			}
		}
		if err := r.taskControl(task, p); err != nil {
			return nil, err
		}
	}
	return task, nil
}

func (r *reader) taskControl(task *pipeline.TaskStep, p pair) error {
	var err error
	switch p.key.Value {
	case keyCondition:
		task.Condition, err = r.str(p.value)
	case keyContinueOnError:
		task.ContinueOnError, err = r.boolean(p.value)
	case keyEnabled:
		task.Enabled, err = r.boolean(p.value)
	case keyEnvironment:
		task.Environment, err = r.stringMapping(p.value, false)
	case keyName:
		task.Name, err = r.str(p.value)
	case keyTimeoutInMinutes:
		task.TimeoutInMinutes, err = r.int32(p.value)
	default:
		err = r.errorf(p.key, "unexpected step property: '%s'", p.key.Value)
	}
	return err
}

func (r *reader) stepOverrides(n *yaml.Node) (pipeline.StepOverrides, error) {
	ps, err := r.pairs(n, "step overrides")
	if err != nil {
		return nil, err
	}
	out := make(pipeline.StepOverrides, 0, len(ps))
	for _, p := range ps {
		name, err := r.nonEmptyString(p.key)
		if err != nil {
			return nil, err
		}
		steps, err := r.simpleSteps(p.value)
		if err != nil {
			return nil, err
		}
		out = out.Set(name, steps)
	}
	return out, nil
}

//
// Template documents
//

func (r *reader) processTemplate(n *yaml.Node) (*pipeline.ProcessTemplate, error) {
	ps, err := r.pairs(n, "process template")
	if err != nil {
		return nil, err
	}
	out := &pipeline.ProcessTemplate{}
	ex := r.exclusive()
	for _, p := range ps {
		switch p.key.Value {
		case keyResources:
			out.Resources, err = r.resources(p.value)
		case keyPhases:
			if err = ex.check(p.key, keyJobs, keySteps); err == nil {
				out.Phases, err = r.phases(p.value, false)
			}
		case keyJobs:
			if err = ex.check(p.key, keyPhases, keySteps); err == nil {
				out.Jobs, err = r.jobs(p.value, false)
			}
		case keySteps:
			if err = ex.check(p.key, keyPhases, keyJobs); err == nil {
				out.Steps, err = r.steps(p.value, false)
			}
		default:
			err = r.errorf(p.key, "unexpected process template property: '%s'", p.key.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *reader) phasesTemplate(n *yaml.Node) (*pipeline.PhasesTemplate, error) {
	ps, err := r.pairs(n, "phases template")
	if err != nil {
		return nil, err
	}
	out := &pipeline.PhasesTemplate{}
	ex := r.exclusive()
	for _, p := range ps {
		switch p.key.Value {
		case keyPhases:
			if err = ex.check(p.key, keyJobs, keySteps); err == nil {
				out.Phases, err = r.phases(p.value, true)
			}
		case keyJobs:
			if err = ex.check(p.key, keyPhases, keySteps); err == nil {
				out.Jobs, err = r.jobs(p.value, false)
			}
		case keySteps:
			if err = ex.check(p.key, keyPhases, keyJobs); err == nil {
				out.Steps, err = r.steps(p.value, false)
			}
		default:
			err = r.errorf(p.key, "unexpected phases template property: '%s'", p.key.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *reader) jobsTemplate(n *yaml.Node) (*pipeline.JobsTemplate, error) {
	ps, err := r.pairs(n, "jobs template")
	if err != nil {
		return nil, err
	}
	out := &pipeline.JobsTemplate{}
	ex := r.exclusive()
	for _, p := range ps {
		switch p.key.Value {
		case keyJobs:
			if err = ex.check(p.key, keySteps); err == nil {
				out.Jobs, err = r.jobs(p.value, true)
			}
		case keySteps:
			if err = ex.check(p.key, keyJobs); err == nil {
				out.Steps, err = r.steps(p.value, false)
			}
		default:
			err = r.errorf(p.key, "unexpected jobs template property: '%s'", p.key.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *reader) variablesTemplate(n *yaml.Node) (*pipeline.VariablesTemplate, error) {
	ps, err := r.pairs(n, "variables template")
	if err != nil {
		return nil, err
	}
	out := &pipeline.VariablesTemplate{}
	for _, p := range ps {
		if p.key.Value != keyVariables {
			return nil, r.errorf(p.key, "unexpected variables template property: '%s'", p.key.Value)
		}
		if out.Variables, err = r.variables(p.value, true); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *reader) stepsTemplate(n *yaml.Node) (*pipeline.StepsTemplate, error) {
	ps, err := r.pairs(n, "steps template")
	if err != nil {
		return nil, err
	}
	out := &pipeline.StepsTemplate{}
	for _, p := range ps {
		if p.key.Value != keySteps {
			return nil, r.errorf(p.key, "unexpected steps template property: '%s'", p.key.Value)
		}
		if out.Steps, err = r.steps(p.value, true); err != nil {
			return nil, err
		}
	}
	return out, nil
}
