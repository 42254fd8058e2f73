package syntax

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bgricker/pipexpand/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Marshal renders a process or template document as YAML that the matching
// Parse function reads back into an equal value.
func Marshal(doc any) ([]byte, error) {
	n, err := Node(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return nil, fmt.Errorf("encode %T: %w", doc, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode %T: %w", doc, err)
	}
	return buf.Bytes(), nil
}

// Node builds the YAML node tree for a process or template document.
func Node(doc any) (*yaml.Node, error) {
	var w writer
	switch d := doc.(type) {
	case *pipeline.Process:
		return w.process(d), nil
	case *pipeline.ProcessTemplate:
		m := mappingNode()
		if d.Resources != nil {
			m.add(keyResources, w.resources(d.Resources))
		}
		w.body(m, d.Phases, d.Jobs, d.Steps)
		return m.Node, nil
	case *pipeline.PhasesTemplate:
		m := mappingNode()
		w.body(m, d.Phases, d.Jobs, d.Steps)
		return m.Node, nil
	case *pipeline.JobsTemplate:
		m := mappingNode()
		w.body(m, nil, d.Jobs, d.Steps)
		return m.Node, nil
	case *pipeline.VariablesTemplate:
		m := mappingNode()
		if d.Variables != nil {
			m.add(keyVariables, w.variables(d.Variables))
		}
		return m.Node, nil
	case *pipeline.StepsTemplate:
		m := mappingNode()
		if d.Steps != nil {
			m.add(keySteps, w.steps(d.Steps))
		}
		return m.Node, nil
	default:
		return nil, fmt.Errorf("syntax: cannot encode %T", doc)
	}
}

type writer struct{}

type mapping struct {
	*yaml.Node
}

func mappingNode() mapping {
	return mapping{&yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

func (m mapping) add(key string, value *yaml.Node) {
	m.Content = append(m.Content, str(key), value)
}

func sequenceNode(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items}
}

func str(v string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
	if strings.Contains(v, "\n") {
		n.Style = yaml.LiteralStyle
	}
	return n
}

func boolean(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
}

func integer(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)}
}

// generic renders values read by (*reader).mapping or supplied as template
// parameters.
func generic(v any) *yaml.Node {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case string:
		return str(t)
	case bool:
		return boolean(t)
	case int:
		return integer(t)
	case map[string]any:
		m := mappingNode()
		for _, k := range sortedKeys(t) {
			m.add(k, generic(t[k]))
		}
		return m.Node
	case []any:
		seq := sequenceNode()
		for _, item := range t {
			seq.Content = append(seq.Content, generic(item))
		}
		return seq
	default:
		n := &yaml.Node{}
		if err := n.Encode(t); err != nil {
			return str(fmt.Sprint(t))
		}
		return n
	}
}

func stringMap(in map[string]string) *yaml.Node {
	m := mappingNode()
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		m.add(k, str(in[k]))
	}
	return m.Node
}

func sortedKeys(in map[string]any) []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (w writer) process(p *pipeline.Process) *yaml.Node {
	m := mappingNode()
	if p.Name != "" {
		m.add(keyName, str(p.Name))
	}
	if p.Resources != nil {
		m.add(keyResources, w.resources(p.Resources))
	}
	if ref := p.Template; ref != nil {
		t := mappingNode()
		t.add(keyName, str(ref.Name))
		w.reference(t, ref.Parameters, ref.PhaseSelectors, ref.JobSelectors, ref.StepOverrides)
		m.add(keyTemplate, t.Node)
	}
	if p.Phases != nil {
		m.add(keyPhases, w.phases(p.Phases))
	}
	w.phaseBody(m, p.Parallel, p.Target, p.Jobs, p.TimeoutInMinutes, p.Variables, p.Steps)
	return m.Node
}

func (w writer) body(m mapping, phases []pipeline.PhaseItem, jobs []pipeline.JobItem, steps []pipeline.Step) {
	if phases != nil {
		m.add(keyPhases, w.phases(phases))
	}
	if jobs != nil {
		m.add(keyJobs, w.jobs(jobs))
	}
	if steps != nil {
		m.add(keySteps, w.steps(steps))
	}
}

func (w writer) resources(resources []*pipeline.ProcessResource) *yaml.Node {
	seq := sequenceNode()
	for _, res := range resources {
		m := mappingNode()
		m.add(keyName, str(res.Name))
		if res.Type != "" {
			m.add(keyType, str(res.Type))
		}
		if res.Data != nil {
			m.add(keyData, generic(res.Data))
		}
		seq.Content = append(seq.Content, m.Node)
	}
	return seq
}

func (w writer) reference(m mapping, params map[string]any, phases []*pipeline.PhaseSelector, jobs []*pipeline.JobSelector, overrides pipeline.StepOverrides) {
	if params != nil {
		m.add(keyParameters, generic(params))
	}
	if phases != nil {
		seq := sequenceNode()
		for _, sel := range phases {
			s := mappingNode()
			s.add(keyName, str(sel.Name))
			if sel.JobSelectors != nil {
				s.add(keyJobs, w.jobSelectors(sel.JobSelectors))
			}
			if sel.StepOverrides != nil {
				s.add(keySteps, w.stepOverrides(sel.StepOverrides))
			}
			seq.Content = append(seq.Content, s.Node)
		}
		m.add(keyPhases, seq)
	}
	if jobs != nil {
		m.add(keyJobs, w.jobSelectors(jobs))
	}
	if overrides != nil {
		m.add(keySteps, w.stepOverrides(overrides))
	}
}

func (w writer) phases(phases []pipeline.PhaseItem) *yaml.Node {
	seq := sequenceNode()
	for _, item := range phases {
		m := mappingNode()
		switch p := item.(type) {
		case *pipeline.Phase:
			if p.Name != "" {
				m.add(keyName, str(p.Name))
			}
			w.phaseBody(m, p.Parallel, p.Target, p.Jobs, p.TimeoutInMinutes, p.Variables, p.Steps)
		case *pipeline.PhasesTemplateReference:
			m.add(keyTemplate, str(p.Name))
			w.reference(m, p.Parameters, p.PhaseSelectors, p.JobSelectors, p.StepOverrides)
		}
		seq.Content = append(seq.Content, m.Node)
	}
	return seq
}

func (w writer) phaseBody(m mapping, parallel *bool, target *pipeline.PhaseTarget, jobs []pipeline.JobItem, timeout *int, variables []pipeline.VariableItem, steps []pipeline.Step) {
	if parallel != nil {
		m.add(keyParallel, boolean(*parallel))
	}
	if target != nil {
		t := mappingNode()
		if target.Type != "" {
			t.add(keyType, str(target.Type))
		}
		if target.Name != "" {
			t.add(keyName, str(target.Name))
		}
		m.add(keyTarget, t.Node)
	}
	if jobs != nil {
		m.add(keyJobs, w.jobs(jobs))
	}
	w.jobBody(m, timeout, variables, steps)
}

func (w writer) jobBody(m mapping, timeout *int, variables []pipeline.VariableItem, steps []pipeline.Step) {
	if timeout != nil {
		m.add(keyTimeoutInMinutes, integer(*timeout))
	}
	if variables != nil {
		m.add(keyVariables, w.variables(variables))
	}
	if steps != nil {
		m.add(keySteps, w.steps(steps))
	}
}

func (w writer) jobs(jobs []pipeline.JobItem) *yaml.Node {
	seq := sequenceNode()
	for _, item := range jobs {
		m := mappingNode()
		switch j := item.(type) {
		case *pipeline.Job:
			if j.Name != "" {
				m.add(keyName, str(j.Name))
			}
			w.jobBody(m, j.TimeoutInMinutes, j.Variables, j.Steps)
		case *pipeline.JobsTemplateReference:
			m.add(keyTemplate, str(j.Name))
			w.reference(m, j.Parameters, nil, j.JobSelectors, j.StepOverrides)
		}
		seq.Content = append(seq.Content, m.Node)
	}
	return seq
}

func (w writer) jobSelectors(selectors []*pipeline.JobSelector) *yaml.Node {
	seq := sequenceNode()
	for _, sel := range selectors {
		m := mappingNode()
		m.add(keyName, str(sel.Name))
		if sel.StepOverrides != nil {
			m.add(keySteps, w.stepOverrides(sel.StepOverrides))
		}
		seq.Content = append(seq.Content, m.Node)
	}
	return seq
}

func (w writer) variables(variables []pipeline.VariableItem) *yaml.Node {
	seq := sequenceNode()
	for _, item := range variables {
		m := mappingNode()
		switch v := item.(type) {
		case *pipeline.Variable:
			m.add(keyName, str(v.Name))
			m.add(keyValue, str(v.Value))
			if v.Verbatim {
				m.add(keyVerbatim, boolean(true))
			}
		case *pipeline.VariablesTemplateReference:
			m.add(keyTemplate, str(v.Name))
			if v.Parameters != nil {
				m.add(keyParameters, generic(v.Parameters))
			}
		}
		seq.Content = append(seq.Content, m.Node)
	}
	return seq
}

func (w writer) steps(steps []pipeline.Step) *yaml.Node {
	seq := sequenceNode()
	for _, s := range steps {
		seq.Content = append(seq.Content, w.step(s))
	}
	return seq
}

func (w writer) simpleSteps(steps []pipeline.SimpleStep) *yaml.Node {
	seq := sequenceNode()
	for _, s := range steps {
		seq.Content = append(seq.Content, w.step(s))
	}
	return seq
}

func (w writer) step(step pipeline.Step) *yaml.Node {
	m := mappingNode()
	switch s := step.(type) {
	case *pipeline.TaskStep:
		m.add(keyTask, str(s.Reference.String()))
		if s.Name != "" {
			m.add(keyName, str(s.Name))
		}
		if s.Condition != "" {
			m.add(keyCondition, str(s.Condition))
		}
		m.add(keyContinueOnError, boolean(s.ContinueOnError))
		m.add(keyEnabled, boolean(s.Enabled))
		m.add(keyTimeoutInMinutes, integer(s.TimeoutInMinutes))
		if s.Environment != nil {
			m.add(keyEnvironment, stringMap(s.Environment))
		}
		if s.Inputs != nil {
			m.add(keyInputs, stringMap(s.Inputs))
		}
	case *pipeline.ImportStep:
		m.add(keyImport, str(s.Name))
	case *pipeline.ExportStep:
		m.add(keyExport, str(s.Name))
		if s.ResourceType != "" {
			m.add(keyType, str(s.ResourceType))
		}
		if s.Inputs != nil {
			m.add(keyInputs, generic(s.Inputs))
		}
	case *pipeline.StepsPhase:
		m.add(keyPhase, str(s.Name))
		if s.Steps != nil {
			m.add(keySteps, w.simpleSteps(s.Steps))
		}
	case *pipeline.StepsTemplateReference:
		m.add(keyTemplate, str(s.Name))
		w.reference(m, s.Parameters, nil, nil, s.StepOverrides)
	}
	return m.Node
}

func (w writer) stepOverrides(overrides pipeline.StepOverrides) *yaml.Node {
	m := mappingNode()
	for _, ov := range overrides {
		m.add(ov.Name, w.simpleSteps(ov.Steps))
	}
	return m.Node
}
