package pipeline

// ProcessTemplateReference includes a process template in place of the
// process body.
type ProcessTemplateReference struct {
	Name           string
	Parameters     map[string]any
	PhaseSelectors []*PhaseSelector
	JobSelectors   []*JobSelector
	StepOverrides  StepOverrides
}

// PhasesTemplateReference splices the phases of a template into a phase list.
type PhasesTemplateReference struct {
	Name           string
	Parameters     map[string]any
	PhaseSelectors []*PhaseSelector
	JobSelectors   []*JobSelector
	StepOverrides  StepOverrides
}

// JobsTemplateReference splices the jobs of a template into a job list.
type JobsTemplateReference struct {
	Name          string
	Parameters    map[string]any
	JobSelectors  []*JobSelector
	StepOverrides StepOverrides
}

// VariablesTemplateReference splices the variables of a template into a
// variable list.
type VariablesTemplateReference struct {
	Name       string
	Parameters map[string]any
}

// StepsTemplateReference splices the steps of a template into a step list.
type StepsTemplateReference struct {
	Name          string
	Parameters    map[string]any
	StepOverrides StepOverrides
}

// PhaseSelector targets the jobs of one named phase inside an included
// template.
type PhaseSelector struct {
	Name          string
	JobSelectors  []*JobSelector
	StepOverrides StepOverrides
}

// JobSelector targets one named job inside an included template.
type JobSelector struct {
	Name          string
	StepOverrides StepOverrides
}

// StepOverride replaces every StepsPhase called Name with Steps.
type StepOverride struct {
	Name  string
	Steps []SimpleStep
}

// StepOverrides is an ordered set of overrides keyed by StepsPhase name.
type StepOverrides []StepOverride

// Lookup returns the replacement steps for the named StepsPhase.
func (o StepOverrides) Lookup(name string) ([]SimpleStep, bool) {
	for _, ov := range o {
		if ov.Name == name {
			return ov.Steps, true
		}
	}
	return nil, false
}

// Set adds an override or replaces the steps of an existing one, keeping its
// position.
func (o StepOverrides) Set(name string, steps []SimpleStep) StepOverrides {
	for i := range o {
		if o[i].Name == name {
			o[i].Steps = steps
			return o
		}
	}
	return append(o, StepOverride{Name: name, Steps: steps})
}

// ProcessTemplate is the document a ProcessTemplateReference loads.
type ProcessTemplate struct {
	Resources []*ProcessResource
	Phases    []PhaseItem
	Jobs      []JobItem
	Steps     []Step
}

// PhasesTemplate is the document a PhasesTemplateReference loads. Its
// phases may not reference further phases templates.
type PhasesTemplate struct {
	Phases []PhaseItem
	Jobs   []JobItem
	Steps  []Step
}

// JobsTemplate is the document a JobsTemplateReference loads. Its jobs may
// not reference further jobs templates.
type JobsTemplate struct {
	Jobs  []JobItem
	Steps []Step
}

// VariablesTemplate is the document a VariablesTemplateReference loads.
type VariablesTemplate struct {
	Variables []VariableItem
}

// StepsTemplate is the document a StepsTemplateReference loads. It holds
// simple steps only.
type StepsTemplate struct {
	Steps []Step
}
