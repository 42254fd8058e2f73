// Package pipeline defines the document model for pipeline definitions and
// the templates they include.
package pipeline

// Process is the root of a pipeline definition. Exactly one of Template,
// Phases, Jobs or Steps describes its body; the phase and job properties
// follow the same exclusivity rules as on Phase.
type Process struct {
	Name      string
	Resources []*ProcessResource
	Template  *ProcessTemplateReference
	Phases    []PhaseItem

	Parallel *bool
	Target   *PhaseTarget
	Jobs     []JobItem

	TimeoutInMinutes *int
	Variables        []VariableItem
	Steps            []Step
}

// ProcessResource is a named resource made available to the whole process.
type ProcessResource struct {
	Name string
	Type string
	Data map[string]any
}

// PhaseItem is either a *Phase or a *PhasesTemplateReference.
type PhaseItem interface {
	phaseItem()
}

// Phase groups jobs that run against a common target.
type Phase struct {
	Name     string
	Parallel *bool
	Target   *PhaseTarget
	Jobs     []JobItem

	TimeoutInMinutes *int
	Variables        []VariableItem
	Steps            []Step
}

// PhaseTarget selects where the jobs of a phase run.
type PhaseTarget struct {
	Type string
	Name string
}

// JobItem is either a *Job or a *JobsTemplateReference.
type JobItem interface {
	jobItem()
}

// Job is an ordered list of steps run as a unit.
type Job struct {
	Name             string
	TimeoutInMinutes *int
	Variables        []VariableItem
	Steps            []Step
}

// FlattenSteps returns the job's steps with every residual StepsPhase
// replaced by the steps it groups.
func (j *Job) FlattenSteps() []Step {
	if j == nil || j.Steps == nil {
		return nil
	}
	out := make([]Step, 0, len(j.Steps))
	for _, step := range j.Steps {
		group, ok := step.(*StepsPhase)
		if !ok {
			out = append(out, step)
			continue
		}
		for _, s := range group.Steps {
			out = append(out, s)
		}
	}
	return out
}

// VariableItem is either a *Variable or a *VariablesTemplateReference.
type VariableItem interface {
	variableItem()
}

// Variable is a single name/value pair.
type Variable struct {
	Name     string
	Value    string
	Verbatim bool
}

func (*Phase) phaseItem()                   {}
func (*PhasesTemplateReference) phaseItem() {}

func (*Job) jobItem()                   {}
func (*JobsTemplateReference) jobItem() {}

func (*Variable) variableItem()                   {}
func (*VariablesTemplateReference) variableItem() {}
