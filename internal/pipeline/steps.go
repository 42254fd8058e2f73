package pipeline

import (
	"maps"
	"strings"
)

// Step is one of *TaskStep, *ImportStep, *ExportStep, *StepsPhase or
// *StepsTemplateReference.
type Step interface {
	step()
}

// SimpleStep is a step that may appear inside a StepsPhase or an override
// list. Clone returns a deep copy so override lists can be spliced into
// several jobs without sharing state.
type SimpleStep interface {
	Step
	Clone() SimpleStep
}

// TaskStep invokes a versioned task.
type TaskStep struct {
	Name             string
	Condition        string
	ContinueOnError  bool
	Enabled          bool
	Environment      map[string]string
	TimeoutInMinutes int
	Reference        TaskReference
	// Inputs keys are case-insensitive; use Input to look one up.
	Inputs map[string]string
}

// Input returns the value of the named input, comparing keys without regard
// to case.
func (t *TaskStep) Input(name string) (string, bool) {
	if v, ok := t.Inputs[name]; ok {
		return v, true
	}
	for k, v := range t.Inputs {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Clone implements SimpleStep.
func (t *TaskStep) Clone() SimpleStep {
	out := *t
	out.Reference = t.Reference.Clone()
	out.Environment = maps.Clone(t.Environment)
	out.Inputs = maps.Clone(t.Inputs)
	return &out
}

// TaskReference identifies a task by name and version. An empty version
// selects the latest one.
type TaskReference struct {
	Name    string
	Version string
}

// Clone returns a copy of the reference.
func (r TaskReference) Clone() TaskReference {
	return TaskReference{Name: r.Name, Version: r.Version}
}

// String renders the reference as name@version.
func (r TaskReference) String() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + "@" + r.Version
}

// ImportStep pulls a named resource into the job.
type ImportStep struct {
	Name string
}

// Clone implements SimpleStep.
func (s *ImportStep) Clone() SimpleStep {
	out := *s
	return &out
}

// ExportStep publishes a named resource from the job.
type ExportStep struct {
	Name         string
	ResourceType string
	Inputs       map[string]any
}

// Clone implements SimpleStep.
func (s *ExportStep) Clone() SimpleStep {
	out := *s
	out.Inputs = CloneMapping(s.Inputs)
	return &out
}

// StepsPhase is a named group of simple steps. It is the anchor that step
// overrides replace; its own steps are the defaults used when nothing
// overrides it.
type StepsPhase struct {
	Name  string
	Steps []SimpleStep
}

func (*TaskStep) step()               {}
func (*ImportStep) step()             {}
func (*ExportStep) step()             {}
func (*StepsPhase) step()             {}
func (*StepsTemplateReference) step() {}

// CloneMapping deep-copies a generic mapping read from a document.
func CloneMapping(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMapping(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// StepLabel returns a short human readable description of a step.
func StepLabel(s Step) string {
	switch s := s.(type) {
	case *TaskStep:
		if s.Name != "" {
			return s.Name
		}
		return s.Reference.String()
	case *ImportStep:
		return "import " + s.Name
	case *ExportStep:
		return "export " + s.Name
	case *StepsPhase:
		return "phase " + s.Name
	case *StepsTemplateReference:
		return "template " + s.Name
	default:
		return ""
	}
}
