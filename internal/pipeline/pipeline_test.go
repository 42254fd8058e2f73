package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStepCloneIsDeep(t *testing.T) {
	orig := &TaskStep{
		Name:        "compile",
		Enabled:     true,
		Reference:   TaskReference{Name: "Bash", Version: "3"},
		Inputs:      map[string]string{"script": "make"},
		Environment: map[string]string{"GOFLAGS": "-mod=mod"},
	}

	clone, ok := orig.Clone().(*TaskStep)
	require.True(t, ok)
	assert.Equal(t, orig, clone)

	clone.Inputs["script"] = "make test"
	clone.Environment["GOFLAGS"] = ""
	clone.Reference.Version = "2"

	assert.Equal(t, "make", orig.Inputs["script"])
	assert.Equal(t, "-mod=mod", orig.Environment["GOFLAGS"])
	assert.Equal(t, "3", orig.Reference.Version)
}

func TestExportStepCloneCopiesNestedInputs(t *testing.T) {
	orig := &ExportStep{
		Name:         "drop",
		ResourceType: "artifact",
		Inputs:       map[string]any{"paths": []any{"bin"}, "opts": map[string]any{"zip": "true"}},
	}

	clone := orig.Clone().(*ExportStep)
	clone.Inputs["paths"].([]any)[0] = "obj"
	clone.Inputs["opts"].(map[string]any)["zip"] = "false"

	assert.Equal(t, "bin", orig.Inputs["paths"].([]any)[0])
	assert.Equal(t, "true", orig.Inputs["opts"].(map[string]any)["zip"])
}

func TestTaskStepInputIsCaseInsensitive(t *testing.T) {
	step := &TaskStep{Inputs: map[string]string{"workingDirectory": "src"}}

	v, ok := step.Input("WORKINGDIRECTORY")
	require.True(t, ok)
	assert.Equal(t, "src", v)

	_, ok = step.Input("script")
	assert.False(t, ok)
}

func TestTaskReferenceString(t *testing.T) {
	assert.Equal(t, "CmdLine@2", TaskReference{Name: "CmdLine", Version: "2"}.String())
	assert.Equal(t, "CmdLine", TaskReference{Name: "CmdLine"}.String())
}

func TestStepOverridesSetReplacesInPlace(t *testing.T) {
	var o StepOverrides
	o = o.Set("build", []SimpleStep{&ImportStep{Name: "a"}})
	o = o.Set("test", nil)
	o = o.Set("build", []SimpleStep{&ImportStep{Name: "b"}})

	require.Len(t, o, 2)
	assert.Equal(t, "build", o[0].Name)
	steps, ok := o.Lookup("build")
	require.True(t, ok)
	assert.Equal(t, []SimpleStep{&ImportStep{Name: "b"}}, steps)

	_, ok = o.Lookup("Build")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestJobFlattenSteps(t *testing.T) {
	job := &Job{Steps: []Step{
		&ImportStep{Name: "src"},
		&StepsPhase{Name: "build", Steps: []SimpleStep{&ImportStep{Name: "a"}, &ImportStep{Name: "b"}}},
		&StepsPhase{Name: "empty"},
		&ExportStep{Name: "drop"},
	}}

	got := job.FlattenSteps()
	assert.Equal(t, []Step{
		&ImportStep{Name: "src"},
		&ImportStep{Name: "a"},
		&ImportStep{Name: "b"},
		&ExportStep{Name: "drop"},
	}, got)
	assert.Nil(t, (&Job{}).FlattenSteps())
}

func TestStepLabel(t *testing.T) {
	assert.Equal(t, "Compile", StepLabel(&TaskStep{Name: "Compile", Reference: TaskReference{Name: "MSBuild", Version: "1"}}))
	assert.Equal(t, "MSBuild@1", StepLabel(&TaskStep{Reference: TaskReference{Name: "MSBuild", Version: "1"}}))
	assert.Equal(t, "import src", StepLabel(&ImportStep{Name: "src"}))
	assert.Equal(t, "export drop", StepLabel(&ExportStep{Name: "drop"}))
	assert.Equal(t, "phase build", StepLabel(&StepsPhase{Name: "build"}))
	assert.Equal(t, "template steps.yml", StepLabel(&StepsTemplateReference{Name: "steps.yml"}))
}

func TestErrorsUnwrap(t *testing.T) {
	limit := &ResourceLimitError{Resource: "file references", Limit: 1, Err: ErrFileCountExceeded}
	assert.True(t, errors.Is(limit, ErrFileCountExceeded))
	assert.Equal(t, "pipeline definition may not exceed 1 file references", limit.Error())

	timeout := &TimeoutError{File: "ci.yml", Timeout: 10 * time.Second}
	assert.Contains(t, timeout.Error(), `"ci.yml"`)
	assert.Contains(t, timeout.Error(), "10 seconds")

	syntax := &SyntaxError{File: "ci.yml", Line: 3, Column: 5, Message: "boom"}
	assert.Equal(t, "ci.yml:3:5: boom", syntax.Error())
}
