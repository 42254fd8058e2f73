package output

import (
	"encoding/json"
	"io"

	"github.com/bgricker/pipexpand/internal/report"
	"github.com/bgricker/pipexpand/internal/syntax"
)

// JSONRenderer emits structured output.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures JSON output schema.
type Report struct {
	Process  any            `json:"process,omitempty"`
	Files    []string       `json:"files"`
	Summary  report.Summary `json:"summary"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Document converts a pipeline document into plain maps and slices using
// the same field names as its YAML form.
func Document(doc any) (any, error) {
	node, err := syntax.Node(doc)
	if err != nil {
		return nil, err
	}
	var out any
	if err := node.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(report Report) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
