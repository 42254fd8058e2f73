package output

import (
	"io"

	"github.com/bgricker/pipexpand/internal/syntax"
)

// YAMLRenderer writes pipeline documents in their source syntax.
type YAMLRenderer struct {
	out io.Writer
}

// NewYAML creates a YAML renderer writing to out.
func NewYAML(out io.Writer) *YAMLRenderer {
	return &YAMLRenderer{out: out}
}

// Render writes doc, which must be a process or template document.
func (y *YAMLRenderer) Render(doc any) error {
	data, err := syntax.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = y.out.Write(data)
	return err
}
