package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gathered(t *testing.T, r *Recorder) map[string]float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range m.GetLabel() {
				key += "{" + l.GetName() + "=" + l.GetValue() + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.FileLoaded()
	r.FileLoaded()
	r.TemplateExpanded("steps")
	r.TemplateExpanded("jobs")
	r.TemplateExpanded("steps")
	r.OverridesApplied(3)
	r.OverridesApplied(0)
	r.ObserveEvaluation(2 * time.Millisecond)

	got := gathered(t, r)
	assert.Equal(t, 2.0, got["pipexpand_files_loaded_total"])
	assert.Equal(t, 2.0, got["pipexpand_templates_expanded_total{kind=steps}"])
	assert.Equal(t, 1.0, got["pipexpand_templates_expanded_total{kind=jobs}"])
	assert.Equal(t, 3.0, got["pipexpand_step_overrides_applied_total"])
	assert.Equal(t, 1.0, got["pipexpand_template_evaluation_seconds"])
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.FileLoaded()
	r.TemplateExpanded("phases")
	r.OverridesApplied(1)
	r.ObserveEvaluation(time.Second)
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteFile(filepath.Join(t.TempDir(), "m.prom")))
}

func TestWriteFile(t *testing.T) {
	r := New()
	r.FileLoaded()
	path := filepath.Join(t.TempDir(), "pipexpand.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "pipexpand_files_loaded_total 1"), string(data))
}
