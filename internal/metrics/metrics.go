// Package metrics counts loader activity in a per-run Prometheus registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects loader metrics. A nil *Recorder records nothing.
type Recorder struct {
	registry  *prometheus.Registry
	files     prometheus.Counter
	templates *prometheus.CounterVec
	overrides prometheus.Counter
	evaluate  prometheus.Histogram
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipexpand_files_loaded_total",
			Help: "Pipeline and template files loaded.",
		}),
		templates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipexpand_templates_expanded_total",
			Help: "Template references expanded, by template kind.",
		}, []string{"kind"}),
		overrides: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipexpand_step_overrides_applied_total",
			Help: "Steps phases replaced by step overrides.",
		}),
		evaluate: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipexpand_template_evaluation_seconds",
			Help:    "Duration of template text evaluation.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	r.registry.MustRegister(r.files, r.templates, r.overrides, r.evaluate)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// FileLoaded counts one file read.
func (r *Recorder) FileLoaded() {
	if r == nil {
		return
	}
	r.files.Inc()
}

// TemplateExpanded counts one template reference of the given kind.
func (r *Recorder) TemplateExpanded(kind string) {
	if r == nil {
		return
	}
	r.templates.WithLabelValues(kind).Inc()
}

// OverridesApplied counts replaced steps phases.
func (r *Recorder) OverridesApplied(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.overrides.Add(float64(n))
}

// ObserveEvaluation records how long one template evaluation took.
func (r *Recorder) ObserveEvaluation(d time.Duration) {
	if r == nil {
		return
	}
	r.evaluate.Observe(d.Seconds())
}

// WriteFile writes the collected metrics in the text exposition format, for
// node exporter's textfile collector.
func (r *Recorder) WriteFile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %q: %w", path, err)
	}
	return nil
}
