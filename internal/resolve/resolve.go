// Package resolve expands template references in a parsed pipeline into the
// phases, jobs, variables and steps they stand for.
package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bgricker/pipexpand/internal/logging"
	"github.com/bgricker/pipexpand/internal/metrics"
	"github.com/bgricker/pipexpand/internal/pipeline"
	"github.com/bgricker/pipexpand/internal/syntax"
)

// Template kinds, as reported to logs and metrics.
const (
	KindProcess   = "process"
	KindPhases    = "phases"
	KindJobs      = "jobs"
	KindVariables = "variables"
	KindSteps     = "steps"
)

// Document is a template file after text evaluation.
type Document struct {
	Name      string
	Directory string
	Content   []byte
}

// Source loads a template file relative to dir and evaluates it with params.
type Source interface {
	Load(ctx context.Context, dir, path string, params map[string]any) (Document, error)
}

// Tracer receives labelled snapshots of documents as they are read.
type Tracer interface {
	Verbose(label, content string)
}

// Resolver expands template references. A Resolver holds no per-load state
// beyond what its Source carries.
type Resolver struct {
	src     Source
	logger  *slog.Logger
	tracer  Tracer
	metrics *metrics.Recorder
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger template expansions are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithTracer sets the sink for parsed template snapshots.
func WithTracer(t Tracer) Option {
	return func(r *Resolver) {
		r.tracer = t
	}
}

// WithMetrics sets the recorder counting expansions and overrides.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// New returns a Resolver reading templates from src.
func New(src Source, opts ...Option) *Resolver {
	r := &Resolver{src: src, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveProcess replaces every template reference reachable from p. dir is
// the directory of the file p was read from.
func (r *Resolver) ResolveProcess(ctx context.Context, p *pipeline.Process, dir string) error {
	if ref := p.Template; ref != nil {
		tmpl, tdir, err := loadTemplate(ctx, r, dir, ref.Name, ref.Parameters, KindProcess, syntax.ParseProcessTemplate)
		if err != nil {
			return err
		}
		if err := r.resolveBody(ctx, &tmpl.Phases, &tmpl.Jobs, &tmpl.Steps, tdir); err != nil {
			return err
		}
		r.applyOverrides(ref.PhaseSelectors, ref.JobSelectors, ref.StepOverrides, tmpl.Phases, tmpl.Jobs, &tmpl.Steps)
		p.Phases, p.Jobs, p.Steps = tmpl.Phases, tmpl.Jobs, tmpl.Steps
		p.Resources = MergeResources(p.Resources, tmpl.Resources)
		p.Template = nil
		return nil
	}

	if err := r.resolveBody(ctx, &p.Phases, &p.Jobs, &p.Steps, dir); err != nil {
		return err
	}
	vars, err := r.resolveVariables(ctx, p.Variables, dir)
	if err != nil {
		return err
	}
	p.Variables = vars
	return nil
}

func (r *Resolver) resolveBody(ctx context.Context, phases *[]pipeline.PhaseItem, jobs *[]pipeline.JobItem, steps *[]pipeline.Step, dir string) error {
	var err error
	if *phases, err = r.resolvePhases(ctx, *phases, dir); err != nil {
		return err
	}
	if *jobs, err = r.resolveJobs(ctx, *jobs, dir); err != nil {
		return err
	}
	if *steps, err = r.resolveSteps(ctx, *steps, dir); err != nil {
		return err
	}
	return nil
}

// MergeResources returns local followed by every template resource whose
// name local does not already use.
func MergeResources(local, template []*pipeline.ProcessResource) []*pipeline.ProcessResource {
	if len(template) == 0 {
		return local
	}
	known := make(map[string]bool, len(local))
	out := make([]*pipeline.ProcessResource, 0, len(local)+len(template))
	for _, res := range local {
		known[res.Name] = true
		out = append(out, res)
	}
	for _, res := range template {
		if known[res.Name] {
			continue
		}
		known[res.Name] = true
		out = append(out, res)
	}
	return out
}

// expandList builds a new list from items. expand reports whether an item
// was replaced; replacements are spliced in place and not expanded again.
func expandList[T any](items []T, expand func(T) ([]T, bool, error)) ([]T, error) {
	if items == nil {
		return nil, nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		repl, ok, err := expand(item)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, repl...)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func loadTemplate[T any](ctx context.Context, r *Resolver, dir, name string, params map[string]any, kind string, parse func(string, []byte) (*T, error)) (*T, string, error) {
	doc, err := r.src.Load(ctx, dir, name, params)
	if err != nil {
		return nil, "", err
	}
	tmpl, err := parse(doc.Name, doc.Content)
	if err != nil {
		return nil, "", err
	}
	r.metrics.TemplateExpanded(kind)
	r.logger.Debug("template loaded", "kind", kind, "file", doc.Name)
	if r.tracer != nil {
		if out, err := syntax.Marshal(tmpl); err == nil {
			r.tracer.Verbose(doc.Name+" after deserialization", string(out))
		}
	}
	return tmpl, doc.Directory, nil
}

func (r *Resolver) resolvePhases(ctx context.Context, phases []pipeline.PhaseItem, dir string) ([]pipeline.PhaseItem, error) {
	return expandList(phases, func(item pipeline.PhaseItem) ([]pipeline.PhaseItem, bool, error) {
		switch ph := item.(type) {
		case *pipeline.PhasesTemplateReference:
			tmpl, tdir, err := loadTemplate(ctx, r, dir, ph.Name, ph.Parameters, KindPhases, syntax.ParsePhasesTemplate)
			if err != nil {
				return nil, false, err
			}
			if err := r.resolveBody(ctx, &tmpl.Phases, &tmpl.Jobs, &tmpl.Steps, tdir); err != nil {
				return nil, false, err
			}
			r.applyOverrides(ph.PhaseSelectors, ph.JobSelectors, ph.StepOverrides, tmpl.Phases, tmpl.Jobs, &tmpl.Steps)
			switch {
			case tmpl.Phases != nil:
				return tmpl.Phases, true, nil
			case tmpl.Jobs != nil:
				return []pipeline.PhaseItem{&pipeline.Phase{Jobs: tmpl.Jobs}}, true, nil
			case tmpl.Steps != nil:
				return []pipeline.PhaseItem{&pipeline.Phase{Jobs: []pipeline.JobItem{&pipeline.Job{Steps: tmpl.Steps}}}}, true, nil
			default:
				return nil, true, nil
			}
		case *pipeline.Phase:
			var err error
			if ph.Jobs, err = r.resolveJobs(ctx, ph.Jobs, dir); err != nil {
				return nil, false, err
			}
			if ph.Variables, err = r.resolveVariables(ctx, ph.Variables, dir); err != nil {
				return nil, false, err
			}
			if ph.Steps, err = r.resolveSteps(ctx, ph.Steps, dir); err != nil {
				return nil, false, err
			}
			return nil, false, nil
		default:
			return nil, false, fmt.Errorf("unexpected phase type %T", item)
		}
	})
}

func (r *Resolver) resolveJobs(ctx context.Context, jobs []pipeline.JobItem, dir string) ([]pipeline.JobItem, error) {
	return expandList(jobs, func(item pipeline.JobItem) ([]pipeline.JobItem, bool, error) {
		switch j := item.(type) {
		case *pipeline.JobsTemplateReference:
			tmpl, tdir, err := loadTemplate(ctx, r, dir, j.Name, j.Parameters, KindJobs, syntax.ParseJobsTemplate)
			if err != nil {
				return nil, false, err
			}
			if tmpl.Jobs, err = r.resolveJobs(ctx, tmpl.Jobs, tdir); err != nil {
				return nil, false, err
			}
			if tmpl.Steps, err = r.resolveSteps(ctx, tmpl.Steps, tdir); err != nil {
				return nil, false, err
			}
			r.applyOverrides(nil, j.JobSelectors, j.StepOverrides, nil, tmpl.Jobs, &tmpl.Steps)
			switch {
			case tmpl.Jobs != nil:
				return tmpl.Jobs, true, nil
			case tmpl.Steps != nil:
				return []pipeline.JobItem{&pipeline.Job{Steps: tmpl.Steps}}, true, nil
			default:
				return nil, true, nil
			}
		case *pipeline.Job:
			var err error
			if j.Variables, err = r.resolveVariables(ctx, j.Variables, dir); err != nil {
				return nil, false, err
			}
			if j.Steps, err = r.resolveSteps(ctx, j.Steps, dir); err != nil {
				return nil, false, err
			}
			return nil, false, nil
		default:
			return nil, false, fmt.Errorf("unexpected job type %T", item)
		}
	})
}

func (r *Resolver) resolveVariables(ctx context.Context, vars []pipeline.VariableItem, dir string) ([]pipeline.VariableItem, error) {
	return expandList(vars, func(item pipeline.VariableItem) ([]pipeline.VariableItem, bool, error) {
		ref, ok := item.(*pipeline.VariablesTemplateReference)
		if !ok {
			return nil, false, nil
		}
		tmpl, _, err := loadTemplate(ctx, r, dir, ref.Name, ref.Parameters, KindVariables, syntax.ParseVariablesTemplate)
		if err != nil {
			return nil, false, err
		}
		return tmpl.Variables, true, nil
	})
}

func (r *Resolver) resolveSteps(ctx context.Context, steps []pipeline.Step, dir string) ([]pipeline.Step, error) {
	return expandList(steps, func(item pipeline.Step) ([]pipeline.Step, bool, error) {
		ref, ok := item.(*pipeline.StepsTemplateReference)
		if !ok {
			return nil, false, nil
		}
		tmpl, _, err := loadTemplate(ctx, r, dir, ref.Name, ref.Parameters, KindSteps, syntax.ParseStepsTemplate)
		if err != nil {
			return nil, false, err
		}
		r.metrics.OverridesApplied(applyStepOverrides(ref.StepOverrides, &tmpl.Steps))
		return tmpl.Steps, true, nil
	})
}
