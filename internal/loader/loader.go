// Package loader reads a pipeline definition and every template it
// references, evaluates template text, resolves references and fills in the
// implied phase and job levels.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/bgricker/pipexpand/internal/fileprovider"
	"github.com/bgricker/pipexpand/internal/logging"
	"github.com/bgricker/pipexpand/internal/metrics"
	"github.com/bgricker/pipexpand/internal/pipeline"
	"github.com/bgricker/pipexpand/internal/resolve"
	"github.com/bgricker/pipexpand/internal/syntax"
	"github.com/bgricker/pipexpand/internal/texteval"
)

// Limits bounds a single load. Zero or negative values disable a limit.
type Limits struct {
	MaxFiles          int
	MaxResultLength   int
	EvaluationTimeout time.Duration
	MaxDepth          int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxFiles:          10,
		MaxResultLength:   512 * 1024,
		EvaluationTimeout: 10 * time.Second,
		MaxDepth:          5,
	}
}

// FileProvider locates and reads pipeline files.
type FileProvider interface {
	ResolvePath(defaultRoot, path string) string
	GetFile(path string) (fileprovider.File, error)
}

// Evaluator renders template text with parameters.
type Evaluator interface {
	Evaluate(ctx context.Context, name, text string, data map[string]any, limits texteval.Limits) (string, error)
}

// Loader loads pipeline definitions. It is safe for concurrent use; each
// call to Load keeps its own file count.
type Loader struct {
	files   FileProvider
	eval    Evaluator
	limits  Limits
	logger  *slog.Logger
	tracer  resolve.Tracer
	metrics *metrics.Recorder
}

// Option configures a Loader.
type Option func(*Loader)

// WithLimits replaces the default limits.
func WithLimits(limits Limits) Option {
	return func(l *Loader) {
		l.limits = limits
	}
}

// WithEvaluator replaces the text/template evaluator.
func WithEvaluator(eval Evaluator) Option {
	return func(l *Loader) {
		l.eval = eval
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithTracer sets the sink receiving document snapshots.
func WithTracer(t resolve.Tracer) Option {
	return func(l *Loader) {
		l.tracer = t
	}
}

// WithMetrics sets the recorder for load metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(l *Loader) {
		l.metrics = m
	}
}

// New returns a Loader reading files through files.
func New(files FileProvider, opts ...Option) *Loader {
	l := &Loader{
		files:  files,
		eval:   texteval.New(),
		limits: DefaultLimits(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.tracer == nil {
		l.tracer = logging.NewTracer(l.logger)
	}
	return l
}

// Result is a loaded pipeline together with the files read to build it.
type Result struct {
	Process *pipeline.Process
	Files   []string
}

// Load reads the pipeline at path, resolved against defaultRoot, with params
// as the template parameters of the root file.
func (l *Loader) Load(ctx context.Context, defaultRoot, path string, params map[string]any) (*pipeline.Process, error) {
	res, err := l.LoadDetailed(ctx, defaultRoot, path, params)
	if err != nil {
		return nil, err
	}
	return res.Process, nil
}

// LoadDetailed is Load that also reports which files were read.
func (l *Loader) LoadDetailed(ctx context.Context, defaultRoot, path string, params map[string]any) (*Result, error) {
	start := time.Now()
	s := &session{Loader: l}
	p, err := s.resolved(ctx, defaultRoot, path, params)
	if err != nil {
		return nil, err
	}
	normalize(p)
	l.trace("After resolution", p)
	l.logger.Info("pipeline loaded",
		"file", s.loaded[0],
		"files", len(s.loaded),
		"phases", len(p.Phases),
		"duration", time.Since(start))
	return &Result{Process: p, Files: s.loaded}, nil
}

// Dump loads and resolves the pipeline at path and renders it as YAML
// without adding implied levels or names.
func (l *Loader) Dump(ctx context.Context, defaultRoot, path string, params map[string]any) ([]byte, error) {
	s := &session{Loader: l}
	p, err := s.resolved(ctx, defaultRoot, path, params)
	if err != nil {
		return nil, err
	}
	return syntax.Marshal(p)
}

func (l *Loader) trace(label string, doc any) {
	out, err := syntax.Marshal(doc)
	if err != nil {
		l.logger.Debug("trace skipped", "label", label, "error", err)
		return
	}
	l.tracer.Verbose(label, string(out))
}

// session is the state of one load. count includes attempts that failed.
type session struct {
	*Loader
	count  int
	loaded []string
}

func (s *session) resolved(ctx context.Context, defaultRoot, path string, params map[string]any) (*pipeline.Process, error) {
	doc, err := s.Load(ctx, defaultRoot, path, params)
	if err != nil {
		return nil, err
	}
	p, err := syntax.ParseProcess(doc.Name, doc.Content)
	if err != nil {
		return nil, err
	}
	s.trace(doc.Name+" after deserialization", p)

	r := resolve.New(s,
		resolve.WithLogger(s.logger),
		resolve.WithTracer(s.tracer),
		resolve.WithMetrics(s.metrics))
	if err := r.ResolveProcess(ctx, p, doc.Directory); err != nil {
		return nil, err
	}
	return p, nil
}

// Load implements resolve.Source.
func (s *session) Load(ctx context.Context, dir, path string, params map[string]any) (resolve.Document, error) {
	s.count++
	if limit := s.limits.MaxFiles; limit > 0 && s.count > limit {
		return resolve.Document{}, &pipeline.ResourceLimitError{
			File:     path,
			Resource: "file references",
			Limit:    limit,
			Err:      pipeline.ErrFileCountExceeded,
		}
	}
	if err := ctx.Err(); err != nil {
		return resolve.Document{}, &pipeline.CancellationError{Err: err}
	}

	resolvedPath := s.files.ResolvePath(dir, path)
	f, err := s.files.GetFile(resolvedPath)
	if err != nil {
		return resolve.Document{}, fmt.Errorf("load %q: %w", path, err)
	}
	s.loaded = append(s.loaded, f.Name)
	s.metrics.FileLoaded()
	s.logger.Debug("file loaded", "file", f.Name, "bytes", len(f.Content))

	body, frontMatter, err := splitFrontMatter(f.Name, string(f.Content))
	if err != nil {
		return resolve.Document{}, err
	}
	data := maps.Clone(params)
	if data == nil {
		data = make(map[string]any, len(frontMatter))
	}
	maps.Copy(data, frontMatter)

	out, err := s.evaluate(ctx, f.Name, body, data)
	if err != nil {
		return resolve.Document{}, err
	}
	s.tracer.Verbose(f.Name+" after template evaluation", out)
	return resolve.Document{Name: f.Name, Directory: f.Directory, Content: []byte(out)}, nil
}
