// Package texteval renders pipeline documents as text templates before they
// are parsed.
package texteval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"text/template/parse"
	"time"

	"github.com/Masterminds/sprig/v3"
)

var (
	// ErrResultTooLong reports output beyond Limits.MaxResultLength.
	ErrResultTooLong = errors.New("template result exceeds the maximum length")
	// ErrDepthExceeded reports control structures nested beyond Limits.MaxDepth.
	ErrDepthExceeded = errors.New("template nesting exceeds the maximum depth")
)

// Limits bounds a single evaluation. Zero or negative values disable a limit.
type Limits struct {
	Timeout         time.Duration
	MaxResultLength int
	MaxDepth        int
}

// Engine evaluates templates with text/template.
type Engine struct {
	funcs template.FuncMap
}

// Functions injected into every parsed tree.
const (
	orEmptyFunc   = "_orEmpty"
	interruptFunc = "_interrupt"
)

// New returns an Engine with the hermetic sprig functions, which leave out
// environment access and non-repeatable helpers.
func New() *Engine {
	return &Engine{funcs: sprig.HermeticTxtFuncMap()}
}

// Evaluate renders text with data. Missing keys render as empty strings.
func (e *Engine) Evaluate(ctx context.Context, name, text string, data map[string]any, limits Limits) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmpl, err := e.parse(name, text)
	if err != nil {
		return "", err
	}
	if limits.MaxDepth > 0 && tmpl.Tree != nil {
		if depth := nesting(tmpl.Tree.Root); depth > limits.MaxDepth {
			return "", fmt.Errorf("%w: %d > %d", ErrDepthExceeded, depth, limits.MaxDepth)
		}
	}

	if limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.Timeout)
		defer cancel()
	}
	for _, t := range tmpl.Templates() {
		if t.Tree != nil {
			instrument(t.Tree, t.Tree.Root)
		}
	}
	tmpl.Funcs(template.FuncMap{
		orEmptyFunc:   orEmpty,
		interruptFunc: func() (string, error) { return "", ctx.Err() },
	})

	type result struct {
		out string
		err error
	}
	// Execution stops at the next write or range iteration after ctx ends.
	// A helper function that never returns still holds the goroutine.
	done := make(chan result, 1)
	go func() {
		w := &limitedWriter{ctx: ctx, max: limits.MaxResultLength}
		err := tmpl.Execute(w, data)
		done <- result{out: w.String(), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, ErrResultTooLong) {
				return "", ErrResultTooLong
			}
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(res.err, ctxErr) {
				return "", ctxErr
			}
			return "", fmt.Errorf("execute template: %w", res.err)
		}
		return res.out, nil
	}
}

func (e *Engine) parse(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(e.funcs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return tmpl, nil
}

// limitedWriter stops execution once the context ends or the output grows
// past max bytes.
type limitedWriter struct {
	strings.Builder
	ctx context.Context
	max int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	if w.max > 0 && w.Len()+len(p) > w.max {
		return 0, ErrResultTooLong
	}
	return w.Builder.Write(p)
}

// nesting returns the deepest chain of if, range, with and block actions.
func nesting(n parse.Node) int {
	switch n := n.(type) {
	case *parse.ListNode:
		if n == nil {
			return 0
		}
		deepest := 0
		for _, child := range n.Nodes {
			deepest = max(deepest, nesting(child))
		}
		return deepest
	case *parse.IfNode:
		return 1 + max(nesting(n.List), nesting(n.ElseList))
	case *parse.RangeNode:
		return 1 + max(nesting(n.List), nesting(n.ElseList))
	case *parse.WithNode:
		return 1 + max(nesting(n.List), nesting(n.ElseList))
	default:
		return 0
	}
}

// instrument rewrites the tree so that actions yielding no value print
// nothing and every range iteration starts with a cancellation check.
func instrument(tree *parse.Tree, n parse.Node) {
	switch n := n.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			instrument(tree, child)
		}
	case *parse.ActionNode:
		if len(n.Pipe.Decl) == 0 {
			n.Pipe.Cmds = append(n.Pipe.Cmds, call(tree, n.Pos, orEmptyFunc))
		}
	case *parse.IfNode:
		instrument(tree, n.List)
		instrument(tree, n.ElseList)
	case *parse.WithNode:
		instrument(tree, n.List)
		instrument(tree, n.ElseList)
	case *parse.RangeNode:
		instrument(tree, n.List)
		instrument(tree, n.ElseList)
		check := &parse.ActionNode{
			NodeType: parse.NodeAction,
			Pos:      n.Pos,
			Line:     n.Line,
			Pipe: &parse.PipeNode{
				NodeType: parse.NodePipe,
				Pos:      n.Pos,
				Line:     n.Line,
				Cmds:     []*parse.CommandNode{call(tree, n.Pos, interruptFunc)},
			},
		}
		n.List.Nodes = append([]parse.Node{check}, n.List.Nodes...)
	}
}

func call(tree *parse.Tree, pos parse.Pos, name string) *parse.CommandNode {
	return &parse.CommandNode{
		NodeType: parse.NodeCommand,
		Pos:      pos,
		Args:     []parse.Node{parse.NewIdentifier(name).SetTree(tree).SetPos(pos)},
	}
}

// orEmpty turns the nil a missing key evaluates to into an empty string.
func orEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
