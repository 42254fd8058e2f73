package loader

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bgricker/pipexpand/internal/pipeline"
	"github.com/bgricker/pipexpand/internal/texteval"
	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

// splitFrontMatter separates a leading preamble data section from the body
// of a file. The section opens with a first line of exactly "---" and ends at
// the next such line.
func splitFrontMatter(file, content string) (string, map[string]any, error) {
	line, rest, ok := cutLine(content)
	if !ok || line != frontMatterDelimiter {
		return content, nil, nil
	}

	var section strings.Builder
	for {
		line, rest, ok = cutLine(rest)
		if !ok {
			return "", nil, &pipeline.FormatError{
				File: file,
				Message: "unexpected end of file: the file started with '---' to indicate a preamble data section " +
					"but no closing '---' was found",
				Err: pipeline.ErrFrontMatterNotClosed,
			}
		}
		if line == frontMatterDelimiter {
			break
		}
		section.WriteString(line)
		section.WriteByte('\n')
	}

	var data map[string]any
	if err := yaml.Unmarshal([]byte(section.String()), &data); err != nil {
		return "", nil, &pipeline.FormatError{
			File:    file,
			Message: "error parsing preamble data section",
			Err:     err,
		}
	}
	return rest, data, nil
}

// cutLine splits off the first line of s without its line ending. ok is
// false once s is empty.
func cutLine(s string) (line, rest string, ok bool) {
	if s == "" {
		return "", "", false
	}
	line, rest, _ = strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r"), rest, true
}

// evaluate renders one file's text and maps evaluator failures onto the
// load error types.
func (s *session) evaluate(ctx context.Context, file, text string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &pipeline.CancellationError{Err: err}
	}
	limits := texteval.Limits{
		Timeout:         s.limits.EvaluationTimeout,
		MaxResultLength: s.limits.MaxResultLength,
		MaxDepth:        s.limits.MaxDepth,
	}

	start := time.Now()
	out, err := s.eval.Evaluate(ctx, file, text, data, limits)
	s.metrics.ObserveEvaluation(time.Since(start))
	if err == nil {
		return out, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", &pipeline.CancellationError{Err: ctxErr}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "", &pipeline.TimeoutError{File: file, Timeout: s.limits.EvaluationTimeout, Err: err}
	case errors.Is(err, texteval.ErrResultTooLong):
		return "", &pipeline.ResourceLimitError{
			File:     file,
			Resource: "characters after template evaluation",
			Limit:    s.limits.MaxResultLength,
			Err:      err,
		}
	case errors.Is(err, texteval.ErrDepthExceeded):
		return "", &pipeline.ResourceLimitError{
			File:     file,
			Resource: "levels of template nesting",
			Limit:    s.limits.MaxDepth,
			Err:      err,
		}
	default:
		return "", &pipeline.FormatError{File: file, Message: "template evaluation failed", Err: err}
	}
}
