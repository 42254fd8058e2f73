package pipeline

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrFileCountExceeded is wrapped by the ResourceLimitError returned when
	// a load references more files than allowed.
	ErrFileCountExceeded = errors.New("file count exceeded")
	// ErrFrontMatterNotClosed is wrapped by the FormatError returned for a
	// preamble section that never ends.
	ErrFrontMatterNotClosed = errors.New("front matter not closed")
)

// SyntaxError reports malformed or unexpected markup at a position in a file.
type SyntaxError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	default:
		return e.Message
	}
}

// FormatError reports a problem with a whole file rather than a single token.
type FormatError struct {
	File    string
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.File, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ResourceLimitError reports that a configured budget was exhausted.
// Resource is a plural noun phrase such as "file references".
type ResourceLimitError struct {
	File     string
	Resource string
	Limit    int
	Err      error
}

func (e *ResourceLimitError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: pipeline definition may not exceed %d %s", e.File, e.Limit, e.Resource)
	}
	return fmt.Sprintf("pipeline definition may not exceed %d %s", e.Limit, e.Resource)
}

func (e *ResourceLimitError) Unwrap() error { return e.Err }

// TimeoutError reports that template evaluation of a file ran out of time.
type TimeoutError struct {
	File    string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("template evaluation timed out for %q: evaluation cannot exceed %g seconds", e.File, e.Timeout.Seconds())
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// CancellationError reports that the caller cancelled the load.
type CancellationError struct {
	Err error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("load cancelled: %v", e.Err)
}

func (e *CancellationError) Unwrap() error { return e.Err }
