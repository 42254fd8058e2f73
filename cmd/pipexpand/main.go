package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"

	"github.com/bgricker/pipexpand/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		stderr := termenv.NewOutput(os.Stderr)
		prefix := stderr.String("error:").Foreground(stderr.Color("1")).Bold()
		fmt.Fprintf(stderr, "%s %v\n", prefix, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps load failures onto distinct process exit codes.
func exitCode(err error) int {
	var (
		syntaxErr *pipeline.SyntaxError
		formatErr *pipeline.FormatError
		limitErr  *pipeline.ResourceLimitError
		timeout   *pipeline.TimeoutError
		cancelled *pipeline.CancellationError
	)
	switch {
	case errors.As(err, &cancelled):
		return 130
	case errors.As(err, &syntaxErr), errors.As(err, &formatErr):
		return 2
	case errors.As(err, &limitErr), errors.As(err, &timeout):
		return 3
	default:
		return 1
	}
}
