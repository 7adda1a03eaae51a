package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(os.Args); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd := newRootCommand(args)
	return cmd.ExecuteContext(ctx)
}

// reportError prints err and returns the process exit code. A failing
// interactive tool has already spoken for itself; only its code is kept.
func reportError(w io.Writer, err error) int {
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintln(w, "gtr:", err)
	return 1
}
