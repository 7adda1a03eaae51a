package main

import (
	"io"

	"github.com/charmbracelet/log"
)

// newLogger returns the diagnostics logger. Warnings are always shown;
// GTR_DEBUG adds a trace of every git call and propagation step.
func newLogger(w io.Writer, debug bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "gtr",
		Level:  log.WarnLevel,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
