package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

const (
	removeSpinnerDelay = 300 * time.Millisecond
	clearLine          = "\r\033[2K"
)

func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentColor)
	return s
}

// statusSpinner draws a one-line spinner after a delay. Output routed through
// Wrap clears the spinner line first, so log lines never share it; the next
// tick redraws the spinner below them.
type statusSpinner struct {
	out     io.Writer
	message string

	mu    sync.Mutex
	drawn bool

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// startDelayedSpinner draws on stderr, and does nothing when stderr is not a
// terminal.
func startDelayedSpinner(message string, delay time.Duration) *statusSpinner {
	if !isInteractiveTerminal(os.Stderr) {
		return &statusSpinner{}
	}
	return newStatusSpinner(os.Stderr, message, delay)
}

func newStatusSpinner(out io.Writer, message string, delay time.Duration) *statusSpinner {
	if strings.TrimSpace(message) == "" {
		message = "Working..."
	}
	if delay < 0 {
		delay = 0
	}
	s := &statusSpinner{
		out:     out,
		message: message,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run(delay)
	return s
}

func (s *statusSpinner) run(delay time.Duration) {
	defer close(s.stopped)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-s.done:
		return
	case <-timer.C:
	}

	model := newSpinner()
	frames := model.Spinner.Frames
	interval := model.Spinner.FPS
	if interval <= 0 {
		interval = 90 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		s.mu.Lock()
		fmt.Fprintf(s.out, "\r%s %s", model.Style.Render(frames[i%len(frames)]), s.message)
		s.drawn = true
		s.mu.Unlock()
		select {
		case <-s.done:
			s.mu.Lock()
			s.clearLocked()
			s.mu.Unlock()
			return
		case <-ticker.C:
		}
	}
}

func (s *statusSpinner) clearLocked() {
	if s.drawn {
		fmt.Fprint(s.out, clearLine)
		s.drawn = false
	}
}

// Stop clears the spinner and waits for it to exit. Safe to call twice.
func (s *statusSpinner) Stop() {
	if s.done == nil {
		return
	}
	s.once.Do(func() {
		close(s.done)
		<-s.stopped
	})
}

// Wrap returns w unchanged for an inactive spinner.
func (s *statusSpinner) Wrap(w io.Writer) io.Writer {
	if s.done == nil {
		return w
	}
	return spinnerAwareWriter{spinner: s, w: w}
}

type spinnerAwareWriter struct {
	spinner *statusSpinner
	w       io.Writer
}

func (sw spinnerAwareWriter) Write(p []byte) (int, error) {
	sw.spinner.mu.Lock()
	defer sw.spinner.mu.Unlock()
	sw.spinner.clearLocked()
	return sw.w.Write(p)
}
