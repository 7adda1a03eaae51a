package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	accentColor = lipgloss.Color("#7D56F4")
	headerStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func isInteractiveTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isInteractiveTerminal(f)
}

// pathLink renders a path as an OSC 8 hyperlink when w is a terminal.
func pathLink(w io.Writer, path string) string {
	if !writerIsTerminal(w) {
		return path
	}
	return termenv.Hyperlink("file://"+path, path)
}

func renderLabel(w io.Writer, label string) string {
	if !writerIsTerminal(w) {
		return label
	}
	return labelStyle.Render(label)
}

func renderHeader(w io.Writer, text string) string {
	if !writerIsTerminal(w) {
		return text
	}
	return headerStyle.Render(text)
}

func renderMuted(w io.Writer, text string) string {
	if !writerIsTerminal(w) {
		return text
	}
	return mutedStyle.Render(text)
}
