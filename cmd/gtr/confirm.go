package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

const confirmFieldKey = "confirm_result"

// confirmFunc asks a yes/no question; anything but an explicit yes is a no.
type confirmFunc func(title string, description string) (bool, error)

func gtrHuhTheme() *huh.Theme {
	t := *huh.ThemeCharm()
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(accentColor)
	t.Focused.Next = t.Focused.FocusedButton
	return &t
}

func newConfirmForm(title string, description string, result *bool) *huh.Form {
	confirm := huh.NewConfirm().
		Key(confirmFieldKey).
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(result)

	return huh.NewForm(huh.NewGroup(confirm)).
		WithTheme(gtrHuhTheme()).
		WithShowHelp(false).
		WithProgramOptions(tea.WithOutput(os.Stderr))
}

// promptConfirm uses a huh form on a terminal and falls back to a plain
// [y/N] line prompt when stdin or stderr is redirected.
func promptConfirm(title string, description string) (bool, error) {
	if !isInteractiveTerminal(os.Stdin) || !isInteractiveTerminal(os.Stderr) {
		return promptConfirmPlain(os.Stdin, os.Stderr, title)
	}
	var result bool
	err := newConfirmForm(title, description, &result).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return result, nil
}

func promptConfirmPlain(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes", nil
}
