package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner hands the terminal to an interactive tool running inside a
// worktree and waits for it to exit.
type Runner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func NewRunner() *Runner {
	return &Runner{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

// RunInWorktree runs command (a shell command line) with extra arguments
// shell-quoted after it. A non-zero exit of the tool is returned as an
// *ExitCodeError carrying the same code.
func (r *Runner) RunInWorktree(worktreePath string, command string, args []string) error {
	worktreePath = strings.TrimSpace(worktreePath)
	if worktreePath == "" {
		return errors.New("worktree path required")
	}
	command = strings.TrimSpace(command)
	if command == "" {
		command = defaultAgentCommand
	}

	cmd := r.shellCommand(worktreePath, commandLine(command, args))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return newExitCodeError(exitErr.ExitCode(), err)
		}
		return fmt.Errorf("launch %s: %w", command, err)
	}
	return nil
}

// shellCommand is not bound to the command context: Ctrl-C belongs to the
// interactive tool while it runs.
func (r *Runner) shellCommand(worktreePath string, runCmd string) *exec.Cmd {
	cmd := exec.Command("/bin/sh", "-lc", runCmd)
	cmd.Dir = worktreePath
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	return cmd
}

func commandLine(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		quoted = append(quoted, shellQuote(arg))
	}
	return command + " " + strings.Join(quoted, " ")
}

func shellQuote(value string) string {
	if value == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
