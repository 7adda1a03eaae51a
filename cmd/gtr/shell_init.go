package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// shellWrapper lets `gtr cd` and `gtr main` move the calling shell; every
// other subcommand runs unchanged.
const shellWrapper = `gtr() {
  case "$1" in
    cd|main)
      local __gtr_dir
      __gtr_dir="$(command gtr "$@")" || return $?
      builtin cd -- "$__gtr_dir"
      ;;
    *)
      command gtr "$@"
      ;;
  esac
}
`

func newShellInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell-init [bash|zsh]",
		Short: "Print the shell wrapper and completion for gtr",
		Long: "Add to your shell rc file:\n\n" +
			"  eval \"$(gtr shell-init zsh)\"\n\n" +
			"Without an argument the shell is taken from $SHELL.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usageError(cmd, "too many arguments; provide at most one shell")
			}
			return nil
		},
		ValidArgs: []string{"bash", "zsh"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := ""
			if len(args) == 1 {
				shell = args[0]
			}
			return writeShellInit(cmd.Root(), cmd.OutOrStdout(), shell)
		},
	}
}

func writeShellInit(root *cobra.Command, w io.Writer, shell string) error {
	if shell == "" {
		shell = detectShell()
	}
	switch shell {
	case "bash":
		if _, err := io.WriteString(w, shellWrapper); err != nil {
			return err
		}
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		if _, err := io.WriteString(w, shellWrapper); err != nil {
			return err
		}
		return root.GenZshCompletion(w)
	default:
		return fmt.Errorf("unsupported shell %q (expected bash or zsh)", shell)
	}
}

func detectShell() string {
	if filepath.Base(os.Getenv("SHELL")) == "zsh" {
		return "zsh"
	}
	return "bash"
}
