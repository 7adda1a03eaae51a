package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Seams replaced in tests.
var (
	newGitClient = func(logger *log.Logger, stdout io.Writer, stderr io.Writer) (gitClient, error) {
		return newGitCLI(logger, stdout, stderr)
	}
	confirmPrompt confirmFunc = promptConfirm
	newLauncher               = func() toolLauncher { return NewRunner() }
	getwd                     = os.Getwd
)

func newRootCommand(args []string) *cobra.Command {
	var showVersion bool
	root := &cobra.Command{
		Use:   "gtr",
		Short: "One-word git worktree management",
		Long: "gtr keeps one worktree per branch under a single base directory.\n\n" +
			"Base directory precedence: $" + envBasePath + ", the path saved with `gtr config <path>`,\n" +
			"<repo>/../worktrees when it exists, then ~/code/worktrees.\n" +
			"New branches are named <prefix><name>; the prefix defaults to \"" + defaultBranchPrefix + "\" ($" + envBranchPrefix + ").",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				return runVersionCommand(cmd.OutOrStdout())
			}
			return cmd.Help()
		},
	}
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Print gtr version and exit")

	root.AddCommand(
		newCreateCommand(),
		newRemoveCommand(),
		newCDCommand(),
		newMainCommand(),
		newListCommand(),
		newClaudeCommand(),
		newConfigCommand(),
		newVersionCommand(),
		newShellInitCommand(),
	)

	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}
	return root
}

func usageError(cmd *cobra.Command, message string) error {
	return fmt.Errorf("%s\n\n%s", message, strings.TrimSpace(cmd.UsageString()))
}

// loadManager resolves settings, the repository and the configuration. Every
// repo-scoped command goes through it exactly once.
func loadManager(cmd *cobra.Command) (*WorktreeManager, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), debugEnabled())
	git, err := newGitClient(logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	wd, err := getwd()
	if err != nil {
		return nil, errNotInGitRepository
	}
	repoRoot, err := git.RepoRoot(commandContext(cmd), wd)
	if err != nil {
		return nil, err
	}
	cfg := resolveConfig(s, repoRoot)
	logger.Debug("configuration", "base", cfg.BasePath, "source", cfg.BasePathSource, "prefix", cfg.BranchPrefix, "repo", repoRoot)
	return NewWorktreeManager(git, repoRoot, cfg, logger), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [prefix]",
		Short: "Create a worktree at <base>/<name> on <prefix><name>",
		Long: "Reuses <prefix><name> when it exists, then a bare <name> branch, and only\n" +
			"creates <prefix><name> when neither exists. The optional prefix applies to this call only.",
		Example: strings.Join([]string{
			"  gtr create auth-flow",
			"  gtr create bug-42 fix/",
		}, "\n"),
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) == 0:
				return usageError(cmd, "missing worktree name")
			case len(args) > 2:
				return usageError(cmd, "too many arguments; provide a name and an optional prefix")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateWorktreeName(args[0]); err != nil {
				return err
			}
			prefix := ""
			if len(args) == 2 {
				prefix = args[1]
				if err := validateBranchPrefix(prefix); err != nil {
					return err
				}
			}
			mgr, err := loadManager(cmd)
			if err != nil {
				return err
			}
			_, err = mgr.Create(commandContext(cmd), args[0], prefix)
			return err
		},
	}
}

func newRemoveCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "rm [-f|--force] <name> [<name> ...]",
		Short: "Remove worktrees and their branches",
		Long: "Without --force a worktree with uncommitted changes is kept and its changes are listed.\n" +
			"After removal the <prefix><name> and <name> branches are deleted when fully merged\n" +
			"(always, with --force).",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError(cmd, "missing worktree name")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateWorktreeName(args[0]); err != nil {
				return err
			}
			mgr, err := loadManager(cmd)
			if err != nil {
				return err
			}
			spin := startDelayedSpinner("Removing worktrees", removeSpinnerDelay)
			mgr.logger.SetOutput(spin.Wrap(cmd.ErrOrStderr()))
			removed, err := mgr.Remove(commandContext(cmd), args, force)
			spin.Stop()
			mgr.logger.SetOutput(cmd.ErrOrStderr())
			out := cmd.OutOrStdout()
			for _, name := range removed {
				fmt.Fprintf(out, "Removed %s\n", pathLink(out, mgr.WorktreePath(name)))
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove even with uncommitted changes and force-delete branches")
	return cmd
}

func newCDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cd [name]",
		Short: "Print the directory of a worktree (the main worktree without a name)",
		Long: "A program cannot change its parent shell's directory; load the wrapper from\n" +
			"`gtr shell-init` so `gtr cd` and `gtr main` switch directories.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usageError(cmd, "too many arguments; provide at most one worktree name")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
				if err := validateWorktreeName(name); err != nil {
					return err
				}
			}
			return runSwitch(cmd, name)
		},
	}
}

func newMainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "main",
		Short: "Print the directory of the main worktree",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError(cmd, "main takes no arguments")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSwitch(cmd, "")
		},
	}
}

func runSwitch(cmd *cobra.Command, name string) error {
	mgr, err := loadManager(cmd)
	if err != nil {
		return err
	}
	path, err := mgr.Switch(commandContext(cmd), name)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List worktrees",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			mgr, err := loadManager(cmd)
			if errors.Is(err, errNotInGitRepository) {
				fmt.Fprintln(out, renderMuted(out, "no worktrees found (not in a git repository)"))
				return nil
			}
			if err != nil {
				return err
			}
			listing, err := mgr.List(commandContext(cmd))
			fmt.Fprintf(out, "%s %s\n", renderHeader(out, "Worktrees in"), pathLink(out, listing.BasePath))
			if err != nil || strings.TrimSpace(listing.Output) == "" {
				fmt.Fprintln(out, renderMuted(out, "no worktrees found"))
				return nil
			}
			fmt.Fprint(out, listing.Output)
			return nil
		},
	}
}

func newClaudeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claude <name> [args...]",
		Short: "Open the agent in a worktree, creating it after confirmation",
		Long: "Runs $" + envAgentCommand + " (default \"" + defaultAgentCommand + "\") inside <base>/<name>.\n" +
			"Arguments after the name are passed to the agent.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError(cmd, "missing worktree name")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateWorktreeName(args[0]); err != nil {
				return err
			}
			mgr, err := loadManager(cmd)
			if err != nil {
				return err
			}
			launched, err := mgr.Launch(commandContext(cmd), args[0], args[1:], confirmPrompt, newLauncher())
			if err != nil {
				return err
			}
			if !launched {
				fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
			}
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config [path]",
		Short: "Show or persist the worktree base path",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usageError(cmd, "too many arguments; provide at most one path")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				return runConfigSet(out, s, args[0])
			}
			runConfigShow(cmd, out, s)
			return nil
		},
	}
}

func runConfigSet(out io.Writer, s settings, raw string) error {
	path, err := normalizeBasePath(s.Home, raw)
	if err != nil {
		return err
	}
	if err := savePersistedBasePath(s.ConfigPath, path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(out, "Base path set to %s\n", pathLink(out, path))
	if s.EnvBasePath != "" {
		fmt.Fprintf(out, "Note: $%s is set and takes precedence (%s)\n", envBasePath, s.EnvBasePath)
	}
	return nil
}

// runConfigShow works outside a repository too; auto-detection is simply
// skipped there.
func runConfigShow(cmd *cobra.Command, out io.Writer, s settings) {
	repoRoot := ""
	if git, err := newGitClient(newLogger(cmd.ErrOrStderr(), debugEnabled()), io.Discard, io.Discard); err == nil {
		if wd, err := getwd(); err == nil {
			repoRoot, _ = git.RepoRoot(commandContext(cmd), wd)
		}
	}
	cfg := resolveConfig(s, repoRoot)
	fmt.Fprintf(out, "%s %s\n", renderLabel(out, "Base path:    "), pathLink(out, cfg.BasePath))
	fmt.Fprintf(out, "%s %s\n", renderLabel(out, "Source:       "), cfg.BasePathSource)
	fmt.Fprintf(out, "%s %s\n", renderLabel(out, "Branch prefix:"), cfg.BranchPrefix)
	fmt.Fprintf(out, "%s %s\n", renderLabel(out, "Config file:  "), s.ConfigPath)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print gtr version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersionCommand(cmd.OutOrStdout())
		},
	}
}

func runVersionCommand(out io.Writer) error {
	_, err := fmt.Fprintln(out, currentVersion())
	return err
}
