package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// gitCLI is the git collaborator backed by the git binary, with go-git
// answering the read-only questions it can handle (see gogit_adapter.go).
type gitCLI struct {
	bin    string
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger

	ignoreRules map[string]*ignoreRules
}

func gitPath() (string, error) {
	return exec.LookPath("git")
}

func requireGitPath() (string, error) {
	path, err := gitPath()
	if err != nil {
		return "", errGitNotInstalled
	}
	return path, nil
}

func newGitCLI(logger *log.Logger, stdout io.Writer, stderr io.Writer) (*gitCLI, error) {
	bin, err := requireGitPath()
	if err != nil {
		return nil, err
	}
	return &gitCLI{
		bin:         bin,
		stdout:      stdout,
		stderr:      stderr,
		logger:      logger,
		ignoreRules: map[string]*ignoreRules{},
	}, nil
}

// RepoRoot returns the main worktree root for dir, also when dir is inside a
// linked worktree.
func (g *gitCLI) RepoRoot(ctx context.Context, dir string) (string, error) {
	top, err := g.output(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil || strings.TrimSpace(top) == "" {
		return "", errNotInGitRepository
	}
	return mainWorktreeRoot(strings.TrimSpace(top))
}

func (g *gitCLI) RefExists(ctx context.Context, repoRoot string, ref string) bool {
	if exists, handled := refExistsGoGit(repoRoot, ref); handled {
		return exists
	}
	_, err := g.output(ctx, repoRoot, "show-ref", "--verify", "--quiet", ref)
	return err == nil
}

// AddWorktree streams git's own output to the user.
func (g *gitCLI) AddWorktree(ctx context.Context, repoRoot string, path string, branch string, create bool) error {
	args := []string{"worktree", "add", path, branch}
	if create {
		args = []string{"worktree", "add", "-b", branch, path}
	}
	return g.passthrough(ctx, repoRoot, args...)
}

func (g *gitCLI) RemoveWorktree(ctx context.Context, repoRoot string, path string, force bool) error {
	args := []string{"worktree", "remove", path}
	if force {
		args = []string{"worktree", "remove", "--force", path}
	}
	_, err := g.output(ctx, repoRoot, args...)
	return err
}

func (g *gitCLI) DeleteBranch(ctx context.Context, repoRoot string, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := g.output(ctx, repoRoot, "branch", flag, branch)
	return err
}

func (g *gitCLI) WorktreeList(ctx context.Context, repoRoot string) (string, error) {
	return g.output(ctx, repoRoot, "worktree", "list")
}

func (g *gitCLI) Worktrees(ctx context.Context, repoRoot string) ([]WorktreeInfo, error) {
	out, err := g.output(ctx, repoRoot, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseWorktrees(out), nil
}

func (g *gitCLI) ShortStatus(ctx context.Context, path string) (string, error) {
	return g.output(ctx, path, "status", "--short")
}

func (g *gitCLI) IsIgnored(ctx context.Context, repoRoot string, relPath string) bool {
	rules, ok := g.ignoreRules[repoRoot]
	if !ok {
		rules = loadIgnoreRules(repoRoot)
		g.ignoreRules[repoRoot] = rules
	}
	if rules != nil {
		return rules.MatchDir(relPath)
	}
	// check-ignore exits 0 for ignored paths and 1 otherwise.
	_, err := g.output(ctx, repoRoot, "check-ignore", "--quiet", "--", relPath)
	return err == nil
}

func (g *gitCLI) command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	g.logger.Debug("git", "args", strings.Join(args, " "), "dir", dir)
	cmd := exec.CommandContext(ctx, g.bin, args...)
	cmd.Dir = dir
	return cmd
}

func (g *gitCLI) output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := g.command(ctx, dir, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", &GitError{Args: args, Err: commandErrorWithOutput(err, stderr.Bytes())}
	}
	return string(out), nil
}

func (g *gitCLI) passthrough(ctx context.Context, dir string, args ...string) error {
	cmd := g.command(ctx, dir, args...)
	var stderr bytes.Buffer
	cmd.Stdout = g.stdout
	cmd.Stderr = io.MultiWriter(g.stderr, &stderr)
	if err := cmd.Run(); err != nil {
		return &GitError{Args: args, Err: commandErrorWithOutput(err, stderr.Bytes())}
	}
	return nil
}

// commandErrorWithOutput prefers what git printed over the bare exit status.
func commandErrorWithOutput(err error, output []byte) error {
	msg := strings.TrimSpace(string(output))
	if msg == "" {
		return err
	}
	return errors.New(msg)
}

func parseWorktrees(output string) []WorktreeInfo {
	var worktrees []WorktreeInfo
	var current *WorktreeInfo

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			current = nil
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		switch key {
		case "worktree":
			worktrees = append(worktrees, WorktreeInfo{Path: value})
			current = &worktrees[len(worktrees)-1]
		case "HEAD":
			if current != nil {
				current.Head = value
			}
		case "branch":
			if current != nil {
				current.Branch = strings.TrimPrefix(value, "refs/heads/")
			}
		case "bare":
			if current != nil {
				current.Bare = true
			}
		case "detached":
			if current != nil && current.Branch == "" {
				current.Branch = "detached"
			}
		}
	}
	return worktrees
}
